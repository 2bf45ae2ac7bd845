package trainer

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	LogLevel           string        `env:"TRAINER_LOG_LEVEL"           envDefault:"info"`
	InstanceID         string        `env:"TRAINER_INSTANCE_ID"`
	MQTTAddress        string        `env:"TRAINER_MQTT_ADDRESS"        envDefault:"tcp://localhost:1883"`
	MQTTTimeout        time.Duration `env:"TRAINER_MQTT_TIMEOUT"        envDefault:"30s"`
	MQTTQoS            byte          `env:"TRAINER_MQTT_QOS"            envDefault:"2"`
	LivelinessInterval time.Duration `env:"TRAINER_LIVELINESS_INTERVAL" envDefault:"10s"`
	ChannelID          string        `env:"TRAINER_CHANNEL_ID"`
	ClientID           string        `env:"TRAINER_CLIENT_ID"`
	ClientKey          string        `env:"TRAINER_CLIENT_KEY"`
	DataDir            string        `env:"TRAINER_DATA_DIR"            envDefault:"./data"`
}

func (c Config) Validate() error {
	if c.MQTTAddress == "" {
		return errors.New("mqtt address is required")
	}
	if _, err := url.Parse(c.MQTTAddress); err != nil {
		return fmt.Errorf("mqtt address is not a valid URL: %w", err)
	}
	if c.ChannelID == "" {
		return errors.New("channel ID is required")
	}
	if c.ClientID == "" {
		return errors.New("client ID is required")
	}

	return nil
}
