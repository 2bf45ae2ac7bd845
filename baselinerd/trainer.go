package baselinerd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/trainer"
)

const trainerSvcName = "trainer"

func StartTrainer(ctx context.Context, cancel context.CancelFunc, cfg trainer.Config) error {
	defer cancel()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	mqttPubSub, err := mqtt.NewPubSub(mqtt.Config{
		Address:   cfg.MQTTAddress,
		QoS:       cfg.MQTTQoS,
		ClientID:  trainerSvcName,
		Username:  cfg.ClientID,
		Password:  cfg.ClientKey,
		ChannelID: cfg.ChannelID,
		Timeout:   cfg.MQTTTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
	}

	svc, err := trainer.NewService(ctx, cfg, mqttPubSub, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize trainer service: %s", err.Error())
	}

	return svc.Run(ctx, logger)
}

var (
	livelinessInterval = 10 * time.Second
	trainerID          = uuid.NewString()
)

var trainerCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start trainer",
		Long:  `Start trainer.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := trainer.Config{
				LogLevel:           logLevel,
				InstanceID:         trainerID,
				MQTTAddress:        mqttAddress,
				MQTTTimeout:        mqttTimeout,
				MQTTQoS:            byte(mqttQOS),
				LivelinessInterval: livelinessInterval,
				ChannelID:          channelID,
				ClientID:           clientID,
				ClientKey:          clientKey,
				DataDir:            dataDir,
			}
			if err := cfg.Validate(); err != nil {
				slog.Error("invalid config", slog.Any("error", err))

				return
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := StartTrainer(ctx, cancel, cfg); err != nil {
				slog.Error("failed to start trainer", slog.String("error", err.Error()))
			}
		},
	},
}

func NewTrainerCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "trainer [start]",
		Short: "Trainer management",
		Long:  `Start trainer for Baseliner.`,
	}

	for i := range trainerCmd {
		cmd.AddCommand(&trainerCmd[i])
	}

	cmd.PersistentFlags().StringVarP(
		&logLevel,
		"log-level",
		"l",
		logLevel,
		"Log level",
	)

	cmd.PersistentFlags().StringVarP(
		&trainerID,
		"id",
		"i",
		trainerID,
		"Trainer ID",
	)

	cmd.PersistentFlags().DurationVarP(
		&mqttTimeout,
		"mqtt-timeout",
		"o",
		mqttTimeout,
		"MQTT Timeout",
	)

	cmd.PersistentFlags().IntVarP(
		&mqttQOS,
		"mqtt-qos",
		"q",
		mqttQOS,
		"MQTT QOS",
	)

	cmd.PersistentFlags().DurationVarP(
		&livelinessInterval,
		"liveliness-interval",
		"I",
		livelinessInterval,
		"Liveliness Interval",
	)

	cmd.PersistentFlags().StringVarP(
		&mqttAddress,
		"mqtt-address",
		"m",
		mqttAddress,
		"MQTT Address",
	)

	cmd.PersistentFlags().StringVarP(
		&channelID,
		"channel-id",
		"c",
		channelID,
		"Orchestrator Channel ID",
	)

	cmd.PersistentFlags().StringVarP(
		&clientID,
		"client-id",
		"t",
		clientID,
		"Trainer Client ID",
	)

	cmd.PersistentFlags().StringVarP(
		&clientKey,
		"client-key",
		"k",
		clientKey,
		"Trainer Client Key",
	)

	cmd.PersistentFlags().StringVarP(
		&dataDir,
		"data-dir",
		"d",
		dataDir,
		"Dataset directory",
	)

	return &cmd
}
