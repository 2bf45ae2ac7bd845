// Package mqtt wraps the paho client behind the small PubSub interface the
// orchestrator and trainers share. Every payload on the wire is a JSON
// object, decoded to a map before it reaches a subscriber.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout       = 10 * time.Second
	maxReconnectInterval = time.Minute
	// Milliseconds the paho client gets to flush in-flight messages on
	// disconnect.
	disconnectQuiesce = 250
)

var (
	ErrConnect = errors.New("failed to connect to MQTT broker")

	errEmptyTopic  = errors.New("empty topic")
	errEmptyClient = errors.New("empty client ID")
	errWaitTimeout = errors.New("MQTT operation timed out")

	offlineTopicTemplate = "channels/%s/messages/control/trainer/alive"
)

// Handler consumes one decoded message from a subscription. Returning an
// error logs the failure; the message is not redelivered.
type Handler func(topic string, msg map[string]any) error

type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

type Config struct {
	Address  string
	QoS      byte
	ClientID string
	Username string
	Password string
	// ChannelID, when set, registers a last-will announcement so the
	// orchestrator marks this client offline if the connection drops.
	ChannelID string
	Timeout   time.Duration
}

type pubsub struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

func NewPubSub(cfg Config, logger *slog.Logger) (PubSub, error) {
	if cfg.ClientID == "" {
		return nil, errEmptyClient
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Address).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetMaxReconnectInterval(maxReconnectInterval)

	if cfg.ChannelID != "" {
		will, err := json.Marshal(map[string]any{
			"status":     "offline",
			"trainer_id": cfg.Username,
		})
		if err != nil {
			return nil, err
		}
		opts.SetWill(fmt.Sprintf(offlineTopicTemplate, cfg.ChannelID), string(will), 0, false)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT connection established", slog.String("client_id", cfg.ClientID))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost",
			slog.String("client_id", cfg.ClientID),
			slog.Any("error", err),
		)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		logger.Info("MQTT reconnecting", slog.String("client_id", cfg.ClientID))
	})

	client := mqtt.NewClient(opts)
	if err := wait(context.Background(), client.Connect(), cfg.Timeout); err != nil {
		return nil, errors.Join(ErrConnect, err)
	}

	return &pubsub{
		client:  client,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", topic, err)
	}

	if err := wait(ctx, ps.client.Publish(topic, ps.qos, false, payload), ps.timeout); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}

func (ps *pubsub) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	if err := wait(ctx, ps.client.Subscribe(topic, ps.qos, ps.dispatch(handler)), ps.timeout); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	return nil
}

func (ps *pubsub) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	if err := wait(ctx, ps.client.Unsubscribe(topic), ps.timeout); err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", topic, err)
	}

	return nil
}

func (ps *pubsub) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ps.client.Disconnect(disconnectQuiesce)

	return nil
}

// wait blocks until the token resolves, the timeout lapses or ctx is done. A
// non-positive timeout waits on the token alone.
func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timeoutC:
		return errWaitTimeout
	case <-token.Done():
		return token.Error()
	}
}

// dispatch decodes the JSON payload and hands it to the subscriber. Payloads
// that do not decode to an object are dropped with a warning, since a message
// that can never parse would otherwise be retried forever.
func (ps *pubsub) dispatch(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		var msg map[string]any
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			ps.logger.Warn("dropping undecodable MQTT message",
				slog.String("topic", m.Topic()),
				slog.Any("error", err),
			)

			return
		}

		if err := h(m.Topic(), msg); err != nil {
			ps.logger.Warn("MQTT message handler failed",
				slog.String("topic", m.Topic()),
				slog.Any("error", err),
			)
		}

		m.Ack()
	}
}
