package baselinerd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/orchestrator/api"
	"github.com/absmach/baseliner/orchestrator/middleware"
	"github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/pkg/storage"
	"github.com/absmach/baseliner/pkg/tracking"
)

const orchestratorSvcName = "orchestrator"

type OrchestratorConfig struct {
	LogLevel        string        `env:"ORCHESTRATOR_LOG_LEVEL"        envDefault:"info"`
	InstanceID      string        `env:"ORCHESTRATOR_INSTANCE_ID"`
	MQTTAddress     string        `env:"ORCHESTRATOR_MQTT_ADDRESS"     envDefault:"tcp://localhost:1883"`
	MQTTQoS         uint8         `env:"ORCHESTRATOR_MQTT_QOS"         envDefault:"2"`
	MQTTTimeout     time.Duration `env:"ORCHESTRATOR_MQTT_TIMEOUT"     envDefault:"30s"`
	ClientID        string        `env:"ORCHESTRATOR_CLIENT_ID"`
	ClientKey       string        `env:"ORCHESTRATOR_CLIENT_KEY"`
	ChannelID       string        `env:"ORCHESTRATOR_CHANNEL_ID"`
	DataDir         string        `env:"ORCHESTRATOR_DATA_DIR"         envDefault:"./data"`
	MaxConcurrency  int           `env:"ORCHESTRATOR_MAX_CONCURRENCY"  envDefault:"3"`
	TrainingTimeout time.Duration `env:"ORCHESTRATOR_TRAINING_TIMEOUT" envDefault:"5m"`
	Storage         storage.Config
	Server          server.Config
	OTELURL         url.URL `env:"ORCHESTRATOR_OTEL_URL"`
	TraceRatio      float64 `env:"ORCHESTRATOR_TRACE_RATIO" envDefault:"0"`
}

func StartOrchestrator(ctx context.Context, cancel context.CancelFunc, cfg OrchestratorConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, orchestratorSvcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %s", err.Error())
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				slog.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(orchestratorSvcName)

	// No ChannelID here: the offline last-will is a trainer announcement,
	// and the orchestrator must not impersonate one.
	mqttPubSub, err := mqtt.NewPubSub(mqtt.Config{
		Address:  cfg.MQTTAddress,
		QoS:      cfg.MQTTQoS,
		ClientID: orchestratorSvcName,
		Username: cfg.ClientID,
		Password: cfg.ClientKey,
		Timeout:  cfg.MQTTTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
	}

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %s", err.Error())
	}
	if repos.Closer != nil {
		defer func() {
			if err := repos.Closer.Close(); err != nil {
				logger.Error("error closing storage", slog.Any("error", err))
			}
		}()
	}

	tracker, err := tracking.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize run tracking: %s", err.Error())
	}

	svc := orchestrator.NewService(
		repos.Datasets,
		repos.Experiments,
		storage.NewInMemoryStorage(),
		mqttPubSub,
		tracker,
		orchestrator.Config{
			DataDir:         cfg.DataDir,
			ChannelID:       cfg.ChannelID,
			MaxConcurrency:  cfg.MaxConcurrency,
			TrainingTimeout: cfg.TrainingTimeout,
		},
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(orchestratorSvcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to orchestrator channel: %s", err.Error())
	}

	hs := httpserver.NewServer(ctx, cancel, orchestratorSvcName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, orchestratorSvcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", orchestratorSvcName, err))
	}

	return nil
}

var (
	httpPort    = "7070"
	storageType = "memory"
)

var orchestratorCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start orchestrator",
		Long:  `Start orchestrator.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := OrchestratorConfig{
				LogLevel:        logLevel,
				InstanceID:      uuid.NewString(),
				MQTTAddress:     mqttAddress,
				MQTTQoS:         uint8(mqttQOS),
				MQTTTimeout:     mqttTimeout,
				ClientID:        clientID,
				ClientKey:       clientKey,
				ChannelID:       channelID,
				DataDir:         dataDir,
				MaxConcurrency:  orchestrator.DefaultMaxConcurrency,
				TrainingTimeout: orchestrator.DefaultTrainingTimeout,
				Storage: storage.Config{
					Type: storageType,
				},
				Server: server.Config{
					Port: httpPort,
				},
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := StartOrchestrator(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start orchestrator: %s", err.Error())
			}
			cancel()
		},
	},
}

func NewOrchestratorCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "orchestrator [start]",
		Short: "Orchestrator management",
		Long:  `Start orchestrator for Baseliner.`,
	}

	for i := range orchestratorCmd {
		cmd.AddCommand(&orchestratorCmd[i])
	}

	cmd.PersistentFlags().StringVarP(
		&logLevel,
		"log-level",
		"l",
		logLevel,
		"Log level",
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
		"Orchestrator Client ID",
	)

	cmd.PersistentFlags().StringVarP(
		&clientKey,
		"client-key",
		"k",
		clientKey,
		"Orchestrator Client Key",
	)

	cmd.PersistentFlags().StringVarP(
		&dataDir,
		"data-dir",
		"d",
		dataDir,
		"Dataset directory",
	)

	cmd.PersistentFlags().StringVarP(
		&httpPort,
		"http-port",
		"p",
		httpPort,
		"HTTP Port",
	)

	cmd.PersistentFlags().StringVarP(
		&storageType,
		"storage-type",
		"s",
		storageType,
		"Storage backend, memory, badger, sqlite or postgres",
	)

	return &cmd
}
