package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/pkg/classifier"
	"github.com/absmach/baseliner/pkg/metrics"
	pkgmqtt "github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/pkg/preprocessing"
	"github.com/absmach/baseliner/pkg/profiler"
	"github.com/absmach/baseliner/pkg/table"
)

type Service struct {
	channelID          string
	clientID           string
	dataDir            string
	livelinessInterval time.Duration
	pubsub             pkgmqtt.PubSub
	profiler           *profiler.Profiler
	logger             *slog.Logger
}

func NewService(ctx context.Context, cfg Config, pubsub pkgmqtt.PubSub, logger *slog.Logger) (*Service, error) {
	topic := fmt.Sprintf(DiscoveryTopicTemplate, cfg.ChannelID)
	payload := map[string]any{
		"trainer_id": cfg.ClientID,
		"channel_id": cfg.ChannelID,
	}
	if err := pubsub.Publish(ctx, topic, payload); err != nil {
		return nil, errors.Join(errors.New("failed to publish discovery"), err)
	}

	s := &Service{
		channelID:          cfg.ChannelID,
		clientID:           cfg.ClientID,
		dataDir:            cfg.DataDir,
		livelinessInterval: cfg.LivelinessInterval,
		pubsub:             pubsub,
		profiler:           profiler.New(profiler.Config{}),
		logger:             logger,
	}

	go s.startLivelinessUpdates(ctx)

	return s, nil
}

func (s *Service) startLivelinessUpdates(ctx context.Context) {
	ticker := time.NewTicker(s.livelinessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping liveliness updates")

			return
		case <-ticker.C:
			topic := fmt.Sprintf(aliveTopicTemplate, s.channelID)
			payload := map[string]any{
				"status":     "alive",
				"trainer_id": s.clientID,
				"channel_id": s.channelID,
			}

			if err := s.pubsub.Publish(ctx, topic, payload); err != nil {
				s.logger.Error("failed to publish liveliness message", slog.Any("error", err))
			}

			s.logger.Debug("Published liveliness message", slog.String("topic", topic))
		}
	}
}

func (s *Service) Run(ctx context.Context, logger *slog.Logger) error {
	topic := fmt.Sprintf(TrainTopicTemplate, s.channelID)
	if err := s.pubsub.Subscribe(ctx, topic, s.handleTrainRequest(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to training requests: %w", err)
	}

	logger.Info("Trainer service is running.")
	<-ctx.Done()

	return nil
}

func (s *Service) handleTrainRequest(ctx context.Context) pkgmqtt.Handler {
	return func(_ string, msg map[string]any) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}

		var req TrainRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}

		s.logger.Info("Received training request",
			slog.String("experiment_id", req.ExperimentID),
			slog.String("model", req.Model),
		)

		go func() {
			result := s.Train(ctx, req)

			topic := fmt.Sprintf(ResultsTopicTemplate, s.channelID)
			if err := s.pubsub.Publish(ctx, topic, result); err != nil {
				s.logger.Error("failed to publish training result",
					slog.String("experiment_id", req.ExperimentID),
					slog.String("model", req.Model),
					slog.Any("error", err),
				)
			}
		}()

		return nil
	}
}

// Train runs one model end to end: load, preprocess, fit, score. It never
// returns an error; failures come back as a TrainResult with Error set so
// the orchestrator can account for the run.
func (s *Service) Train(ctx context.Context, req TrainRequest) TrainResult {
	started := time.Now()

	tbl, err := table.Load(req.DatasetPath)
	if err != nil {
		return s.fail(req, started, fmt.Errorf("loading dataset: %w", err))
	}

	prof, err := s.profiler.Profile(tbl)
	if err != nil {
		return s.fail(req, started, fmt.Errorf("profiling dataset: %w", err))
	}

	splits, err := preprocessing.Build(tbl, prof, preprocessing.Options{
		Target:        req.Target,
		Features:      req.Features,
		Preprocessing: req.Preprocessing,
		TestSize:      req.TestSize,
		Seed:          req.Seed,
	})
	if err != nil {
		return s.fail(req, started, fmt.Errorf("preparing splits: %w", err))
	}

	opts := classifier.Options{
		Classes: len(splits.Labels),
		Seed:    req.Seed,
	}
	if req.Preprocessing.Balancing == experiment.BalancingClassWeight {
		opts.ClassWeights = preprocessing.ClassWeights(splits.YTrain, len(splits.Labels))
	}

	clf, err := classifier.New(req.Model, opts)
	if err != nil {
		return s.fail(req, started, err)
	}

	if err := clf.Fit(ctx, splits.XTrain, splits.YTrain); err != nil {
		return s.fail(req, started, fmt.Errorf("fitting %s: %w", req.Model, err))
	}

	report := metrics.Evaluate(splits.YTest, clf.Predict(splits.XTest), len(splits.Labels))

	return TrainResult{
		ExperimentID: req.ExperimentID,
		Model:        req.Model,
		Accuracy:     report.Accuracy,
		Precision:    report.Precision,
		Recall:       report.Recall,
		F1:           report.F1,
		TrainingTime: time.Since(started).Seconds(),
		Labels:       splits.Labels,
	}
}

func (s *Service) fail(req TrainRequest, started time.Time, err error) TrainResult {
	s.logger.Warn("training failed",
		slog.String("experiment_id", req.ExperimentID),
		slog.String("model", req.Model),
		slog.Any("error", err),
	)

	return TrainResult{
		ExperimentID: req.ExperimentID,
		Model:        req.Model,
		Error:        err.Error(),
		TrainingTime: time.Since(started).Seconds(),
	}
}
