package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/pkg/estimator"
)

var _ orchestrator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    orchestrator.Service
}

func Logging(logger *slog.Logger, svc orchestrator.Service) orchestrator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) CreateDataset(ctx context.Context, d dataset.Dataset, file []byte) (resp dataset.Dataset, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("name", d.Name),
				slog.String("id", resp.ID),
			),
			slog.Int("file_size", len(file)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create dataset failed", args...)

			return
		}
		lm.logger.Info("Create dataset completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateDataset(ctx, d, file)
}

func (lm *loggingMiddleware) GetDataset(ctx context.Context, id string) (resp dataset.Dataset, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get dataset failed", args...)

			return
		}
		lm.logger.Info("Get dataset completed successfully", args...)
	}(time.Now())

	return lm.svc.GetDataset(ctx, id)
}

func (lm *loggingMiddleware) ListDatasets(ctx context.Context, offset, limit uint64) (resp dataset.DatasetPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List datasets failed", args...)

			return
		}
		lm.logger.Info("List datasets completed successfully", args...)
	}(time.Now())

	return lm.svc.ListDatasets(ctx, offset, limit)
}

func (lm *loggingMiddleware) DeleteDataset(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Delete dataset failed", args...)

			return
		}
		lm.logger.Info("Delete dataset completed successfully", args...)
	}(time.Now())

	return lm.svc.DeleteDataset(ctx, id)
}

func (lm *loggingMiddleware) ProfileDataset(ctx context.Context, id string) (resp dataset.Profile, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Profile dataset failed", args...)

			return
		}
		lm.logger.Info("Profile dataset completed successfully", args...)
	}(time.Now())

	return lm.svc.ProfileDataset(ctx, id)
}

func (lm *loggingMiddleware) SuggestColumns(ctx context.Context, id, target string) (resp orchestrator.Suggestion, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("id", id),
				slog.String("target_column", target),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Suggest columns failed", args...)

			return
		}
		lm.logger.Info("Suggest columns completed successfully", args...)
	}(time.Now())

	return lm.svc.SuggestColumns(ctx, id, target)
}

func (lm *loggingMiddleware) EstimateRuntime(ctx context.Context, id string, models []string) (resp estimator.Estimate, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("dataset",
				slog.String("id", id),
			),
			slog.Any("models", models),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Estimate runtime failed", args...)

			return
		}
		lm.logger.Info("Estimate runtime completed successfully", args...)
	}(time.Now())

	return lm.svc.EstimateRuntime(ctx, id, models)
}

func (lm *loggingMiddleware) CreateExperiment(ctx context.Context, e experiment.Experiment) (resp experiment.Experiment, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("experiment",
				slog.String("name", e.Name),
				slog.String("id", resp.ID),
				slog.String("dataset_id", e.DatasetID),
				slog.String("target_column", e.TargetColumn),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create experiment failed", args...)

			return
		}
		lm.logger.Info("Create experiment completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateExperiment(ctx, e)
}

func (lm *loggingMiddleware) GetExperiment(ctx context.Context, id string) (resp experiment.Experiment, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("experiment",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get experiment failed", args...)

			return
		}
		lm.logger.Info("Get experiment completed successfully", args...)
	}(time.Now())

	return lm.svc.GetExperiment(ctx, id)
}

func (lm *loggingMiddleware) ListExperiments(ctx context.Context, offset, limit uint64) (resp experiment.ExperimentPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List experiments failed", args...)

			return
		}
		lm.logger.Info("List experiments completed successfully", args...)
	}(time.Now())

	return lm.svc.ListExperiments(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetResults(ctx context.Context, id string) (resp orchestrator.Results, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("experiment",
				slog.String("id", id),
				slog.String("status", resp.Status.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get results failed", args...)

			return
		}
		lm.logger.Info("Get results completed successfully", args...)
	}(time.Now())

	return lm.svc.GetResults(ctx, id)
}

func (lm *loggingMiddleware) DeleteExperiment(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("experiment",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Delete experiment failed", args...)

			return
		}
		lm.logger.Info("Delete experiment completed successfully", args...)
	}(time.Now())

	return lm.svc.DeleteExperiment(ctx, id)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe failed", args...)

			return
		}
		lm.logger.Info("Subscribe completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}
