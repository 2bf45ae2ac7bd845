package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/pkg/estimator"
)

var _ orchestrator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     orchestrator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc orchestrator.Service) orchestrator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) CreateDataset(ctx context.Context, d dataset.Dataset, file []byte) (dataset.Dataset, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-dataset").Add(1)
		mm.latency.With("method", "create-dataset").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateDataset(ctx, d, file)
}

func (mm *metricsMiddleware) GetDataset(ctx context.Context, id string) (dataset.Dataset, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-dataset").Add(1)
		mm.latency.With("method", "get-dataset").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetDataset(ctx, id)
}

func (mm *metricsMiddleware) ListDatasets(ctx context.Context, offset, limit uint64) (dataset.DatasetPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-datasets").Add(1)
		mm.latency.With("method", "list-datasets").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListDatasets(ctx, offset, limit)
}

func (mm *metricsMiddleware) DeleteDataset(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "delete-dataset").Add(1)
		mm.latency.With("method", "delete-dataset").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.DeleteDataset(ctx, id)
}

func (mm *metricsMiddleware) ProfileDataset(ctx context.Context, id string) (dataset.Profile, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "profile-dataset").Add(1)
		mm.latency.With("method", "profile-dataset").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ProfileDataset(ctx, id)
}

func (mm *metricsMiddleware) SuggestColumns(ctx context.Context, id, target string) (orchestrator.Suggestion, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "suggest-columns").Add(1)
		mm.latency.With("method", "suggest-columns").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SuggestColumns(ctx, id, target)
}

func (mm *metricsMiddleware) EstimateRuntime(ctx context.Context, id string, models []string) (estimator.Estimate, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "estimate-runtime").Add(1)
		mm.latency.With("method", "estimate-runtime").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.EstimateRuntime(ctx, id, models)
}

func (mm *metricsMiddleware) CreateExperiment(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-experiment").Add(1)
		mm.latency.With("method", "create-experiment").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateExperiment(ctx, e)
}

func (mm *metricsMiddleware) GetExperiment(ctx context.Context, id string) (experiment.Experiment, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-experiment").Add(1)
		mm.latency.With("method", "get-experiment").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetExperiment(ctx, id)
}

func (mm *metricsMiddleware) ListExperiments(ctx context.Context, offset, limit uint64) (experiment.ExperimentPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-experiments").Add(1)
		mm.latency.With("method", "list-experiments").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListExperiments(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetResults(ctx context.Context, id string) (orchestrator.Results, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-results").Add(1)
		mm.latency.With("method", "get-results").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetResults(ctx, id)
}

func (mm *metricsMiddleware) DeleteExperiment(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "delete-experiment").Add(1)
		mm.latency.With("method", "delete-experiment").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.DeleteExperiment(ctx, id)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
