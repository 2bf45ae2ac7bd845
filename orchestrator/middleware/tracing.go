package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/pkg/estimator"
)

var _ orchestrator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    orchestrator.Service
}

func Tracing(tracer trace.Tracer, svc orchestrator.Service) orchestrator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) CreateDataset(ctx context.Context, d dataset.Dataset, file []byte) (dataset.Dataset, error) {
	ctx, span := tm.tracer.Start(ctx, "create-dataset", trace.WithAttributes(
		attribute.String("name", d.Name),
		attribute.Int("file_size", len(file)),
	))
	defer span.End()

	return tm.svc.CreateDataset(ctx, d, file)
}

func (tm *tracing) GetDataset(ctx context.Context, id string) (dataset.Dataset, error) {
	ctx, span := tm.tracer.Start(ctx, "get-dataset", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetDataset(ctx, id)
}

func (tm *tracing) ListDatasets(ctx context.Context, offset, limit uint64) (dataset.DatasetPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-datasets", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListDatasets(ctx, offset, limit)
}

func (tm *tracing) DeleteDataset(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "delete-dataset", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.DeleteDataset(ctx, id)
}

func (tm *tracing) ProfileDataset(ctx context.Context, id string) (dataset.Profile, error) {
	ctx, span := tm.tracer.Start(ctx, "profile-dataset", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.ProfileDataset(ctx, id)
}

func (tm *tracing) SuggestColumns(ctx context.Context, id, target string) (orchestrator.Suggestion, error) {
	ctx, span := tm.tracer.Start(ctx, "suggest-columns", trace.WithAttributes(
		attribute.String("id", id),
		attribute.String("target_column", target),
	))
	defer span.End()

	return tm.svc.SuggestColumns(ctx, id, target)
}

func (tm *tracing) EstimateRuntime(ctx context.Context, id string, models []string) (estimator.Estimate, error) {
	ctx, span := tm.tracer.Start(ctx, "estimate-runtime", trace.WithAttributes(
		attribute.String("id", id),
		attribute.StringSlice("models", models),
	))
	defer span.End()

	return tm.svc.EstimateRuntime(ctx, id, models)
}

func (tm *tracing) CreateExperiment(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	ctx, span := tm.tracer.Start(ctx, "create-experiment", trace.WithAttributes(
		attribute.String("name", e.Name),
		attribute.String("dataset_id", e.DatasetID),
		attribute.String("target_column", e.TargetColumn),
		attribute.StringSlice("models", e.Models),
	))
	defer span.End()

	return tm.svc.CreateExperiment(ctx, e)
}

func (tm *tracing) GetExperiment(ctx context.Context, id string) (experiment.Experiment, error) {
	ctx, span := tm.tracer.Start(ctx, "get-experiment", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetExperiment(ctx, id)
}

func (tm *tracing) ListExperiments(ctx context.Context, offset, limit uint64) (experiment.ExperimentPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-experiments", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListExperiments(ctx, offset, limit)
}

func (tm *tracing) GetResults(ctx context.Context, id string) (orchestrator.Results, error) {
	ctx, span := tm.tracer.Start(ctx, "get-results", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetResults(ctx, id)
}

func (tm *tracing) DeleteExperiment(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "delete-experiment", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.DeleteExperiment(ctx, id)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
