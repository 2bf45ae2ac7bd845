package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/google/uuid"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
	"github.com/absmach/baseliner/pkg/advisor"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/estimator"
	"github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/pkg/preprocessing"
	"github.com/absmach/baseliner/pkg/profiler"
	"github.com/absmach/baseliner/pkg/storage"
	"github.com/absmach/baseliner/pkg/table"
	"github.com/absmach/baseliner/pkg/tracking"
)

type service struct {
	datasets    storage.DatasetRepository
	experiments storage.ExperimentRepository
	trainersDB  storage.Storage
	pubsub      mqtt.PubSub
	profiler    *profiler.Profiler
	advisor     *advisor.Advisor
	dispatcher  *dispatcher
	namegen     namegenerator.NameGenerator
	dataDir     string
	channelID   string
	logger      *slog.Logger
}

func NewService(datasets storage.DatasetRepository, experiments storage.ExperimentRepository, trainersDB storage.Storage, pubsub mqtt.PubSub, tracker *tracking.Tracker, cfg Config, logger *slog.Logger) Service {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	return &service{
		datasets:    datasets,
		experiments: experiments,
		trainersDB:  trainersDB,
		pubsub:      pubsub,
		profiler:    profiler.New(profiler.Config{}),
		advisor:     advisor.New(advisor.Config{}),
		dispatcher:  newDispatcher(experiments, pubsub, tracker, cfg.ChannelID, cfg.MaxConcurrency, cfg.TrainingTimeout, logger),
		namegen:     namegenerator.NewGenerator(),
		dataDir:     cfg.DataDir,
		channelID:   cfg.ChannelID,
		logger:      logger,
	}
}

func (svc *service) CreateDataset(ctx context.Context, d dataset.Dataset, file []byte) (dataset.Dataset, error) {
	tbl, err := table.Read(bytes.NewReader(file))
	if err != nil {
		return dataset.Dataset{}, err
	}
	prof, err := svc.profiler.Profile(tbl)
	if err != nil {
		return dataset.Dataset{}, err
	}

	d.ID = uuid.NewString()
	d.Rows = prof.Rows
	d.Columns = prof.Columns
	d.Profile = &prof
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	if err := os.MkdirAll(svc.dataDir, 0o755); err != nil {
		return dataset.Dataset{}, err
	}
	d.Path = filepath.Join(svc.dataDir, d.ID+".csv")
	if err := os.WriteFile(d.Path, file, 0o644); err != nil {
		return dataset.Dataset{}, err
	}

	stored, err := svc.datasets.Create(ctx, d)
	if err != nil {
		_ = os.Remove(d.Path)

		return dataset.Dataset{}, err
	}

	return stored, nil
}

func (svc *service) GetDataset(ctx context.Context, datasetID string) (dataset.Dataset, error) {
	return svc.datasets.Get(ctx, datasetID)
}

func (svc *service) ListDatasets(ctx context.Context, offset, limit uint64) (dataset.DatasetPage, error) {
	datasets, total, err := svc.datasets.List(ctx, offset, limit)
	if err != nil {
		return dataset.DatasetPage{}, err
	}

	return dataset.DatasetPage{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Datasets: datasets,
	}, nil
}

// DeleteDataset removes the dataset's experiments first, then its file, then
// the record. Running experiments are canceled on the way out.
func (svc *service) DeleteDataset(ctx context.Context, datasetID string) error {
	d, err := svc.datasets.Get(ctx, datasetID)
	if err != nil {
		return err
	}

	experiments, err := svc.experiments.ListByDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	for _, e := range experiments {
		if err := svc.DeleteExperiment(ctx, e.ID); err != nil {
			return err
		}
	}

	if d.Path != "" {
		if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
			svc.logger.WarnContext(ctx, "failed to remove dataset file",
				slog.String("dataset_id", datasetID),
				slog.String("path", d.Path),
				slog.Any("error", err))
		}
	}

	return svc.datasets.Delete(ctx, datasetID)
}

func (svc *service) ProfileDataset(ctx context.Context, datasetID string) (dataset.Profile, error) {
	d, err := svc.datasets.Get(ctx, datasetID)
	if err != nil {
		return dataset.Profile{}, err
	}

	return svc.profile(ctx, d)
}

func (svc *service) SuggestColumns(ctx context.Context, datasetID, targetColumn string) (Suggestion, error) {
	d, err := svc.datasets.Get(ctx, datasetID)
	if err != nil {
		return Suggestion{}, err
	}
	prof, err := svc.profile(ctx, d)
	if err != nil {
		return Suggestion{}, err
	}
	tbl, err := table.Load(d.Path)
	if err != nil {
		return Suggestion{}, err
	}

	cfg, notes, err := svc.advisor.Suggest(tbl, prof, targetColumn)
	if err != nil {
		return Suggestion{}, err
	}

	return Suggestion{Config: cfg, Notes: notes}, nil
}

func (svc *service) EstimateRuntime(ctx context.Context, datasetID string, models []string) (estimator.Estimate, error) {
	d, err := svc.datasets.Get(ctx, datasetID)
	if err != nil {
		return estimator.Estimate{}, err
	}
	prof, err := svc.profile(ctx, d)
	if err != nil {
		return estimator.Estimate{}, err
	}

	return estimator.EstimateRuntime(prof, models), nil
}

// CreateExperiment validates the request synchronously, stores the experiment
// pending and returns immediately. Training runs asynchronously; callers
// observe progress through GetResults.
func (svc *service) CreateExperiment(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	d, err := svc.datasets.Get(ctx, e.DatasetID)
	if err != nil {
		return experiment.Experiment{}, err
	}
	prof, err := svc.profile(ctx, d)
	if err != nil {
		return experiment.Experiment{}, err
	}

	if e, err = svc.validateExperiment(e, prof); err != nil {
		return experiment.Experiment{}, err
	}

	// A caller-supplied configuration is taken verbatim; an absent one is
	// filled from the advisor's recommendation.
	switch {
	case len(e.ColumnConfig.FeatureColumns) == 0 && e.ColumnConfig.Source != dataset.SourceUser:
		tbl, err := table.Load(d.Path)
		if err != nil {
			return experiment.Experiment{}, err
		}
		cfg, _, err := svc.advisor.Suggest(tbl, prof, e.TargetColumn)
		if err != nil {
			return experiment.Experiment{}, err
		}
		e.ColumnConfig = cfg
	case e.ColumnConfig.Source == "":
		e.ColumnConfig.Source = dataset.SourceUser
	}

	e.ID = uuid.NewString()
	e.State = experiment.Pending
	e.Error = ""
	e.Resolved = preprocessing.Resolve(e.Preprocessing, e.Models)
	e.Runs = make([]experiment.ModelRun, len(e.Models))
	for i, name := range e.Models {
		e.Runs[i] = experiment.ModelRun{Model: name, State: experiment.Pending}
	}
	e.Leaderboard = nil
	e.LabelMapping = nil
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt

	stored, err := svc.experiments.Create(ctx, e)
	if err != nil {
		return experiment.Experiment{}, err
	}

	svc.dispatcher.Dispatch(stored, d)

	return stored, nil
}

func (svc *service) GetExperiment(ctx context.Context, experimentID string) (experiment.Experiment, error) {
	return svc.experiments.Get(ctx, experimentID)
}

func (svc *service) ListExperiments(ctx context.Context, offset, limit uint64) (experiment.ExperimentPage, error) {
	experiments, total, err := svc.experiments.List(ctx, offset, limit)
	if err != nil {
		return experiment.ExperimentPage{}, err
	}

	return experiment.ExperimentPage{
		Offset:      offset,
		Limit:       limit,
		Total:       total,
		Experiments: experiments,
	}, nil
}

func (svc *service) GetResults(ctx context.Context, experimentID string) (Results, error) {
	e, err := svc.experiments.Get(ctx, experimentID)
	if err != nil {
		return Results{}, err
	}

	leaderboard := e.Leaderboard
	if leaderboard == nil {
		leaderboard = []experiment.ModelResult{}
	}

	return Results{
		ExperimentID: e.ID,
		Status:       e.State,
		Error:        e.Error,
		LabelMapping: e.LabelMapping,
		Leaderboard:  leaderboard,
		Runs:         e.Runs,
		Resolved:     e.Resolved,
	}, nil
}

// DeleteExperiment cancels a running experiment before removing its record.
// In-flight results arriving after cancellation are discarded on arrival.
func (svc *service) DeleteExperiment(ctx context.Context, experimentID string) error {
	e, err := svc.experiments.Get(ctx, experimentID)
	if err != nil {
		return err
	}
	if !e.State.Terminal() {
		svc.dispatcher.cancel(experimentID)
	}

	return svc.experiments.Delete(ctx, experimentID)
}

func (svc *service) validateExperiment(e experiment.Experiment, prof dataset.Profile) (experiment.Experiment, error) {
	if !prof.HasColumn(e.TargetColumn) {
		return e, pkgerrors.NewValidation("target_column", fmt.Sprintf("column %q not present in dataset", e.TargetColumn))
	}

	if len(e.Models) == 0 {
		return e, pkgerrors.NewValidation("models", "at least one model is required")
	}
	seen := make(map[string]bool, len(e.Models))
	for _, name := range e.Models {
		if _, err := model.Lookup(name); err != nil {
			return e, pkgerrors.NewValidation("models", fmt.Sprintf("unknown model %q", name))
		}
		if seen[name] {
			return e, pkgerrors.NewValidation("models", fmt.Sprintf("duplicate model %q", name))
		}
		seen[name] = true
	}

	switch {
	case e.TestSize == 0:
		e.TestSize = DefaultTestSize
	case e.TestSize < minTestSize || e.TestSize > maxTestSize:
		return e, pkgerrors.NewValidation("test_size", fmt.Sprintf("must be between %g and %g", minTestSize, maxTestSize))
	}

	for _, name := range append(append([]string{}, e.ColumnConfig.IgnoreColumns...), e.ColumnConfig.FeatureColumns...) {
		if name == e.TargetColumn {
			return e, pkgerrors.NewValidation("column_config", "target column belongs in neither the ignore nor the feature set")
		}
		if !prof.HasColumn(name) {
			return e, pkgerrors.NewValidation("column_config", fmt.Sprintf("unknown column %q", name))
		}
	}
	if both := e.ColumnConfig.Overlap(); len(both) > 0 {
		return e, pkgerrors.NewValidation("column_config", fmt.Sprintf("column %q is both ignored and a feature", both[0]))
	}

	if e.Preprocessing == (experiment.Preprocessing{}) {
		e.Preprocessing = experiment.Preprocessing{
			Scaling:   experiment.ScalingStandard,
			Balancing: experiment.BalancingNone,
		}
	}
	if err := e.Preprocessing.Validate(); err != nil {
		return e, pkgerrors.NewValidation("preprocessing", err.Error())
	}

	return e, nil
}

// profile returns the dataset's stored profile, recomputing and persisting it
// from the source file when the stored record carries none.
func (svc *service) profile(ctx context.Context, d dataset.Dataset) (dataset.Profile, error) {
	if d.Profile != nil {
		return *d.Profile, nil
	}

	tbl, err := table.Load(d.Path)
	if err != nil {
		return dataset.Profile{}, err
	}
	prof, err := svc.profiler.Profile(tbl)
	if err != nil {
		return dataset.Profile{}, err
	}

	d.Profile = &prof
	d.UpdatedAt = time.Now()
	if err := svc.datasets.Update(ctx, d); err != nil {
		svc.logger.WarnContext(ctx, "failed to store recomputed profile",
			slog.String("dataset_id", d.ID),
			slog.Any("error", err))
	}

	return prof, nil
}
