package orchestrator

import (
	"context"
	"time"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/pkg/estimator"
)

const (
	// DefaultTestSize is the held-out fraction used when a request leaves
	// test_size unset.
	DefaultTestSize = 0.2
	// DefaultMaxConcurrency bounds per-experiment parallel training dispatches.
	DefaultMaxConcurrency = 3
	// DefaultTrainingTimeout is the per-model wait ceiling. A model that does
	// not report back within it is recorded as failed, never retried.
	DefaultTrainingTimeout = 5 * time.Minute

	minTestSize = 0.1
	maxTestSize = 0.5
)

type Service interface {
	CreateDataset(ctx context.Context, d dataset.Dataset, file []byte) (dataset.Dataset, error)
	GetDataset(ctx context.Context, datasetID string) (dataset.Dataset, error)
	ListDatasets(ctx context.Context, offset, limit uint64) (dataset.DatasetPage, error)
	DeleteDataset(ctx context.Context, datasetID string) error
	ProfileDataset(ctx context.Context, datasetID string) (dataset.Profile, error)
	SuggestColumns(ctx context.Context, datasetID, targetColumn string) (Suggestion, error)
	EstimateRuntime(ctx context.Context, datasetID string, models []string) (estimator.Estimate, error)

	CreateExperiment(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error)
	GetExperiment(ctx context.Context, experimentID string) (experiment.Experiment, error)
	ListExperiments(ctx context.Context, offset, limit uint64) (experiment.ExperimentPage, error)
	GetResults(ctx context.Context, experimentID string) (Results, error)
	DeleteExperiment(ctx context.Context, experimentID string) error

	Subscribe(ctx context.Context) error
}

// Suggestion is the advisor's recommended column split plus one note per
// flagged column.
type Suggestion struct {
	Config dataset.ColumnConfig `json:"column_config"`
	Notes  map[string]string    `json:"notes,omitempty"`
}

// Results is the polling view of one experiment. Non-terminal experiments
// report their current status and an empty leaderboard; that is the contract,
// not an error.
type Results struct {
	ExperimentID string                          `json:"experiment_id"`
	Status       experiment.State                `json:"status"`
	Error        string                          `json:"error,omitempty"`
	LabelMapping map[string]string               `json:"label_mapping,omitempty"`
	Leaderboard  []experiment.ModelResult        `json:"leaderboard"`
	Runs         []experiment.ModelRun           `json:"runs,omitempty"`
	Resolved     []experiment.ModelPreprocessing `json:"resolved,omitempty"`
}

// Config carries the orchestration settings the daemon resolves from its
// environment. Zero values fall back to the package defaults.
type Config struct {
	DataDir         string
	ChannelID       string
	MaxConcurrency  int
	TrainingTimeout time.Duration
}
