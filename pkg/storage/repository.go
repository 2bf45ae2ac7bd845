package storage

import (
	"context"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
)

type DatasetRepository interface {
	Create(ctx context.Context, d dataset.Dataset) (dataset.Dataset, error)
	Get(ctx context.Context, id string) (dataset.Dataset, error)
	Update(ctx context.Context, d dataset.Dataset) error
	List(ctx context.Context, offset, limit uint64) ([]dataset.Dataset, uint64, error)
	Delete(ctx context.Context, id string) error
}

type ExperimentRepository interface {
	Create(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error)
	Get(ctx context.Context, id string) (experiment.Experiment, error)
	Update(ctx context.Context, e experiment.Experiment) error
	List(ctx context.Context, offset, limit uint64) ([]experiment.Experiment, uint64, error)
	ListByDataset(ctx context.Context, datasetID string) ([]experiment.Experiment, error)
	Delete(ctx context.Context, id string) error
}
