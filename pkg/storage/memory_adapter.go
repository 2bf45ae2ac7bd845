package storage

import (
	"context"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

type memoryDatasetRepo struct {
	storage Storage
}

func newMemoryDatasetRepository(s Storage) DatasetRepository {
	return &memoryDatasetRepo{storage: s}
}

func (r *memoryDatasetRepo) Create(ctx context.Context, d dataset.Dataset) (dataset.Dataset, error) {
	if err := r.storage.Create(ctx, d.ID, d); err != nil {
		return dataset.Dataset{}, err
	}

	return d, nil
}

func (r *memoryDatasetRepo) Get(ctx context.Context, id string) (dataset.Dataset, error) {
	data, err := r.storage.Get(ctx, id)
	if err != nil {
		return dataset.Dataset{}, err
	}
	d, ok := data.(dataset.Dataset)
	if !ok {
		return dataset.Dataset{}, pkgerrors.ErrInvalidData
	}

	return d, nil
}

func (r *memoryDatasetRepo) Update(ctx context.Context, d dataset.Dataset) error {
	return r.storage.Update(ctx, d.ID, d)
}

func (r *memoryDatasetRepo) List(ctx context.Context, offset, limit uint64) ([]dataset.Dataset, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	datasets := make([]dataset.Dataset, len(data))
	for i, v := range data {
		d, ok := v.(dataset.Dataset)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		datasets[i] = d
	}

	return datasets, total, nil
}

func (r *memoryDatasetRepo) Delete(ctx context.Context, id string) error {
	return r.storage.Delete(ctx, id)
}

type memoryExperimentRepo struct {
	storage Storage
}

func newMemoryExperimentRepository(s Storage) ExperimentRepository {
	return &memoryExperimentRepo{storage: s}
}

func (r *memoryExperimentRepo) Create(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	if err := r.storage.Create(ctx, e.ID, e); err != nil {
		return experiment.Experiment{}, err
	}

	return e, nil
}

func (r *memoryExperimentRepo) Get(ctx context.Context, id string) (experiment.Experiment, error) {
	data, err := r.storage.Get(ctx, id)
	if err != nil {
		return experiment.Experiment{}, err
	}
	e, ok := data.(experiment.Experiment)
	if !ok {
		return experiment.Experiment{}, pkgerrors.ErrInvalidData
	}

	return e, nil
}

func (r *memoryExperimentRepo) Update(ctx context.Context, e experiment.Experiment) error {
	return r.storage.Update(ctx, e.ID, e)
}

func (r *memoryExperimentRepo) List(ctx context.Context, offset, limit uint64) ([]experiment.Experiment, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	experiments := make([]experiment.Experiment, len(data))
	for i, v := range data {
		e, ok := v.(experiment.Experiment)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		experiments[i] = e
	}

	return experiments, total, nil
}

func (r *memoryExperimentRepo) ListByDataset(ctx context.Context, datasetID string) ([]experiment.Experiment, error) {
	const pageSize = 1024

	var (
		scanOffset uint64
		filtered   []experiment.Experiment
	)

	for {
		data, total, err := r.storage.List(ctx, scanOffset, pageSize)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			break
		}

		for _, v := range data {
			e, ok := v.(experiment.Experiment)
			if !ok {
				return nil, pkgerrors.ErrInvalidData
			}
			if e.DatasetID == datasetID {
				filtered = append(filtered, e)
			}
		}

		scanOffset += uint64(len(data))
		if scanOffset >= total {
			break
		}
	}

	return filtered, nil
}

func (r *memoryExperimentRepo) Delete(ctx context.Context, id string) error {
	return r.storage.Delete(ctx, id)
}
