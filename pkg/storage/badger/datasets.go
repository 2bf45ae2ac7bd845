package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/absmach/baseliner/dataset"
)

const datasetPrefix = "dataset:"

func datasetKey(id string) []byte {
	return []byte(datasetPrefix + id)
}

type datasetRepo struct {
	db *Database
}

func NewDatasetRepository(db *Database) DatasetRepository {
	return &datasetRepo{db: db}
}

func (r *datasetRepo) Create(_ context.Context, d dataset.Dataset) (dataset.Dataset, error) {
	val, err := json.Marshal(d)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.set(datasetKey(d.ID), val); err != nil {
		return dataset.Dataset{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return d, nil
}

func (r *datasetRepo) Get(_ context.Context, id string) (dataset.Dataset, error) {
	val, err := r.db.get(datasetKey(id))
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return dataset.Dataset{}, ErrDatasetNotFound
		}

		return dataset.Dataset{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var d dataset.Dataset
	if err := json.Unmarshal(val, &d); err != nil {
		return dataset.Dataset{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return d, nil
}

func (r *datasetRepo) Update(_ context.Context, d dataset.Dataset) error {
	val, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.update(datasetKey(d.ID), val); err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrDatasetNotFound
		}

		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *datasetRepo) List(_ context.Context, offset, limit uint64) ([]dataset.Dataset, uint64, error) {
	prefix := []byte(datasetPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	datasets := make([]dataset.Dataset, len(values))
	for i, val := range values {
		var d dataset.Dataset
		if err := json.Unmarshal(val, &d); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
		datasets[i] = d
	}

	return datasets, total, nil
}

func (r *datasetRepo) Delete(_ context.Context, id string) error {
	if err := r.db.delete(datasetKey(id)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
