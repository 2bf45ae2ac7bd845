package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/absmach/baseliner/experiment"
)

const experimentPrefix = "experiment:"

func experimentKey(id string) []byte {
	return []byte(experimentPrefix + id)
}

type experimentRepo struct {
	db *Database
}

func NewExperimentRepository(db *Database) ExperimentRepository {
	return &experimentRepo{db: db}
}

func (r *experimentRepo) Create(_ context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return experiment.Experiment{}, fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.set(experimentKey(e.ID), val); err != nil {
		return experiment.Experiment{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return e, nil
}

func (r *experimentRepo) Get(_ context.Context, id string) (experiment.Experiment, error) {
	val, err := r.db.get(experimentKey(id))
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return experiment.Experiment{}, ErrExperimentNotFound
		}

		return experiment.Experiment{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var e experiment.Experiment
	if err := json.Unmarshal(val, &e); err != nil {
		return experiment.Experiment{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return e, nil
}

func (r *experimentRepo) Update(_ context.Context, e experiment.Experiment) error {
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.update(experimentKey(e.ID), val); err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrExperimentNotFound
		}

		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *experimentRepo) List(_ context.Context, offset, limit uint64) ([]experiment.Experiment, uint64, error) {
	prefix := []byte(experimentPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	experiments := make([]experiment.Experiment, len(values))
	for i, val := range values {
		var e experiment.Experiment
		if err := json.Unmarshal(val, &e); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
		experiments[i] = e
	}

	return experiments, total, nil
}

func (r *experimentRepo) ListByDataset(ctx context.Context, datasetID string) ([]experiment.Experiment, error) {
	prefix := []byte(experimentPrefix)
	experiments := make([]experiment.Experiment, 0)

	err := r.db.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var e experiment.Experiment
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
			}

			if e.DatasetID == datasetID {
				experiments = append(experiments, e)
			}
		}

		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return experiments, nil
}

func (r *experimentRepo) Delete(_ context.Context, id string) error {
	if err := r.db.delete(experimentKey(id)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
