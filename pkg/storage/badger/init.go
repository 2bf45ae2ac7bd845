// Package badger provides an embedded key-value backend for datasets and
// experiments. Records are stored as JSON values under per-entity key
// prefixes, which keeps the backend schema-free and portable across embedded
// deployments that cannot run a SQL server.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")

	// Not-found sentinels wrap pkgerrors.ErrNotFound so callers above the
	// storage layer can match on the generic sentinel.
	ErrDatasetNotFound    = fmt.Errorf("dataset %w", pkgerrors.ErrNotFound)
	ErrExperimentNotFound = fmt.Errorf("experiment %w", pkgerrors.ErrNotFound)
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

type Repositories struct {
	Datasets    DatasetRepository
	Experiments ExperimentRepository
}

func NewRepositories(db *Database) *Repositories {
	return &Repositories{
		Datasets:    NewDatasetRepository(db),
		Experiments: NewExperimentRepository(db),
	}
}

type Database struct {
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// get returns the raw value for key; a missing key surfaces as
// badger.ErrKeyNotFound for the repositories to translate.
func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		return nil, err
	}

	return val, nil
}

func (d *Database) set(key, val []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// update writes val only if key already exists, so concurrent deletes never
// resurrect a record.
func (d *Database) update(key, val []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}

		return txn.Set(key, val)
	})
}

func (d *Database) delete(key []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// listWithPrefix pages through values in key order, which for uuid keys is a
// stable but otherwise arbitrary order.
func (d *Database) listWithPrefix(prefix []byte, offset, limit uint64) ([][]byte, error) {
	var items [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = int(limit)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := uint64(0)
		count := uint64(0)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++

				continue
			}
			if count >= limit {
				break
			}

			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
			count++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, nil
}

func (d *Database) countWithPrefix(prefix []byte) (uint64, error) {
	count := uint64(0)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return count, nil
}
