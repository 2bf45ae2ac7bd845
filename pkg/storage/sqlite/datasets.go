package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/absmach/baseliner/dataset"
)

type datasetRepo struct {
	db *Database
}

func NewDatasetRepository(db *Database) DatasetRepository {
	return &datasetRepo{db: db}
}

type dbDataset struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	Owner     *string      `db:"owner"`
	Path      string       `db:"path"`
	NRows     int64        `db:"n_rows"`
	NCols     int64        `db:"n_cols"`
	Profile   []byte       `db:"profile"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

const datasetColumns = `id, name, owner, path, n_rows, n_cols, profile, created_at, updated_at`

func (r *datasetRepo) Create(ctx context.Context, d dataset.Dataset) (dataset.Dataset, error) {
	query := `INSERT INTO datasets (` + datasetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	profile, err := jsonBytes(d.Profile)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Name,
		nullString(d.Owner),
		d.Path,
		int64(d.Rows), int64(d.Columns),
		profile,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return d, nil
}

func (r *datasetRepo) Get(ctx context.Context, id string) (dataset.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = ?`

	var dbd dbDataset

	if err := r.db.GetContext(ctx, &dbd, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dataset.Dataset{}, ErrDatasetNotFound
		}

		return dataset.Dataset{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return r.toDataset(dbd)
}

func (r *datasetRepo) Update(ctx context.Context, d dataset.Dataset) error {
	query := `UPDATE datasets SET
		name = ?, owner = ?, path = ?, n_rows = ?, n_cols = ?, profile = ?, updated_at = ?
		WHERE id = ?`

	profile, err := jsonBytes(d.Profile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	_, err = r.db.ExecContext(ctx, query,
		d.Name,
		nullString(d.Owner),
		d.Path,
		int64(d.Rows), int64(d.Columns),
		profile,
		d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *datasetRepo) List(ctx context.Context, offset, limit uint64) ([]dataset.Dataset, uint64, error) {
	var total uint64
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM datasets")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets ORDER BY created_at DESC LIMIT ? OFFSET ?`

	datasets, err := r.scanDatasets(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return datasets, total, nil
}

func (r *datasetRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM datasets WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func (r *datasetRepo) scanDatasets(ctx context.Context, query string, args ...any) ([]dataset.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	datasets := make([]dataset.Dataset, 0)
	for rows.Next() {
		var dbd dbDataset
		if err := rows.Scan(
			&dbd.ID, &dbd.Name, &dbd.Owner, &dbd.Path,
			&dbd.NRows, &dbd.NCols, &dbd.Profile,
			&dbd.CreatedAt, &dbd.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBScan, err)
		}

		d, err := r.toDataset(dbd)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBScan, err)
		}

		datasets = append(datasets, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return datasets, nil
}

func (r *datasetRepo) toDataset(dbd dbDataset) (dataset.Dataset, error) {
	d := dataset.Dataset{
		ID:        dbd.ID,
		Name:      dbd.Name,
		Path:      dbd.Path,
		Rows:      uint64(dbd.NRows),
		Columns:   uint64(dbd.NCols),
		CreatedAt: dbd.CreatedAt.Time,
		UpdatedAt: dbd.UpdatedAt.Time,
	}

	if dbd.Owner != nil {
		d.Owner = *dbd.Owner
	}
	if err := jsonUnmarshal(dbd.Profile, &d.Profile); err != nil {
		return dataset.Dataset{}, err
	}

	return d, nil
}
