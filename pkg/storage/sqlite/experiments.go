package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/absmach/baseliner/experiment"
)

type experimentRepo struct {
	db *Database
}

func NewExperimentRepository(db *Database) ExperimentRepository {
	return &experimentRepo{db: db}
}

type dbExperiment struct {
	ID            string        `db:"id"`
	Name          string        `db:"name"`
	Owner         *string       `db:"owner"`
	DatasetID     string        `db:"dataset_id"`
	TargetColumn  string        `db:"target_column"`
	Models        []byte        `db:"models"`
	TestSize      float64       `db:"test_size"`
	ColumnConfig  []byte        `db:"column_config"`
	Preprocessing []byte        `db:"preprocessing"`
	Resolved      []byte        `db:"resolved"`
	State         uint8         `db:"state"`
	Error         *string       `db:"error"`
	Runs          []byte        `db:"runs"`
	Leaderboard   []byte        `db:"leaderboard"`
	LabelMapping  []byte        `db:"label_mapping"`
	StartTime     *sql.NullTime `db:"start_time"`
	FinishTime    *sql.NullTime `db:"finish_time"`
	CreatedAt     sql.NullTime  `db:"created_at"`
	UpdatedAt     sql.NullTime  `db:"updated_at"`
}

const experimentColumns = `id, name, owner, dataset_id, target_column, models, test_size,
	column_config, preprocessing, resolved, state, error, runs, leaderboard, label_mapping,
	start_time, finish_time, created_at, updated_at`

func (r *experimentRepo) Create(ctx context.Context, e experiment.Experiment) (experiment.Experiment, error) {
	query := `INSERT INTO experiments (` + experimentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	fields, err := marshalExperimentFields(e)
	if err != nil {
		return experiment.Experiment{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Name,
		nullString(e.Owner),
		e.DatasetID, e.TargetColumn,
		fields.models,
		e.TestSize,
		fields.columnConfig,
		fields.preprocessing,
		fields.resolved,
		uint8(e.State),
		nullString(e.Error),
		fields.runs,
		fields.leaderboard,
		fields.labelMapping,
		nullTime(e.StartTime),
		nullTime(e.FinishTime),
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return experiment.Experiment{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return e, nil
}

func (r *experimentRepo) Get(ctx context.Context, id string) (experiment.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM experiments WHERE id = ?`

	var dbe dbExperiment

	if err := r.db.GetContext(ctx, &dbe, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return experiment.Experiment{}, ErrExperimentNotFound
		}

		return experiment.Experiment{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return r.toExperiment(dbe)
}

func (r *experimentRepo) Update(ctx context.Context, e experiment.Experiment) error {
	query := `UPDATE experiments SET
		name = ?, owner = ?, dataset_id = ?, target_column = ?, models = ?,
		test_size = ?, column_config = ?, preprocessing = ?, resolved = ?,
		state = ?, error = ?, runs = ?, leaderboard = ?, label_mapping = ?,
		start_time = ?, finish_time = ?, updated_at = ?
		WHERE id = ?`

	fields, err := marshalExperimentFields(e)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	_, err = r.db.ExecContext(ctx, query,
		e.Name,
		nullString(e.Owner),
		e.DatasetID, e.TargetColumn,
		fields.models,
		e.TestSize,
		fields.columnConfig,
		fields.preprocessing,
		fields.resolved,
		uint8(e.State),
		nullString(e.Error),
		fields.runs,
		fields.leaderboard,
		fields.labelMapping,
		nullTime(e.StartTime),
		nullTime(e.FinishTime),
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *experimentRepo) List(ctx context.Context, offset, limit uint64) ([]experiment.Experiment, uint64, error) {
	var total uint64
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM experiments")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT ` + experimentColumns + ` FROM experiments ORDER BY created_at DESC LIMIT ? OFFSET ?`

	experiments, err := r.scanExperiments(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return experiments, total, nil
}

func (r *experimentRepo) ListByDataset(ctx context.Context, datasetID string) ([]experiment.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM experiments WHERE dataset_id = ? ORDER BY created_at`

	return r.scanExperiments(ctx, query, datasetID)
}

func (r *experimentRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM experiments WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func (r *experimentRepo) scanExperiments(ctx context.Context, query string, args ...any) ([]experiment.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	experiments := make([]experiment.Experiment, 0)
	for rows.Next() {
		var dbe dbExperiment
		if err := rows.Scan(
			&dbe.ID, &dbe.Name, &dbe.Owner, &dbe.DatasetID, &dbe.TargetColumn,
			&dbe.Models, &dbe.TestSize, &dbe.ColumnConfig, &dbe.Preprocessing,
			&dbe.Resolved, &dbe.State, &dbe.Error, &dbe.Runs, &dbe.Leaderboard,
			&dbe.LabelMapping, &dbe.StartTime, &dbe.FinishTime,
			&dbe.CreatedAt, &dbe.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBScan, err)
		}

		e, err := r.toExperiment(dbe)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBScan, err)
		}

		experiments = append(experiments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return experiments, nil
}

type experimentFields struct {
	models        []byte
	columnConfig  []byte
	preprocessing []byte
	resolved      []byte
	runs          []byte
	leaderboard   []byte
	labelMapping  []byte
}

func marshalExperimentFields(e experiment.Experiment) (experimentFields, error) {
	var (
		f   experimentFields
		err error
	)

	if f.models, err = jsonBytes(e.Models); err != nil {
		return experimentFields{}, err
	}
	if f.columnConfig, err = jsonBytes(e.ColumnConfig); err != nil {
		return experimentFields{}, err
	}
	if f.preprocessing, err = jsonBytes(e.Preprocessing); err != nil {
		return experimentFields{}, err
	}
	if f.resolved, err = jsonBytes(e.Resolved); err != nil {
		return experimentFields{}, err
	}
	if f.runs, err = jsonBytes(e.Runs); err != nil {
		return experimentFields{}, err
	}
	if f.leaderboard, err = jsonBytes(e.Leaderboard); err != nil {
		return experimentFields{}, err
	}
	if f.labelMapping, err = jsonBytes(e.LabelMapping); err != nil {
		return experimentFields{}, err
	}

	return f, nil
}

func (r *experimentRepo) toExperiment(dbe dbExperiment) (experiment.Experiment, error) {
	e := experiment.Experiment{
		ID:           dbe.ID,
		Name:         dbe.Name,
		DatasetID:    dbe.DatasetID,
		TargetColumn: dbe.TargetColumn,
		TestSize:     dbe.TestSize,
		State:        experiment.State(dbe.State),
		CreatedAt:    dbe.CreatedAt.Time,
		UpdatedAt:    dbe.UpdatedAt.Time,
	}

	if dbe.Owner != nil {
		e.Owner = *dbe.Owner
	}
	if err := jsonUnmarshal(dbe.Models, &e.Models); err != nil {
		return experiment.Experiment{}, err
	}
	if err := jsonUnmarshal(dbe.ColumnConfig, &e.ColumnConfig); err != nil {
		return experiment.Experiment{}, err
	}
	if err := jsonUnmarshal(dbe.Preprocessing, &e.Preprocessing); err != nil {
		return experiment.Experiment{}, err
	}
	if err := jsonUnmarshal(dbe.Resolved, &e.Resolved); err != nil {
		return experiment.Experiment{}, err
	}
	if dbe.Error != nil {
		e.Error = *dbe.Error
	}
	if err := jsonUnmarshal(dbe.Runs, &e.Runs); err != nil {
		return experiment.Experiment{}, err
	}
	if err := jsonUnmarshal(dbe.Leaderboard, &e.Leaderboard); err != nil {
		return experiment.Experiment{}, err
	}
	if err := jsonUnmarshal(dbe.LabelMapping, &e.LabelMapping); err != nil {
		return experiment.Experiment{}, err
	}
	if dbe.StartTime != nil && dbe.StartTime.Valid {
		e.StartTime = dbe.StartTime.Time
	}
	if dbe.FinishTime != nil && dbe.FinishTime.Valid {
		e.FinishTime = dbe.FinishTime.Time
	}

	return e, nil
}
