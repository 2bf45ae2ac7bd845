package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
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
	*sqlx.DB
}

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_tables",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS datasets (
						id VARCHAR(36) PRIMARY KEY,
						name VARCHAR(255) NOT NULL,
						owner VARCHAR(255),
						path TEXT NOT NULL,
						n_rows BIGINT NOT NULL DEFAULT 0,
						n_cols BIGINT NOT NULL DEFAULT 0,
						profile JSONB,
						created_at TIMESTAMPTZ NOT NULL,
						updated_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC)`,
					`CREATE TABLE IF NOT EXISTS experiments (
						id VARCHAR(36) PRIMARY KEY,
						name VARCHAR(255) NOT NULL,
						owner VARCHAR(255),
						dataset_id VARCHAR(36) NOT NULL,
						target_column VARCHAR(255) NOT NULL,
						models JSONB,
						test_size DOUBLE PRECISION NOT NULL DEFAULT 0.2,
						column_config JSONB,
						preprocessing JSONB,
						resolved JSONB,
						state SMALLINT NOT NULL DEFAULT 0,
						error TEXT,
						runs JSONB,
						leaderboard JSONB,
						label_mapping JSONB,
						start_time TIMESTAMPTZ,
						finish_time TIMESTAMPTZ,
						created_at TIMESTAMPTZ NOT NULL,
						updated_at TIMESTAMPTZ NOT NULL,
						FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
					)`,
					`CREATE INDEX IF NOT EXISTS idx_experiments_dataset_id ON experiments(dataset_id)`,
					`CREATE INDEX IF NOT EXISTS idx_experiments_state ON experiments(state)`,
					`CREATE INDEX IF NOT EXISTS idx_experiments_created_at ON experiments(created_at DESC)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_experiments_created_at`,
					`DROP INDEX IF EXISTS idx_experiments_state`,
					`DROP INDEX IF EXISTS idx_experiments_dataset_id`,
					`DROP TABLE IF EXISTS experiments`,
					`DROP INDEX IF EXISTS idx_datasets_created_at`,
					`DROP TABLE IF EXISTS datasets`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}

func jsonBytes(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v any) error {
	if data == nil {
		return nil
	}

	return json.Unmarshal(data, v)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}
