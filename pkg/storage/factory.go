package storage

import (
	"fmt"
	"io"

	"github.com/absmach/baseliner/pkg/storage/badger"
	"github.com/absmach/baseliner/pkg/storage/postgres"
	"github.com/absmach/baseliner/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"STORAGE_TYPE" envDefault:"memory"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"baseliner.db"`

	PostgresHost    string `env:"POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER"    envDefault:"baseliner"`
	PostgresPass    string `env:"POSTGRES_PASS"    envDefault:"baseliner"`
	PostgresDB      string `env:"POSTGRES_DB"      envDefault:"baseliner"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

type Repositories struct {
	Datasets    DatasetRepository
	Experiments ExperimentRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		return newPostgresRepositories(cfg)
	case "sqlite":
		return newSQLiteRepositories(cfg)
	case "badger":
		return newBadgerRepositories(cfg)
	case "memory":
		return newMemoryRepositories()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func newBadgerRepositories(cfg Config) (*Repositories, error) {
	db, err := badger.NewDatabase(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	repos := badger.NewRepositories(db)

	return &Repositories{
		Datasets:    repos.Datasets,
		Experiments: repos.Experiments,
		Closer:      db,
	}, nil
}

func newPostgresRepositories(cfg Config) (*Repositories, error) {
	db, err := postgres.NewDatabase(
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPass,
		cfg.PostgresDB,
		cfg.PostgresSSLMode,
	)
	if err != nil {
		return nil, err
	}

	repos := postgres.NewRepositories(db)

	return &Repositories{
		Datasets:    repos.Datasets,
		Experiments: repos.Experiments,
		Closer:      db,
	}, nil
}

func newSQLiteRepositories(cfg Config) (*Repositories, error) {
	db, err := sqlite.NewDatabase(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	repos := sqlite.NewRepositories(db)

	return &Repositories{
		Datasets:    repos.Datasets,
		Experiments: repos.Experiments,
		Closer:      db,
	}, nil
}

func newMemoryRepositories() (*Repositories, error) {
	datasetStorage := NewInMemoryStorage()
	experimentStorage := NewInMemoryStorage()

	return &Repositories{
		Datasets:    newMemoryDatasetRepository(datasetStorage),
		Experiments: newMemoryExperimentRepository(experimentStorage),
	}, nil
}
