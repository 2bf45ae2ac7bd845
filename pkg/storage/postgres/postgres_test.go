package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/pkg/storage/postgres"
	"github.com/absmach/baseliner/pkg/storage/testutil"
)

var (
	testDB    *postgres.Database
	invalidID = "invalid-id-that-does-not-exist"
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16.2-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start container: %s", err)
	}

	port := container.GetPort("5432/tcp")

	pool.MaxWait = 120 * time.Second
	if err := pool.Retry(func() error {
		url := fmt.Sprintf("host=localhost port=%s user=test dbname=test password=test sslmode=disable", port)
		db, err := sql.Open("pgx", url)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	testDB, err = postgres.NewDatabase("localhost", port, "test", "test", "test", "disable")
	if err != nil {
		log.Fatalf("Could not setup test DB connection: %s", err)
	}

	code := m.Run()

	testDB.Close()
	if err := pool.Purge(container); err != nil {
		log.Fatalf("Could not purge container: %s", err)
	}

	os.Exit(code)
}

func TestDatasetRepository_Create(t *testing.T) {
	repo := postgres.NewDatasetRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	created, err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d.ID, created.ID)

	_, err = repo.Create(context.Background(), d)
	assert.Error(t, err, "duplicate ID must be rejected")

	bare := testutil.TestDataset(uuid.NewString())
	bare.Profile = nil
	_, err = repo.Create(context.Background(), bare)
	assert.NoError(t, err)
}

func TestDatasetRepository_Get(t *testing.T) {
	repo := postgres.NewDatasetRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := repo.Create(context.Background(), d)
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, d.Rows, got.Rows)
	require.NotNil(t, got.Profile)
	assert.Equal(t, d.Profile.ColumnTypes, got.Profile.ColumnTypes)
	assert.Equal(t, d.Profile.Cardinality, got.Profile.Cardinality)

	_, err = repo.Get(context.Background(), invalidID)
	assert.ErrorIs(t, err, postgres.ErrDatasetNotFound)
}

func TestDatasetRepository_Update(t *testing.T) {
	repo := postgres.NewDatasetRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := repo.Create(context.Background(), d)
	require.NoError(t, err)

	d.Name = "renamed"
	d.Rows = 200
	d.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(context.Background(), d))

	got, err := repo.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, uint64(200), got.Rows)
}

func TestDatasetRepository_List(t *testing.T) {
	repo := postgres.NewDatasetRepository(testDB)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), testutil.TestDataset(uuid.NewString()))
		require.NoError(t, err)
	}

	datasets, total, err := repo.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, datasets, 2)
	assert.GreaterOrEqual(t, total, uint64(3))
}

func TestDatasetRepository_Delete(t *testing.T) {
	repo := postgres.NewDatasetRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := repo.Create(context.Background(), d)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), d.ID))

	_, err = repo.Get(context.Background(), d.ID)
	assert.ErrorIs(t, err, postgres.ErrDatasetNotFound)
}

func TestExperimentRepository_Create(t *testing.T) {
	datasets := postgres.NewDatasetRepository(testDB)
	repo := postgres.NewExperimentRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := datasets.Create(context.Background(), d)
	require.NoError(t, err)

	e := testutil.TestExperiment(uuid.NewString(), d.ID)
	created, err := repo.Create(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, created.ID)

	orphan := testutil.TestExperiment(uuid.NewString(), invalidID)
	_, err = repo.Create(context.Background(), orphan)
	assert.Error(t, err, "experiment without parent dataset must be rejected")
}

func TestExperimentRepository_Get(t *testing.T) {
	datasets := postgres.NewDatasetRepository(testDB)
	repo := postgres.NewExperimentRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := datasets.Create(context.Background(), d)
	require.NoError(t, err)

	e := testutil.TestExperiment(uuid.NewString(), d.ID)
	_, err = repo.Create(context.Background(), e)
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.TargetColumn, got.TargetColumn)
	assert.Equal(t, e.Models, got.Models)
	assert.Equal(t, e.Preprocessing, got.Preprocessing)
	assert.Equal(t, experiment.Pending, got.State)

	_, err = repo.Get(context.Background(), invalidID)
	assert.ErrorIs(t, err, postgres.ErrExperimentNotFound)
}

func TestExperimentRepository_Update(t *testing.T) {
	datasets := postgres.NewDatasetRepository(testDB)
	repo := postgres.NewExperimentRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := datasets.Create(context.Background(), d)
	require.NoError(t, err)

	e := testutil.TestExperiment(uuid.NewString(), d.ID)
	_, err = repo.Create(context.Background(), e)
	require.NoError(t, err)

	e.State = experiment.Completed
	e.Leaderboard = []experiment.ModelResult{
		{Model: "random_forest", Accuracy: 0.95, Precision: 0.94, Recall: 0.93, F1: 0.94, TrainingTime: 1.2},
	}
	e.LabelMapping = map[string]string{"0": "setosa", "1": "versicolor"}
	e.StartTime = time.Now().Add(-time.Minute)
	e.FinishTime = time.Now()
	e.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(context.Background(), e))

	got, err := repo.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, experiment.Completed, got.State)
	require.Len(t, got.Leaderboard, 1)
	assert.Equal(t, "random_forest", got.Leaderboard[0].Model)
	assert.Equal(t, e.LabelMapping, got.LabelMapping)
	assert.False(t, got.StartTime.IsZero())
}

func TestExperimentRepository_ListByDataset(t *testing.T) {
	datasets := postgres.NewDatasetRepository(testDB)
	repo := postgres.NewExperimentRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := datasets.Create(context.Background(), d)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := repo.Create(context.Background(), testutil.TestExperiment(uuid.NewString(), d.ID))
		require.NoError(t, err)
	}

	experiments, err := repo.ListByDataset(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Len(t, experiments, 2)

	experiments, err = repo.ListByDataset(context.Background(), invalidID)
	require.NoError(t, err)
	assert.Empty(t, experiments)
}

func TestExperimentRepository_CascadeDelete(t *testing.T) {
	datasets := postgres.NewDatasetRepository(testDB)
	repo := postgres.NewExperimentRepository(testDB)

	d := testutil.TestDataset(uuid.NewString())
	_, err := datasets.Create(context.Background(), d)
	require.NoError(t, err)

	e := testutil.TestExperiment(uuid.NewString(), d.ID)
	_, err = repo.Create(context.Background(), e)
	require.NoError(t, err)

	require.NoError(t, datasets.Delete(context.Background(), d.ID))

	_, err = repo.Get(context.Background(), e.ID)
	assert.ErrorIs(t, err, postgres.ErrExperimentNotFound)
}
