package badger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/storage/badger"
	"github.com/absmach/baseliner/pkg/storage/testutil"
)

var (
	testDB    *badger.Database
	invalidID = "invalid-id-that-does-not-exist"
)

func TestMain(m *testing.M) {
	dbPath := filepath.Join(os.TempDir(), "badger_test_"+uuid.NewString())

	var err error
	testDB, err = badger.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.RemoveAll(dbPath)

	os.Exit(code)
}

func TestDatasetRepository_Create(t *testing.T) {
	repo := badger.NewDatasetRepository(testDB)

	cases := []struct {
		desc    string
		dataset dataset.Dataset
		err     error
	}{
		{
			desc:    "create new dataset successfully",
			dataset: testutil.TestDataset(uuid.NewString()),
			err:     nil,
		},
		{
			desc: "create dataset with empty owner",
			dataset: func() dataset.Dataset {
				d := testutil.TestDataset(uuid.NewString())
				d.Owner = ""

				return d
			}(),
			err: nil,
		},
		{
			desc: "create dataset without profile",
			dataset: func() dataset.Dataset {
				d := testutil.TestDataset(uuid.NewString())
				d.Profile = nil

				return d
			}(),
			err: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, tc.dataset)
			assert.Equal(t, tc.err, err)
			if err == nil {
				assert.Equal(t, tc.dataset.ID, created.ID)
				assert.Equal(t, tc.dataset.Name, created.Name)

				repo.Delete(ctx, tc.dataset.ID)
			}
		})
	}
}

func TestDatasetRepository_Get(t *testing.T) {
	repo := badger.NewDatasetRepository(testDB)
	ctx := context.Background()

	testDataset := testutil.TestDataset(uuid.NewString())
	_, err := repo.Create(ctx, testDataset)
	require.Nil(t, err)
	defer repo.Delete(ctx, testDataset.ID)

	cases := []struct {
		desc      string
		datasetID string
		err       error
	}{
		{
			desc:      "get existing dataset",
			datasetID: testDataset.ID,
			err:       nil,
		},
		{
			desc:      "get non-existing dataset",
			datasetID: invalidID,
			err:       badger.ErrDatasetNotFound,
		},
		{
			desc:      "get with empty ID",
			datasetID: "",
			err:       badger.ErrDatasetNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			retrieved, err := repo.Get(ctx, tc.datasetID)
			assert.Equal(t, tc.err, err)
			if err == nil {
				assert.Equal(t, testDataset.ID, retrieved.ID)
				assert.Equal(t, testDataset.Rows, retrieved.Rows)
				require.NotNil(t, retrieved.Profile)
				assert.Equal(t, testDataset.Profile.ColumnTypes, retrieved.Profile.ColumnTypes)
			}
		})
	}

	// Not-found errors stay matchable on the shared sentinel.
	_, err = repo.Get(ctx, invalidID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestDatasetRepository_Update(t *testing.T) {
	repo := badger.NewDatasetRepository(testDB)
	ctx := context.Background()

	testDataset := testutil.TestDataset(uuid.NewString())
	_, err := repo.Create(ctx, testDataset)
	require.Nil(t, err)
	defer repo.Delete(ctx, testDataset.ID)

	cases := []struct {
		desc    string
		dataset dataset.Dataset
		err     error
	}{
		{
			desc: "update dataset name",
			dataset: func() dataset.Dataset {
				d := testDataset
				d.Name = "updated-name"
				d.UpdatedAt = time.Now()

				return d
			}(),
			err: nil,
		},
		{
			desc: "update dataset row count",
			dataset: func() dataset.Dataset {
				d := testDataset
				d.Rows = 300
				d.UpdatedAt = time.Now()

				return d
			}(),
			err: nil,
		},
		{
			desc: "update non-existing dataset",
			dataset: func() dataset.Dataset {
				d := testutil.TestDataset(invalidID)

				return d
			}(),
			err: badger.ErrDatasetNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := repo.Update(ctx, tc.dataset)
			assert.Equal(t, tc.err, err)
			if err == nil {
				retrieved, err := repo.Get(ctx, tc.dataset.ID)
				require.Nil(t, err)
				assert.Equal(t, tc.dataset.Name, retrieved.Name)
				assert.Equal(t, tc.dataset.Rows, retrieved.Rows)
			}
		})
	}
}

func TestDatasetRepository_List(t *testing.T) {
	repo := badger.NewDatasetRepository(testDB)
	ctx := context.Background()

	numDatasets := 5
	datasetIDs := make([]string, numDatasets)
	for i := 0; i < numDatasets; i++ {
		d := testutil.TestDataset(uuid.NewString())
		datasetIDs[i] = d.ID
		_, err := repo.Create(ctx, d)
		require.Nil(t, err)
	}
	defer func() {
		for _, id := range datasetIDs {
			repo.Delete(ctx, id)
		}
	}()

	cases := []struct {
		desc        string
		offset      uint64
		limit       uint64
		minExpected int
	}{
		{
			desc:        "list all datasets",
			offset:      0,
			limit:       10,
			minExpected: numDatasets,
		},
		{
			desc:        "list with limit",
			offset:      0,
			limit:       3,
			minExpected: 3,
		},
		{
			desc:        "list with offset",
			offset:      2,
			limit:       10,
			minExpected: 3,
		},
		{
			desc:        "list with large offset",
			offset:      100,
			limit:       10,
			minExpected: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			datasets, total, err := repo.List(ctx, tc.offset, tc.limit)
			assert.Nil(t, err)
			assert.GreaterOrEqual(t, int(total), numDatasets)
			assert.GreaterOrEqual(t, len(datasets), tc.minExpected)
			if tc.limit > 0 {
				assert.LessOrEqual(t, len(datasets), int(tc.limit))
			}
		})
	}
}

func TestDatasetRepository_Delete(t *testing.T) {
	repo := badger.NewDatasetRepository(testDB)
	ctx := context.Background()

	cases := []struct {
		desc  string
		setup func() string
		err   error
	}{
		{
			desc: "delete existing dataset",
			setup: func() string {
				d := testutil.TestDataset(uuid.NewString())
				_, err := repo.Create(ctx, d)
				require.Nil(t, err)

				return d.ID
			},
			err: nil,
		},
		{
			desc: "delete non-existing dataset",
			setup: func() string {
				return invalidID
			},
			err: nil, // badger deletes are idempotent
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			id := tc.setup()
			err := repo.Delete(ctx, id)
			assert.Equal(t, tc.err, err)
			if err == nil && id != invalidID {
				_, err := repo.Get(ctx, id)
				assert.Equal(t, badger.ErrDatasetNotFound, err)
			}
		})
	}
}

func TestExperimentRepository_CRUD(t *testing.T) {
	repo := badger.NewExperimentRepository(testDB)
	ctx := context.Background()

	exp := testutil.TestExperiment(uuid.NewString(), uuid.NewString())
	created, err := repo.Create(ctx, exp)
	require.Nil(t, err)
	assert.Equal(t, exp.ID, created.ID)
	defer repo.Delete(ctx, exp.ID)

	retrieved, err := repo.Get(ctx, exp.ID)
	require.Nil(t, err)
	assert.Equal(t, exp.TargetColumn, retrieved.TargetColumn)
	assert.Equal(t, exp.Models, retrieved.Models)
	assert.Equal(t, experiment.Pending, retrieved.State)

	// Per-model runs and results survive the round trip.
	exp.State = experiment.Completed
	exp.Runs = []experiment.ModelRun{
		{Model: exp.Models[0], State: experiment.Completed, StartTime: time.Now(), FinishTime: time.Now()},
		{Model: exp.Models[1], State: experiment.Failed, Error: "trainer exploded"},
	}
	exp.Leaderboard = []experiment.ModelResult{
		{Model: exp.Models[0], F1: 0.91, TrainingTime: 1.5},
	}
	exp.LabelMapping = map[string]string{"0": "setosa", "1": "versicolor"}
	require.Nil(t, repo.Update(ctx, exp))

	retrieved, err = repo.Get(ctx, exp.ID)
	require.Nil(t, err)
	assert.Equal(t, experiment.Completed, retrieved.State)
	require.Len(t, retrieved.Runs, 2)
	assert.Equal(t, "trainer exploded", retrieved.Runs[1].Error)
	require.Len(t, retrieved.Leaderboard, 1)
	assert.Equal(t, 0.91, retrieved.Leaderboard[0].F1)
	assert.Equal(t, "setosa", retrieved.LabelMapping["0"])

	_, err = repo.Get(ctx, invalidID)
	assert.Equal(t, badger.ErrExperimentNotFound, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	exp.ID = invalidID
	assert.Equal(t, badger.ErrExperimentNotFound, repo.Update(ctx, exp))
}

func TestExperimentRepository_ListByDataset(t *testing.T) {
	repo := badger.NewExperimentRepository(testDB)
	ctx := context.Background()

	datasetID := uuid.NewString()
	otherDatasetID := uuid.NewString()

	var ids []string
	for i := 0; i < 3; i++ {
		exp := testutil.TestExperiment(uuid.NewString(), datasetID)
		_, err := repo.Create(ctx, exp)
		require.Nil(t, err)
		ids = append(ids, exp.ID)
	}
	other := testutil.TestExperiment(uuid.NewString(), otherDatasetID)
	_, err := repo.Create(ctx, other)
	require.Nil(t, err)
	ids = append(ids, other.ID)
	defer func() {
		for _, id := range ids {
			repo.Delete(ctx, id)
		}
	}()

	matched, err := repo.ListByDataset(ctx, datasetID)
	require.Nil(t, err)
	assert.Len(t, matched, 3)
	for _, e := range matched {
		assert.Equal(t, datasetID, e.DatasetID)
	}

	matched, err = repo.ListByDataset(ctx, "no-such-dataset")
	require.Nil(t, err)
	assert.Empty(t, matched)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.ListByDataset(cancelled, datasetID)
	assert.ErrorIs(t, err, context.Canceled)
}
