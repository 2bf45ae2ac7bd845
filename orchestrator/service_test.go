package orchestrator_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
	"github.com/absmach/baseliner/orchestrator"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/pkg/storage"
	"github.com/absmach/baseliner/pkg/tracking"
	"github.com/absmach/baseliner/trainer"
)

const testChannelID = "channel-1"

type publishedRequest struct {
	topic string
	req   trainer.TrainRequest
}

// fakePubSub stands in for the broker: it captures dispatched training
// requests and hands the subscribed handler back to the test, which plays
// the trainer's side of the conversation.
type fakePubSub struct {
	mu         sync.Mutex
	handler    mqtt.Handler
	topics     []string
	requests   []trainer.TrainRequest
	publishErr error

	published chan publishedRequest
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{published: make(chan publishedRequest, 16)}
}

func (f *fakePubSub) Publish(_ context.Context, topic string, msg any) error {
	f.mu.Lock()
	err := f.publishErr
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if req, ok := msg.(trainer.TrainRequest); ok {
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		f.published <- publishedRequest{topic: topic, req: req}
	}

	return nil
}

func (f *fakePubSub) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.handler = handler

	return nil
}

func (f *fakePubSub) Unsubscribe(context.Context, string) error { return nil }

func (f *fakePubSub) Disconnect(context.Context) error { return nil }

func (f *fakePubSub) setPublishErr(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

func (f *fakePubSub) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// handle feeds one broker message to the orchestrator's subscription.
func (f *fakePubSub) handle(t *testing.T, topic string, msg map[string]any) error {
	t.Helper()

	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	require.NotNil(t, h, "service is not subscribed")

	return h(topic, msg)
}

// deliverResult plays a trainer publishing a result on the channel.
func (f *fakePubSub) deliverResult(t *testing.T, res trainer.TrainResult) {
	t.Helper()

	payload, err := json.Marshal(res)
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(payload, &msg))

	topic := fmt.Sprintf(trainer.ResultsTopicTemplate, testChannelID)
	require.NoError(t, f.handle(t, topic, msg))
}

func waitRequest(t *testing.T, f *fakePubSub) publishedRequest {
	t.Helper()

	select {
	case p := <-f.published:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a training dispatch")
	}

	return publishedRequest{}
}

type testEnv struct {
	svc      orchestrator.Service
	pubsub   *fakePubSub
	repos    *storage.Repositories
	trainers storage.Storage
	tracker  *tracking.Tracker
	dataDir  string
}

func setupService(t *testing.T, cfg orchestrator.Config) testEnv {
	t.Helper()

	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.NoError(t, err)
	tracker, err := tracking.New(t.TempDir())
	require.NoError(t, err)

	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	cfg.ChannelID = testChannelID

	pubsub := newFakePubSub()
	trainers := storage.NewInMemoryStorage()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := orchestrator.NewService(repos.Datasets, repos.Experiments, trainers, pubsub, tracker, cfg, logger)
	require.NoError(t, svc.Subscribe(context.Background()))

	return testEnv{
		svc:      svc,
		pubsub:   pubsub,
		repos:    repos,
		trainers: trainers,
		tracker:  tracker,
		dataDir:  cfg.DataDir,
	}
}

// serviceCSV builds a 40-row customer table: a numeric identifier the
// advisor must drop, three usable features and a balanced binary target.
func serviceCSV() []byte {
	var b strings.Builder
	b.WriteString("id,age,income,plan,churn\n")
	for i := 0; i < 40; i++ {
		plan := "basic"
		if i%4 == 0 {
			plan = "pro"
		}
		churn := "no"
		if i%2 == 1 {
			churn = "yes"
		}
		fmt.Fprintf(&b, "%d,%d,%d,%s,%s\n", i, 18+i%23, (i%8)*10+5, plan, churn)
	}

	return []byte(b.String())
}

func createDataset(t *testing.T, svc orchestrator.Service) dataset.Dataset {
	t.Helper()

	d, err := svc.CreateDataset(context.Background(), dataset.Dataset{Name: "customers", Owner: "qa"}, serviceCSV())
	require.NoError(t, err)

	return d
}

func TestCreateDataset(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "customers", d.Name)
	assert.Equal(t, uint64(40), d.Rows)
	assert.Equal(t, uint64(5), d.Columns)
	require.NotNil(t, d.Profile)
	assert.Equal(t, dataset.Numeric, d.Profile.ColumnTypes["age"])
	assert.Equal(t, dataset.Categorical, d.Profile.ColumnTypes["churn"])
	assert.False(t, d.CreatedAt.IsZero())

	_, err := os.Stat(d.Path)
	require.NoError(t, err, "the uploaded file is kept on disk")

	stored, err := env.svc.GetDataset(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, stored.ID)
	assert.Equal(t, d.Path, stored.Path)
}

func TestCreateDataset_InvalidCSV(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	cases := []struct {
		desc string
		file []byte
	}{
		{desc: "empty file", file: []byte("")},
		{desc: "header only", file: []byte("a,b\n")},
		{desc: "ragged row", file: []byte("a,b\n1,2\n3\n")},
		{desc: "duplicate header", file: []byte("a,a\n1,2\n")},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := env.svc.CreateDataset(ctx, dataset.Dataset{Name: "bad"}, tc.file)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidDataset)
		})
	}

	page, err := env.svc.ListDatasets(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), page.Total, "rejected uploads leave nothing behind")
}

func TestGetDataset_NotFound(t *testing.T) {
	env := setupService(t, orchestrator.Config{})

	_, err := env.svc.GetDataset(context.Background(), "no-such-dataset")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestListDatasets(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.CreateDataset(ctx, dataset.Dataset{Name: fmt.Sprintf("d-%d", i)}, serviceCSV())
		require.NoError(t, err)
	}

	page, err := env.svc.ListDatasets(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	assert.Len(t, page.Datasets, 3)

	page, err = env.svc.ListDatasets(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	assert.Len(t, page.Datasets, 1)
	assert.Equal(t, uint64(1), page.Offset)
	assert.Equal(t, uint64(1), page.Limit)
}

func TestDeleteDataset(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	require.NoError(t, env.svc.DeleteDataset(ctx, d.ID))

	_, err := env.svc.GetDataset(ctx, d.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	_, err = os.Stat(d.Path)
	assert.True(t, os.IsNotExist(err), "the dataset file is removed with the record")

	assert.ErrorIs(t, env.svc.DeleteDataset(ctx, d.ID), pkgerrors.ErrNotFound)
}

func TestProfileDataset(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	prof, err := env.svc.ProfileDataset(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, *d.Profile, prof)

	// Records written before profiling existed carry no profile; the
	// service recomputes it from the source file and stores it back.
	stripped := d
	stripped.Profile = nil
	require.NoError(t, env.repos.Datasets.Update(ctx, stripped))

	prof, err = env.svc.ProfileDataset(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, *d.Profile, prof)

	stored, err := env.repos.Datasets.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.Profile, "the recomputed profile is persisted")
}

func TestSuggestColumns(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	s, err := env.svc.SuggestColumns(ctx, d.ID, "churn")
	require.NoError(t, err)

	assert.Equal(t, dataset.SourceAuto, s.Config.Source)
	assert.Equal(t, []string{"age", "income", "plan"}, s.Config.FeatureColumns)
	assert.Equal(t, []string{"id"}, s.Config.IgnoreColumns)
	assert.Equal(t, "looks like a unique identifier", s.Notes["id"])
	assert.NotContains(t, s.Config.FeatureColumns, "churn")
	assert.NotContains(t, s.Config.IgnoreColumns, "churn")

	_, err = env.svc.SuggestColumns(ctx, d.ID, "no-such-column")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownColumn)

	_, err = env.svc.SuggestColumns(ctx, "no-such-dataset", "churn")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestEstimateRuntime(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	est, err := env.svc.EstimateRuntime(ctx, d.ID, model.Names())
	require.NoError(t, err)
	assert.Len(t, est.PerModel, 3)
	assert.NotEmpty(t, est.Overall)
	assert.Equal(t, uint64(40), est.Factors.Rows)

	_, err = env.svc.EstimateRuntime(ctx, "no-such-dataset", model.Names())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestCreateExperiment_AdvisorConfig(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		Name:         "baseline",
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.LogisticRegression},
	})
	require.NoError(t, err)
	defer func() { _ = env.svc.DeleteExperiment(ctx, e.ID) }()

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, experiment.Pending, e.State)
	assert.Equal(t, orchestrator.DefaultTestSize, e.TestSize)
	assert.Equal(t, dataset.SourceAuto, e.ColumnConfig.Source)
	assert.Equal(t, []string{"age", "income", "plan"}, e.ColumnConfig.FeatureColumns)
	assert.Equal(t, []string{"id"}, e.ColumnConfig.IgnoreColumns)
	assert.Equal(t, experiment.ScalingStandard, e.Preprocessing.Scaling, "unset preprocessing defaults to standard scaling")
	require.Len(t, e.Resolved, 1)
	require.Len(t, e.Runs, 1)
	assert.Equal(t, experiment.Pending, e.Runs[0].State)
}

func TestCreateExperiment_UserConfigVerbatim(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	// The user keeps the identifier on purpose; the advisor must not
	// second-guess an explicit configuration.
	cfg := dataset.ColumnConfig{
		FeatureColumns: []string{"id", "age"},
		IgnoreColumns:  []string{"income", "plan"},
		Source:         dataset.SourceUser,
	}
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		Name:         "manual",
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.RandomForest},
		ColumnConfig: cfg,
	})
	require.NoError(t, err)
	defer func() { _ = env.svc.DeleteExperiment(ctx, e.ID) }()

	assert.Equal(t, cfg, e.ColumnConfig)

	p := waitRequest(t, env.pubsub)
	assert.Equal(t, []string{"id", "age"}, p.req.Features)
	assert.Equal(t, []string{"income", "plan"}, p.req.Ignore)
}

func TestCreateExperiment_Validation(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)

	cases := []struct {
		desc  string
		e     experiment.Experiment
		field string
	}{
		{
			desc:  "unknown target column",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "label", Models: model.Names()},
			field: "target_column",
		},
		{
			desc:  "no models",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "churn"},
			field: "models",
		},
		{
			desc:  "unknown model",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "churn", Models: []string{"svm"}},
			field: "models",
		},
		{
			desc:  "duplicate model",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "churn", Models: []string{model.RandomForest, model.RandomForest}},
			field: "models",
		},
		{
			desc:  "test size too small",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(), TestSize: 0.05},
			field: "test_size",
		},
		{
			desc:  "test size too large",
			e:     experiment.Experiment{DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(), TestSize: 0.6},
			field: "test_size",
		},
		{
			desc: "target listed as feature",
			e: experiment.Experiment{
				DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(),
				ColumnConfig: dataset.ColumnConfig{FeatureColumns: []string{"churn"}, Source: dataset.SourceUser},
			},
			field: "column_config",
		},
		{
			desc: "unknown column in config",
			e: experiment.Experiment{
				DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(),
				ColumnConfig: dataset.ColumnConfig{FeatureColumns: []string{"zip_code"}, Source: dataset.SourceUser},
			},
			field: "column_config",
		},
		{
			desc: "column both ignored and feature",
			e: experiment.Experiment{
				DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(),
				ColumnConfig: dataset.ColumnConfig{
					FeatureColumns: []string{"age", "income"},
					IgnoreColumns:  []string{"income"},
					Source:         dataset.SourceUser,
				},
			},
			field: "column_config",
		},
		{
			desc: "invalid preprocessing",
			e: experiment.Experiment{
				DatasetID: d.ID, TargetColumn: "churn", Models: model.Names(),
				Preprocessing: experiment.Preprocessing{Scaling: "log", Balancing: experiment.BalancingNone},
			},
			field: "preprocessing",
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := env.svc.CreateExperiment(ctx, tc.e)
			var ve pkgerrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	_, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		DatasetID: "no-such-dataset", TargetColumn: "churn", Models: model.Names(),
	})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	page, err := env.svc.ListExperiments(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), page.Total, "rejected experiments are never stored")
	assert.Zero(t, env.pubsub.publishedCount(), "rejected experiments dispatch no training")
}
