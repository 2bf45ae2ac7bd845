package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
	"github.com/absmach/baseliner/orchestrator"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/preprocessing"
	"github.com/absmach/baseliner/trainer"
)

// pollResults polls until the experiment reaches a terminal state and
// returns the final view plus every status observed on the way.
func pollResults(t *testing.T, svc orchestrator.Service, id string) (orchestrator.Results, []experiment.State) {
	t.Helper()

	var (
		res  orchestrator.Results
		seen []experiment.State
	)
	require.Eventually(t, func() bool {
		r, err := svc.GetResults(context.Background(), id)
		if err != nil {
			return false
		}
		res = r
		seen = append(seen, r.Status)

		return r.Status.Terminal()
	}, 10*time.Second, 5*time.Millisecond, "experiment never reached a terminal state")

	return res, seen
}

func assertMonotonic(t *testing.T, seen []experiment.State) {
	t.Helper()

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, uint8(seen[i]), uint8(seen[i-1]), "status moved backward: %s after %s", seen[i], seen[i-1])
	}
}

func collectRequests(t *testing.T, f *fakePubSub, n int) map[string]publishedRequest {
	t.Helper()

	out := make(map[string]publishedRequest, n)
	for i := 0; i < n; i++ {
		p := waitRequest(t, f)
		out[p.req.Model] = p
	}

	return out
}

func findRun(t *testing.T, runs []experiment.ModelRun, name string) experiment.ModelRun {
	t.Helper()

	for _, r := range runs {
		if r.Model == name {
			return r
		}
	}
	t.Fatalf("no run for model %s", name)

	return experiment.ModelRun{}
}

func TestExperimentLifecycle_AllModelsSucceed(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		Name:         "full-sweep",
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       model.Names(),
	})
	require.NoError(t, err)

	reqs := collectRequests(t, env.pubsub, 3)
	require.Len(t, reqs, 3)
	for name, p := range reqs {
		assert.Equal(t, fmt.Sprintf(trainer.TrainTopicTemplate, testChannelID), p.topic)
		assert.Equal(t, e.ID, p.req.ExperimentID)
		assert.Equal(t, d.ID, p.req.DatasetID)
		assert.Equal(t, d.Path, p.req.DatasetPath)
		assert.Equal(t, "churn", p.req.Target)
		assert.Equal(t, []string{"age", "income", "plan"}, p.req.Features)
		assert.Equal(t, orchestrator.DefaultTestSize, p.req.TestSize)
		assert.Equal(t, int64(preprocessing.DefaultSeed), p.req.Seed)
		if name == model.LogisticRegression {
			assert.Equal(t, experiment.ScalingStandard, p.req.Preprocessing.Scaling)
		} else {
			assert.Equal(t, experiment.ScalingNone, p.req.Preprocessing.Scaling, "tree models train on unscaled features")
		}
	}

	// All requests are out and nothing has reported back: polling now must
	// return a live status with an empty leaderboard, not an error.
	early, err := env.svc.GetResults(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, early.Status.Terminal())
	require.NotNil(t, early.Leaderboard)
	assert.Empty(t, early.Leaderboard)

	labels := []string{"no", "yes"}
	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.LogisticRegression,
		Accuracy: 0.91, Precision: 0.89, Recall: 0.9, F1: 0.9, TrainingTime: 1.0, Labels: labels,
	})
	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.RandomForest,
		Accuracy: 0.96, Precision: 0.95, Recall: 0.94, F1: 0.95, TrainingTime: 2.0, Labels: labels,
	})
	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.GradientBoosting,
		Accuracy: 0.95, Precision: 0.96, Recall: 0.94, F1: 0.95, TrainingTime: 1.5, Labels: labels,
	})

	res, seen := pollResults(t, env.svc, e.ID)
	assertMonotonic(t, append([]experiment.State{early.Status}, seen...))

	assert.Equal(t, experiment.Completed, res.Status)
	assert.Empty(t, res.Error)

	// Ties on F1 break by ascending training time.
	require.Len(t, res.Leaderboard, 3)
	assert.Equal(t, model.GradientBoosting, res.Leaderboard[0].Model)
	assert.Equal(t, model.RandomForest, res.Leaderboard[1].Model)
	assert.Equal(t, model.LogisticRegression, res.Leaderboard[2].Model)
	assert.Equal(t, 0.95, res.Leaderboard[0].F1)
	assert.Equal(t, 1.5, res.Leaderboard[0].TrainingTime)

	assert.Equal(t, map[string]string{"0": "no", "1": "yes"}, res.LabelMapping)
	require.Len(t, res.Runs, 3)
	for _, run := range res.Runs {
		assert.Equal(t, experiment.Completed, run.State)
		assert.False(t, run.FinishTime.IsZero())
	}

	stored, err := env.svc.GetExperiment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, experiment.Completed, stored.State)
	assert.False(t, stored.StartTime.IsZero())
	assert.False(t, stored.FinishTime.Before(stored.StartTime))

	records, err := env.tracker.List()
	require.NoError(t, err)
	require.Len(t, records, 3, "every leaderboard entry lands in the run log")
	for i, rec := range records {
		assert.Equal(t, res.Leaderboard[i].Model, rec.Model)
		assert.Equal(t, e.ID, rec.ExperimentID)
		assert.Equal(t, "full-sweep", rec.ExperimentName)
		assert.Equal(t, d.ID, rec.DatasetID)
	}
}

func TestExperimentLifecycle_PartialFailure(t *testing.T) {
	env := setupService(t, orchestrator.Config{TrainingTimeout: time.Second})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		Name:         "flaky",
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       model.Names(),
	})
	require.NoError(t, err)

	collectRequests(t, env.pubsub, 3)

	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.LogisticRegression,
		Accuracy: 0.8, Precision: 0.8, Recall: 0.8, F1: 0.8, TrainingTime: 1.0, Labels: []string{"no", "yes"},
	})
	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.RandomForest, Error: "trainer exploded",
	})
	// Gradient boosting never reports back and runs into the timeout.

	res, seen := pollResults(t, env.svc, e.ID)
	assertMonotonic(t, seen)

	assert.Equal(t, experiment.Completed, res.Status, "one successful model completes the experiment")
	assert.Empty(t, res.Error)
	require.Len(t, res.Leaderboard, 1)
	assert.Equal(t, model.LogisticRegression, res.Leaderboard[0].Model)

	assert.Equal(t, experiment.Completed, findRun(t, res.Runs, model.LogisticRegression).State)
	rf := findRun(t, res.Runs, model.RandomForest)
	assert.Equal(t, experiment.Failed, rf.State)
	assert.Equal(t, "trainer exploded", rf.Error)
	gb := findRun(t, res.Runs, model.GradientBoosting)
	assert.Equal(t, experiment.Failed, gb.State)
	assert.Equal(t, pkgerrors.ErrTrainingTimeout.Error(), gb.Error)

	records, err := env.tracker.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExperimentLifecycle_AllModelsFail(t *testing.T) {
	env := setupService(t, orchestrator.Config{TrainingTimeout: time.Second})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.LogisticRegression, model.RandomForest},
	})
	require.NoError(t, err)

	collectRequests(t, env.pubsub, 2)

	env.pubsub.deliverResult(t, trainer.TrainResult{ExperimentID: e.ID, Model: model.LogisticRegression, Error: "oom"})
	env.pubsub.deliverResult(t, trainer.TrainResult{ExperimentID: e.ID, Model: model.RandomForest, Error: "disk full"})

	res, seen := pollResults(t, env.svc, e.ID)
	assertMonotonic(t, seen)

	assert.Equal(t, experiment.Failed, res.Status)
	assert.Contains(t, res.Error, "all model runs failed")
	assert.Contains(t, res.Error, "oom")
	assert.Contains(t, res.Error, "disk full")
	require.NotNil(t, res.Leaderboard)
	assert.Empty(t, res.Leaderboard)

	records, err := env.tracker.List()
	require.NoError(t, err)
	assert.Empty(t, records, "failed experiments write no run log entries")
}

func TestDispatchPublishFailure(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	env.pubsub.setPublishErr(errors.New("broker down"))

	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.LogisticRegression, model.RandomForest},
	})
	require.NoError(t, err, "dispatch failures surface through results, not creation")

	res, _ := pollResults(t, env.svc, e.ID)

	assert.Equal(t, experiment.Failed, res.Status)
	assert.Contains(t, res.Error, "dispatch failed")
	assert.Contains(t, res.Error, "broker down")
	for _, run := range res.Runs {
		assert.Equal(t, experiment.Failed, run.State)
	}
}

func TestGetResults_NotFound(t *testing.T) {
	env := setupService(t, orchestrator.Config{})

	_, err := env.svc.GetResults(context.Background(), "no-such-experiment")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestDeleteExperiment_DiscardsLateResults(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.LogisticRegression},
	})
	require.NoError(t, err)
	waitRequest(t, env.pubsub)

	require.NoError(t, env.svc.DeleteExperiment(ctx, e.ID))

	_, err = env.svc.GetExperiment(ctx, e.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// The trainer finishes anyway; its result must be dropped on arrival.
	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.LogisticRegression, F1: 0.9, TrainingTime: 1.0,
	})

	page, err := env.svc.ListExperiments(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), page.Total, "late results never resurrect a deleted experiment")
}

func TestDeleteDataset_CascadesToExperiments(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()

	d := createDataset(t, env.svc)
	e, err := env.svc.CreateExperiment(ctx, experiment.Experiment{
		DatasetID:    d.ID,
		TargetColumn: "churn",
		Models:       []string{model.LogisticRegression},
	})
	require.NoError(t, err)
	waitRequest(t, env.pubsub)

	require.NoError(t, env.svc.DeleteDataset(ctx, d.ID))

	_, err = env.svc.GetExperiment(ctx, e.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound, "experiments go with their dataset")
	_, err = env.svc.GetDataset(ctx, d.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	env.pubsub.deliverResult(t, trainer.TrainResult{
		ExperimentID: e.ID, Model: model.LogisticRegression, F1: 0.9, TrainingTime: 1.0,
	})
}

func TestTrainerRegistry(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	ctx := context.Background()
	base := "channels/" + testChannelID + "/messages"

	require.NoError(t, env.pubsub.handle(t, base+"/control/trainer/create", map[string]any{"trainer_id": "trainer-1"}))

	data, err := env.trainers.Get(ctx, "trainer-1")
	require.NoError(t, err)
	tr, ok := data.(trainer.Trainer)
	require.True(t, ok)
	assert.Equal(t, "trainer-1", tr.ID)
	assert.NotEmpty(t, tr.Name)
	assert.True(t, tr.Alive)
	assert.Len(t, tr.AliveHistory, 1)

	// Trainers re-announce after reconnecting; that must not be an error.
	require.NoError(t, env.pubsub.handle(t, base+"/control/trainer/create", map[string]any{"trainer_id": "trainer-1"}))

	assert.Error(t, env.pubsub.handle(t, base+"/control/trainer/create", map[string]any{}))
	assert.Error(t, env.pubsub.handle(t, base+"/control/trainer/create", map[string]any{"trainer_id": ""}))

	require.NoError(t, env.pubsub.handle(t, base+"/control/trainer/alive", map[string]any{"trainer_id": "trainer-1"}))
	data, err = env.trainers.Get(ctx, "trainer-1")
	require.NoError(t, err)
	tr = data.(trainer.Trainer)
	assert.True(t, tr.Alive)
	assert.Len(t, tr.AliveHistory, 2)

	// The broker publishes the last will when a trainer drops.
	require.NoError(t, env.pubsub.handle(t, base+"/control/trainer/alive", map[string]any{"trainer_id": "trainer-1", "status": "offline"}))
	data, err = env.trainers.Get(ctx, "trainer-1")
	require.NoError(t, err)
	tr = data.(trainer.Trainer)
	assert.False(t, tr.Alive)

	require.NoError(t, env.pubsub.handle(t, base+"/control/trainer/alive", map[string]any{"trainer_id": "trainer-1"}))
	data, err = env.trainers.Get(ctx, "trainer-1")
	require.NoError(t, err)
	tr = data.(trainer.Trainer)
	assert.True(t, tr.Alive)

	err = env.pubsub.handle(t, base+"/control/trainer/alive", map[string]any{"trainer_id": "ghost"})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestHandleResult_Malformed(t *testing.T) {
	env := setupService(t, orchestrator.Config{})
	base := "channels/" + testChannelID + "/messages"

	assert.Error(t, env.pubsub.handle(t, base+"/control/trainer/results", map[string]any{"experiment_id": "e-1"}))
	assert.Error(t, env.pubsub.handle(t, base+"/control/trainer/results", map[string]any{"model": "logistic_regression"}))

	// A result no run is waiting on is discarded, not an error.
	assert.NoError(t, env.pubsub.handle(t, base+"/control/trainer/results", map[string]any{
		"experiment_id": "e-1", "model": "logistic_regression", "f1": 0.5,
	}))

	// Messages on unknown subtopics are ignored.
	assert.NoError(t, env.pubsub.handle(t, base+"/control/unrelated", map[string]any{}))
}
