package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/mqtt"
	"github.com/absmach/baseliner/pkg/preprocessing"
	"github.com/absmach/baseliner/pkg/storage"
	"github.com/absmach/baseliner/pkg/tracking"
	"github.com/absmach/baseliner/trainer"
)

// runKey correlates a training result with the run waiting on it. Results may
// arrive in any order; the key is what routes them.
type runKey struct {
	experimentID string
	model        string
}

// dispatcher runs experiments. Each experiment gets its own goroutine and
// context; within it, model runs go through an errgroup bounded by the
// configured concurrency. Experiments never share mutable state.
type dispatcher struct {
	experiments storage.ExperimentRepository
	pubsub      mqtt.PubSub
	tracker     *tracking.Tracker
	channelID   string
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[runKey]chan trainer.TrainResult
	cancels map[string]context.CancelFunc
}

func newDispatcher(experiments storage.ExperimentRepository, pubsub mqtt.PubSub, tracker *tracking.Tracker, channelID string, concurrency int, timeout time.Duration, logger *slog.Logger) *dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultMaxConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultTrainingTimeout
	}

	return &dispatcher{
		experiments: experiments,
		pubsub:      pubsub,
		tracker:     tracker,
		channelID:   channelID,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
		pending:     make(map[runKey]chan trainer.TrainResult),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Dispatch starts the experiment's run loop and returns immediately. The run
// owns a fresh context so it outlives the request that created it.
func (d *dispatcher) Dispatch(e experiment.Experiment, ds dataset.Dataset) {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancels[e.ID] = cancel
	d.mu.Unlock()

	go d.run(ctx, e, ds)
}

func (d *dispatcher) run(ctx context.Context, e experiment.Experiment, ds dataset.Dataset) {
	defer d.forget(e.ID)

	machine := e.NewFSM()
	if err := machine.Event(ctx, experiment.EventStart); err != nil {
		d.logger.Error("illegal experiment transition",
			slog.String("experiment_id", e.ID),
			slog.String("event", experiment.EventStart),
			slog.Any("error", err))

		return
	}
	e.StartTime = time.Now()

	var mu sync.Mutex
	d.persist(ctx, &mu, &e)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	results := make([]trainer.TrainResult, len(e.Runs))
	for i := range e.Runs {
		g.Go(func() error {
			results[i] = d.runModel(gctx, &mu, &e, ds, i)

			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		d.logger.Info("experiment canceled, discarding results",
			slog.String("experiment_id", e.ID))

		return
	}

	d.finish(ctx, machine, &e, results)
}

func (d *dispatcher) runModel(ctx context.Context, mu *sync.Mutex, e *experiment.Experiment, ds dataset.Dataset, i int) trainer.TrainResult {
	mp := e.Resolved[i]
	key := runKey{experimentID: e.ID, model: mp.Model}

	mu.Lock()
	e.Runs[i].State = experiment.Running
	e.Runs[i].StartTime = time.Now()
	mu.Unlock()
	d.persist(ctx, mu, e)

	ch := d.watch(key)
	defer d.drop(key)

	req := trainer.TrainRequest{
		ExperimentID:  e.ID,
		Model:         mp.Model,
		DatasetID:     ds.ID,
		DatasetPath:   ds.Path,
		Target:        e.TargetColumn,
		Features:      e.ColumnConfig.FeatureColumns,
		Ignore:        e.ColumnConfig.IgnoreColumns,
		Preprocessing: mp.Effective,
		TestSize:      e.TestSize,
		Seed:          preprocessing.DefaultSeed,
	}
	topic := fmt.Sprintf(trainer.TrainTopicTemplate, d.channelID)
	if err := d.pubsub.Publish(ctx, topic, req); err != nil {
		return d.failRun(ctx, mu, e, i, fmt.Sprintf("dispatch failed: %s", err))
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Error != "" {
			return d.failRun(ctx, mu, e, i, res.Error)
		}
		mu.Lock()
		e.Runs[i].State = experiment.Completed
		e.Runs[i].FinishTime = time.Now()
		mu.Unlock()
		d.persist(ctx, mu, e)

		return res
	case <-timer.C:
		return d.failRun(ctx, mu, e, i, pkgerrors.ErrTrainingTimeout.Error())
	case <-ctx.Done():
		return trainer.TrainResult{ExperimentID: e.ID, Model: mp.Model, Error: ctx.Err().Error()}
	}
}

func (d *dispatcher) failRun(ctx context.Context, mu *sync.Mutex, e *experiment.Experiment, i int, reason string) trainer.TrainResult {
	mu.Lock()
	e.Runs[i].State = experiment.Failed
	e.Runs[i].Error = reason
	e.Runs[i].FinishTime = time.Now()
	model := e.Runs[i].Model
	mu.Unlock()
	d.persist(ctx, mu, e)

	d.logger.Warn("model run failed",
		slog.String("experiment_id", e.ID),
		slog.String("model", model),
		slog.String("reason", reason))

	return trainer.TrainResult{ExperimentID: e.ID, Model: model, Error: reason}
}

// finish assembles the terminal state: at least one success completes the
// experiment with a sorted leaderboard, an all-failure run fails it with an
// aggregate summary.
func (d *dispatcher) finish(ctx context.Context, machine *fsm.FSM, e *experiment.Experiment, results []trainer.TrainResult) {
	var leaderboard []experiment.ModelResult
	var failures []string
	for _, res := range results {
		if res.Error != "" {
			failures = append(failures, res.Model+": "+res.Error)

			continue
		}
		leaderboard = append(leaderboard, experiment.ModelResult{
			Model:        res.Model,
			Accuracy:     res.Accuracy,
			Precision:    res.Precision,
			Recall:       res.Recall,
			F1:           res.F1,
			TrainingTime: res.TrainingTime,
		})
		if e.LabelMapping == nil && len(res.Labels) > 0 {
			mapping := make(map[string]string, len(res.Labels))
			for class, label := range res.Labels {
				mapping[strconv.Itoa(class)] = label
			}
			e.LabelMapping = mapping
		}
	}

	event := experiment.EventComplete
	if len(leaderboard) == 0 {
		event = experiment.EventFail
		e.Error = "all model runs failed: " + strings.Join(failures, "; ")
	}
	experiment.SortLeaderboard(leaderboard)
	e.Leaderboard = leaderboard
	e.FinishTime = time.Now()

	if err := machine.Event(ctx, event); err != nil {
		d.logger.Error("illegal experiment transition",
			slog.String("experiment_id", e.ID),
			slog.String("event", event),
			slog.Any("error", err))

		return
	}
	if err := d.experiments.Update(ctx, *e); err != nil {
		d.logger.Error("failed to store experiment outcome",
			slog.String("experiment_id", e.ID),
			slog.Any("error", err))
	}

	d.record(*e)
}

// record appends the leaderboard to the tracking log. Tracking failures are
// logged and never touch experiment state.
func (d *dispatcher) record(e experiment.Experiment) {
	if d.tracker == nil || len(e.Leaderboard) == 0 {
		return
	}

	records := make([]tracking.Record, 0, len(e.Leaderboard))
	for _, entry := range e.Leaderboard {
		records = append(records, tracking.Record{
			ExperimentID:   e.ID,
			ExperimentName: e.Name,
			DatasetID:      e.DatasetID,
			Model:          entry.Model,
			Accuracy:       entry.Accuracy,
			Precision:      entry.Precision,
			Recall:         entry.Recall,
			F1:             entry.F1,
			TrainingTime:   entry.TrainingTime,
			CreatedAt:      time.Now(),
		})
	}
	if err := d.tracker.Append(records); err != nil {
		d.logger.Warn("failed to append tracking records",
			slog.String("experiment_id", e.ID),
			slog.Any("error", err))
	}
}

// persist stores a snapshot of the experiment, stamping UpdatedAt. Storage
// failures degrade to a log line so training itself keeps going.
func (d *dispatcher) persist(ctx context.Context, mu *sync.Mutex, e *experiment.Experiment) {
	mu.Lock()
	e.UpdatedAt = time.Now()
	snapshot := *e
	snapshot.Runs = slices.Clone(e.Runs)
	mu.Unlock()

	if err := d.experiments.Update(ctx, snapshot); err != nil {
		d.logger.Warn("failed to store experiment progress",
			slog.String("experiment_id", snapshot.ID),
			slog.Any("error", err))
	}
}

func (d *dispatcher) watch(key runKey) chan trainer.TrainResult {
	ch := make(chan trainer.TrainResult, 1)
	d.mu.Lock()
	d.pending[key] = ch
	d.mu.Unlock()

	return ch
}

func (d *dispatcher) drop(key runKey) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()
}

// deliver routes a result to the run waiting on it. Results that match no
// pending run, including runs of canceled experiments, are discarded.
func (d *dispatcher) deliver(res trainer.TrainResult) bool {
	key := runKey{experimentID: res.ExperimentID, model: res.Model}

	d.mu.Lock()
	ch, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	ch <- res

	return true
}

// cancel drops the experiment's run context and every pending result channel
// it still owns, so late results are discarded on arrival.
func (d *dispatcher) cancel(experimentID string) {
	d.mu.Lock()
	cancel, ok := d.cancels[experimentID]
	delete(d.cancels, experimentID)
	for key := range d.pending {
		if key.experimentID == experimentID {
			delete(d.pending, key)
		}
	}
	d.mu.Unlock()

	if ok {
		cancel()
	}
}

func (d *dispatcher) forget(experimentID string) {
	d.mu.Lock()
	if cancel, ok := d.cancels[experimentID]; ok {
		cancel()
		delete(d.cancels, experimentID)
	}
	d.mu.Unlock()
}
