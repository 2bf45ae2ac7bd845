package trainer

import (
	"errors"
	"fmt"
	"time"

	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
)

const aliveTimeout = 10 * time.Second

var (
	// TrainTopicTemplate carries training requests from the orchestrator.
	TrainTopicTemplate = "channels/%s/messages/control/orchestrator/train"
	// ResultsTopicTemplate carries training results back to the orchestrator.
	ResultsTopicTemplate = "channels/%s/messages/control/trainer/results"
	// DiscoveryTopicTemplate announces a trainer joining the channel.
	DiscoveryTopicTemplate = "channels/%s/messages/control/trainer/create"
	aliveTopicTemplate     = "channels/%s/messages/control/trainer/alive"
)

// TrainRequest is one model-training assignment. DatasetPath points into the
// data directory shared between the orchestrator and its trainers.
type TrainRequest struct {
	ExperimentID  string                   `json:"experiment_id"`
	Model         string                   `json:"model"`
	DatasetID     string                   `json:"dataset_id"`
	DatasetPath   string                   `json:"dataset_path"`
	Target        string                   `json:"target_column"`
	Features      []string                 `json:"feature_columns"`
	Ignore        []string                 `json:"ignore_columns,omitempty"`
	Preprocessing experiment.Preprocessing `json:"preprocessing"`
	TestSize      float64                  `json:"test_size"`
	Seed          int64                    `json:"seed"`
}

func (r TrainRequest) Validate() error {
	if r.ExperimentID == "" {
		return errors.New("experiment_id is required")
	}
	if _, err := model.Lookup(r.Model); err != nil {
		return fmt.Errorf("model %q: %w", r.Model, err)
	}
	if r.DatasetPath == "" {
		return errors.New("dataset_path is required")
	}
	if r.Target == "" {
		return errors.New("target_column is required")
	}
	if len(r.Features) == 0 {
		return errors.New("feature_columns is required")
	}

	return nil
}

// TrainResult is the trainer's answer to one TrainRequest. Error is empty on
// success; a non-empty Error leaves the metric fields at zero.
type TrainResult struct {
	ExperimentID string   `json:"experiment_id"`
	Model        string   `json:"model"`
	Error        string   `json:"error,omitempty"`
	Accuracy     float64  `json:"accuracy"`
	Precision    float64  `json:"precision"`
	Recall       float64  `json:"recall"`
	F1           float64  `json:"f1"`
	TrainingTime float64  `json:"training_time"`
	Labels       []string `json:"labels,omitempty"`
}

// Trainer is the orchestrator-side registry entry for one worker, built from
// discovery and liveliness announcements.
type Trainer struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Alive        bool        `json:"alive"`
	AliveHistory []time.Time `json:"alive_history"`
}

func (t *Trainer) SetAlive() {
	if len(t.AliveHistory) > 0 {
		lastAlive := t.AliveHistory[len(t.AliveHistory)-1]
		if time.Since(lastAlive) <= aliveTimeout {
			t.Alive = true

			return
		}
	}
	t.Alive = false
}
