package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const experimentsEndpoint = "/experiments"

type Preprocessing struct {
	Scaling   string `json:"scaling,omitempty"`
	Balancing string `json:"balancing,omitempty"`
}

type ModelPreprocessing struct {
	Model     string        `json:"model"`
	Effective Preprocessing `json:"effective"`
	Notes     []string      `json:"notes,omitempty"`
}

type ModelRun struct {
	Model      string    `json:"model"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"start_time"`
	FinishTime time.Time `json:"finish_time"`
}

type ModelResult struct {
	Model        string  `json:"model"`
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	TrainingTime float64 `json:"training_time"`
}

type Experiment struct {
	ID            string               `json:"id,omitempty"`
	Name          string               `json:"name"`
	Owner         string               `json:"owner,omitempty"`
	DatasetID     string               `json:"dataset_id"`
	TargetColumn  string               `json:"target_column"`
	Models        []string             `json:"models"`
	TestSize      float64              `json:"test_size,omitempty"`
	ColumnConfig  ColumnConfig         `json:"column_config"`
	Preprocessing Preprocessing        `json:"preprocessing"`
	Resolved      []ModelPreprocessing `json:"resolved,omitempty"`
	State         string               `json:"state,omitempty"`
	Error         string               `json:"error,omitempty"`
	Runs          []ModelRun           `json:"runs,omitempty"`
	Leaderboard   []ModelResult        `json:"leaderboard,omitempty"`
	LabelMapping  map[string]string    `json:"label_mapping,omitempty"`
	StartTime     time.Time            `json:"start_time"`
	FinishTime    time.Time            `json:"finish_time"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type ExperimentPage struct {
	Offset      uint64       `json:"offset"`
	Limit       uint64       `json:"limit"`
	Total       uint64       `json:"total"`
	Experiments []Experiment `json:"experiments"`
}

type Results struct {
	ExperimentID string               `json:"experiment_id"`
	Status       string               `json:"status"`
	Error        string               `json:"error,omitempty"`
	LabelMapping map[string]string    `json:"label_mapping,omitempty"`
	Leaderboard  []ModelResult        `json:"leaderboard"`
	Runs         []ModelRun           `json:"runs,omitempty"`
	Resolved     []ModelPreprocessing `json:"resolved,omitempty"`
}

func (sdk *baseSDK) CreateExperiment(experiment Experiment) (Experiment, error) {
	data, err := json.Marshal(experiment)
	if err != nil {
		return Experiment{}, err
	}

	url := sdk.orchestratorURL + experimentsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Experiment{}, err
	}

	var e Experiment
	if err := json.Unmarshal(body, &e); err != nil {
		return Experiment{}, err
	}

	return e, nil
}

func (sdk *baseSDK) GetExperiment(id string) (Experiment, error) {
	url := sdk.orchestratorURL + experimentsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Experiment{}, err
	}

	var e Experiment
	if err := json.Unmarshal(body, &e); err != nil {
		return Experiment{}, err
	}

	return e, nil
}

func (sdk *baseSDK) ListExperiments(offset, limit uint64) (ExperimentPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}
	url := sdk.orchestratorURL + experimentsEndpoint + query

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ExperimentPage{}, err
	}

	var p ExperimentPage
	if err := json.Unmarshal(body, &p); err != nil {
		return ExperimentPage{}, err
	}

	return p, nil
}

func (sdk *baseSDK) GetResults(id string) (Results, error) {
	url := fmt.Sprintf("%s/experiments/%s/results", sdk.orchestratorURL, id)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Results{}, err
	}

	var r Results
	if err := json.Unmarshal(body, &r); err != nil {
		return Results{}, err
	}

	return r, nil
}

func (sdk *baseSDK) DeleteExperiment(id string) error {
	url := sdk.orchestratorURL + experimentsEndpoint + "/" + id

	if _, err := sdk.processRequest(http.MethodDelete, url, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}
