package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// UploadDataset uploads a CSV file and registers it as a dataset.
	//
	// example:
	//  dataset, _ := sdk.UploadDataset("churn", "jane", "./churn.csv")
	//  fmt.Println(dataset)
	UploadDataset(name, owner, path string) (Dataset, error)

	// GetDataset gets a dataset by id.
	//
	// example:
	//  dataset, _ := sdk.GetDataset("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(dataset)
	GetDataset(id string) (Dataset, error)

	// ListDatasets lists datasets.
	//
	// example:
	//  datasetPage, _ := sdk.ListDatasets(0, 10)
	//  fmt.Println(datasetPage)
	ListDatasets(offset uint64, limit uint64) (DatasetPage, error)

	// DeleteDataset deletes a dataset, its file and its experiments.
	//
	// example:
	//  _ = sdk.DeleteDataset("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	DeleteDataset(id string) error

	// ProfileDataset returns the structural profile of a dataset.
	//
	// example:
	//  profile, _ := sdk.ProfileDataset("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(profile)
	ProfileDataset(id string) (Profile, error)

	// SuggestColumns returns the advisor's column configuration for the
	// given target column.
	//
	// example:
	//  suggestion, _ := sdk.SuggestColumns("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", "churned")
	//  fmt.Println(suggestion)
	SuggestColumns(id, target string) (Suggestion, error)

	// EstimateRuntime returns the runtime estimate for training the given
	// models on a dataset.
	//
	// example:
	//  estimate, _ := sdk.EstimateRuntime("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", []string{"random_forest"})
	//  fmt.Println(estimate)
	EstimateRuntime(id string, models []string) (Estimate, error)

	// CreateExperiment creates a new experiment and starts training.
	//
	// example:
	//  experiment := sdk.Experiment{
	//    Name:         "churn-baseline",
	//    DatasetID:    "b1d10738-c5d7-4ff1-8f4d-b9328ce6f040",
	//    TargetColumn: "churned",
	//    Models:       []string{"logistic_regression", "random_forest"},
	//  }
	//  experiment, _ := sdk.CreateExperiment(experiment)
	//  fmt.Println(experiment)
	CreateExperiment(experiment Experiment) (Experiment, error)

	// GetExperiment gets an experiment by id.
	//
	// example:
	//  experiment, _ := sdk.GetExperiment("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(experiment)
	GetExperiment(id string) (Experiment, error)

	// ListExperiments lists experiments.
	//
	// example:
	//  experimentPage, _ := sdk.ListExperiments(0, 10)
	//  fmt.Println(experimentPage)
	ListExperiments(offset uint64, limit uint64) (ExperimentPage, error)

	// GetResults returns the current results of an experiment. Pending and
	// running experiments report their status with an empty leaderboard.
	//
	// example:
	//  results, _ := sdk.GetResults("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(results)
	GetResults(id string) (Results, error)

	// DeleteExperiment deletes an experiment, canceling it when it is
	// still running.
	//
	// example:
	//  _ = sdk.DeleteExperiment("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	DeleteExperiment(id string) error
}

type baseSDK struct {
	orchestratorURL string
	client          *http.Client
}

type Config struct {
	OrchestratorURL string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &baseSDK{
		orchestratorURL: cfg.OrchestratorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *baseSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}

func (sdk *baseSDK) processFileRequest(reqURL, path string, fields map[string]string, expectedRespCode int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return []byte{}, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return []byte{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return []byte{}, err
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return []byte{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return []byte{}, err
	}

	req, err := http.NewRequest(http.MethodPost, reqURL, &buf)
	if err != nil {
		return []byte{}, err
	}
	req.Header.Add("Content-Type", writer.FormDataContentType())

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
