package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const datasetsEndpoint = "/datasets"

type Dataset struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"`
	Rows      uint64    `json:"rows,omitempty"`
	Columns   uint64    `json:"columns,omitempty"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DatasetPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Datasets []Dataset `json:"datasets"`
}

type ColumnStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type Profile struct {
	Rows               uint64                 `json:"n_rows"`
	Columns            uint64                 `json:"n_cols"`
	NumericColumns     uint64                 `json:"numeric_cols"`
	CategoricalColumns uint64                 `json:"categorical_cols"`
	ColumnNames        []string               `json:"column_names"`
	ColumnTypes        map[string]string      `json:"column_types"`
	MissingValues      uint64                 `json:"missing_values"`
	MissingByColumn    map[string]uint64      `json:"missing_by_column"`
	Cardinality        map[string]uint64      `json:"cardinality"`
	NumericStats       map[string]ColumnStats `json:"numeric_stats,omitempty"`
	MemoryMB           float64                `json:"memory_mb"`
}

type ColumnConfig struct {
	IgnoreColumns  []string `json:"ignore_columns"`
	FeatureColumns []string `json:"feature_columns"`
	Source         string   `json:"source,omitempty"`
}

type Suggestion struct {
	Config ColumnConfig      `json:"column_config"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type ModelEstimate struct {
	Model      string  `json:"model"`
	Complexity float64 `json:"complexity_score"`
	Runtime    string  `json:"estimated_runtime"`
}

type Factors struct {
	Rows         uint64  `json:"n_rows"`
	Columns      uint64  `json:"n_cols"`
	MissingRatio float64 `json:"missing_ratio"`
}

type Estimate struct {
	Overall  string          `json:"overall_estimate"`
	PerModel []ModelEstimate `json:"per_model"`
	Factors  Factors         `json:"complexity_factors"`
}

func (sdk *baseSDK) UploadDataset(name, owner, path string) (Dataset, error) {
	url := sdk.orchestratorURL + datasetsEndpoint

	fields := map[string]string{
		"name":  name,
		"owner": owner,
	}
	body, err := sdk.processFileRequest(url, path, fields, http.StatusCreated)
	if err != nil {
		return Dataset{}, err
	}

	var d Dataset
	if err := json.Unmarshal(body, &d); err != nil {
		return Dataset{}, err
	}

	return d, nil
}

func (sdk *baseSDK) GetDataset(id string) (Dataset, error) {
	url := sdk.orchestratorURL + datasetsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Dataset{}, err
	}

	var d Dataset
	if err := json.Unmarshal(body, &d); err != nil {
		return Dataset{}, err
	}

	return d, nil
}

func (sdk *baseSDK) ListDatasets(offset, limit uint64) (DatasetPage, error) {
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
	url := sdk.orchestratorURL + datasetsEndpoint + query

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return DatasetPage{}, err
	}

	var p DatasetPage
	if err := json.Unmarshal(body, &p); err != nil {
		return DatasetPage{}, err
	}

	return p, nil
}

func (sdk *baseSDK) DeleteDataset(id string) error {
	url := sdk.orchestratorURL + datasetsEndpoint + "/" + id

	if _, err := sdk.processRequest(http.MethodDelete, url, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}

func (sdk *baseSDK) ProfileDataset(id string) (Profile, error) {
	url := fmt.Sprintf("%s/datasets/%s/profile", sdk.orchestratorURL, id)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, err
	}

	return p, nil
}

func (sdk *baseSDK) SuggestColumns(id, target string) (Suggestion, error) {
	url := fmt.Sprintf("%s/datasets/%s/columns/suggest?target_column=%s", sdk.orchestratorURL, id, target)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Suggestion{}, err
	}

	var s Suggestion
	if err := json.Unmarshal(body, &s); err != nil {
		return Suggestion{}, err
	}

	return s, nil
}

func (sdk *baseSDK) EstimateRuntime(id string, models []string) (Estimate, error) {
	data, err := json.Marshal(map[string][]string{"models": models})
	if err != nil {
		return Estimate{}, err
	}

	url := fmt.Sprintf("%s/datasets/%s/estimate", sdk.orchestratorURL, id)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Estimate{}, err
	}

	var e Estimate
	if err := json.Unmarshal(body, &e); err != nil {
		return Estimate{}, err
	}

	return e, nil
}
