package api

import (
	"net/http"

	"github.com/absmach/supermq"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/pkg/estimator"
)

var (
	_ supermq.Response = (*datasetResponse)(nil)
	_ supermq.Response = (*listDatasetResponse)(nil)
	_ supermq.Response = (*profileResponse)(nil)
	_ supermq.Response = (*suggestionResponse)(nil)
	_ supermq.Response = (*estimateResponse)(nil)
	_ supermq.Response = (*experimentResponse)(nil)
	_ supermq.Response = (*listExperimentResponse)(nil)
	_ supermq.Response = (*resultsResponse)(nil)
)

type datasetResponse struct {
	dataset.Dataset
	created bool
	deleted bool
}

func (d datasetResponse) Code() int {
	if d.created {
		return http.StatusCreated
	}
	if d.deleted {
		return http.StatusNoContent
	}

	return http.StatusOK
}

func (d datasetResponse) Headers() map[string]string {
	if d.created {
		return map[string]string{
			"Location": "/datasets/" + d.ID,
		}
	}

	return map[string]string{}
}

func (d datasetResponse) Empty() bool {
	return d.deleted
}

type listDatasetResponse struct {
	dataset.DatasetPage
}

func (l listDatasetResponse) Code() int {
	return http.StatusOK
}

func (l listDatasetResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listDatasetResponse) Empty() bool {
	return false
}

type profileResponse struct {
	dataset.Profile
}

func (p profileResponse) Code() int {
	return http.StatusOK
}

func (p profileResponse) Headers() map[string]string {
	return map[string]string{}
}

func (p profileResponse) Empty() bool {
	return false
}

type suggestionResponse struct {
	orchestrator.Suggestion
}

func (s suggestionResponse) Code() int {
	return http.StatusOK
}

func (s suggestionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (s suggestionResponse) Empty() bool {
	return false
}

type estimateResponse struct {
	estimator.Estimate
}

func (e estimateResponse) Code() int {
	return http.StatusOK
}

func (e estimateResponse) Headers() map[string]string {
	return map[string]string{}
}

func (e estimateResponse) Empty() bool {
	return false
}

type experimentResponse struct {
	experiment.Experiment
	created bool
	deleted bool
}

func (e experimentResponse) Code() int {
	if e.created {
		return http.StatusCreated
	}
	if e.deleted {
		return http.StatusNoContent
	}

	return http.StatusOK
}

func (e experimentResponse) Headers() map[string]string {
	if e.created {
		return map[string]string{
			"Location": "/experiments/" + e.ID,
		}
	}

	return map[string]string{}
}

func (e experimentResponse) Empty() bool {
	return e.deleted
}

type listExperimentResponse struct {
	experiment.ExperimentPage
}

func (l listExperimentResponse) Code() int {
	return http.StatusOK
}

func (l listExperimentResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listExperimentResponse) Empty() bool {
	return false
}

type resultsResponse struct {
	orchestrator.Results
}

func (r resultsResponse) Code() int {
	return http.StatusOK
}

func (r resultsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r resultsResponse) Empty() bool {
	return false
}
