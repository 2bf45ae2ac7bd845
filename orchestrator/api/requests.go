package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

type datasetReq struct {
	dataset.Dataset `json:",inline"`
	File            []byte `json:"-"`
}

func (d *datasetReq) validate() error {
	if d.Name == "" {
		return apiutil.ErrMissingName
	}
	if len(d.File) == 0 {
		return pkgerrors.NewValidation("file", "csv file is required")
	}

	return nil
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	return nil
}

type suggestReq struct {
	id     string
	target string
}

func (s *suggestReq) validate() error {
	if s.id == "" {
		return apiutil.ErrMissingID
	}
	if s.target == "" {
		return pkgerrors.NewValidation("target_column", "target column is required")
	}

	return nil
}

type estimateReq struct {
	id     string
	Models []string `json:"models"`
}

func (e *estimateReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type experimentReq struct {
	experiment.Experiment `json:",inline"`
}

func (e *experimentReq) validate() error {
	if e.Name == "" {
		return apiutil.ErrMissingName
	}
	if e.DatasetID == "" {
		return pkgerrors.NewValidation("dataset_id", "dataset id is required")
	}

	return nil
}
