package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"

	"github.com/absmach/baseliner/orchestrator"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

func createDatasetEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(datasetReq)
		if !ok {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		ds, err := svc.CreateDataset(ctx, req.Dataset, req.File)
		if err != nil {
			return datasetResponse{}, err
		}

		return datasetResponse{
			Dataset: ds,
			created: true,
		}, nil
	}
}

func getDatasetEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		ds, err := svc.GetDataset(ctx, req.id)
		if err != nil {
			return datasetResponse{}, err
		}

		return datasetResponse{
			Dataset: ds,
		}, nil
	}
}

func listDatasetsEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listDatasetResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listDatasetResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		datasets, err := svc.ListDatasets(ctx, req.offset, req.limit)
		if err != nil {
			return listDatasetResponse{}, err
		}

		return listDatasetResponse{
			DatasetPage: datasets,
		}, nil
	}
}

func deleteDatasetEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return datasetResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteDataset(ctx, req.id); err != nil {
			return datasetResponse{}, err
		}

		return datasetResponse{
			deleted: true,
		}, nil
	}
}

func profileDatasetEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return profileResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return profileResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		prof, err := svc.ProfileDataset(ctx, req.id)
		if err != nil {
			return profileResponse{}, err
		}

		return profileResponse{
			Profile: prof,
		}, nil
	}
}

func suggestColumnsEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(suggestReq)
		if !ok {
			return suggestionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return suggestionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		suggestion, err := svc.SuggestColumns(ctx, req.id, req.target)
		if err != nil {
			return suggestionResponse{}, err
		}

		return suggestionResponse{
			Suggestion: suggestion,
		}, nil
	}
}

func estimateRuntimeEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(estimateReq)
		if !ok {
			return estimateResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return estimateResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		estimate, err := svc.EstimateRuntime(ctx, req.id, req.Models)
		if err != nil {
			return estimateResponse{}, err
		}

		return estimateResponse{
			Estimate: estimate,
		}, nil
	}
}

func createExperimentEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(experimentReq)
		if !ok {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		exp, err := svc.CreateExperiment(ctx, req.Experiment)
		if err != nil {
			return experimentResponse{}, err
		}

		return experimentResponse{
			Experiment: exp,
			created:    true,
		}, nil
	}
}

func getExperimentEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		exp, err := svc.GetExperiment(ctx, req.id)
		if err != nil {
			return experimentResponse{}, err
		}

		return experimentResponse{
			Experiment: exp,
		}, nil
	}
}

func listExperimentsEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listExperimentResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listExperimentResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		experiments, err := svc.ListExperiments(ctx, req.offset, req.limit)
		if err != nil {
			return listExperimentResponse{}, err
		}

		return listExperimentResponse{
			ExperimentPage: experiments,
		}, nil
	}
}

func getResultsEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return resultsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return resultsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		results, err := svc.GetResults(ctx, req.id)
		if err != nil {
			return resultsResponse{}, err
		}

		return resultsResponse{
			Results: results,
		}, nil
	}
}

func deleteExperimentEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return experimentResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteExperiment(ctx, req.id); err != nil {
			return experimentResponse{}, err
		}

		return experimentResponse{
			deleted: true,
		}, nil
	}
}
