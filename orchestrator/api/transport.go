package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/absmach/baseliner/orchestrator"
	"github.com/absmach/baseliner/pkg/api"
)

const (
	maxFileSize = 1024 * 1024 * 100
	fileKey     = "file"
	targetKey   = "target_column"
)

func MakeHandler(svc orchestrator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/datasets", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createDatasetEndpoint(svc),
			decodeUploadDatasetReq,
			api.EncodeResponse,
			opts...,
		), "create-dataset").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listDatasetsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-datasets").ServeHTTP)
		r.Route("/{datasetID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getDatasetEndpoint(svc),
				decodeEntityReq("datasetID"),
				api.EncodeResponse,
				opts...,
			), "get-dataset").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deleteDatasetEndpoint(svc),
				decodeEntityReq("datasetID"),
				api.EncodeResponse,
				opts...,
			), "delete-dataset").ServeHTTP)
			r.Get("/profile", otelhttp.NewHandler(kithttp.NewServer(
				profileDatasetEndpoint(svc),
				decodeEntityReq("datasetID"),
				api.EncodeResponse,
				opts...,
			), "profile-dataset").ServeHTTP)
			r.Get("/columns/suggest", otelhttp.NewHandler(kithttp.NewServer(
				suggestColumnsEndpoint(svc),
				decodeSuggestReq,
				api.EncodeResponse,
				opts...,
			), "suggest-columns").ServeHTTP)
			r.Post("/estimate", otelhttp.NewHandler(kithttp.NewServer(
				estimateRuntimeEndpoint(svc),
				decodeEstimateReq,
				api.EncodeResponse,
				opts...,
			), "estimate-runtime").ServeHTTP)
		})
	})

	mux.Route("/experiments", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createExperimentEndpoint(svc),
			decodeExperimentReq,
			api.EncodeResponse,
			opts...,
		), "create-experiment").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listExperimentsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-experiments").ServeHTTP)
		r.Route("/{experimentID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getExperimentEndpoint(svc),
				decodeEntityReq("experimentID"),
				api.EncodeResponse,
				opts...,
			), "get-experiment").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deleteExperimentEndpoint(svc),
				decodeEntityReq("experimentID"),
				api.EncodeResponse,
				opts...,
			), "delete-experiment").ServeHTTP)
			r.Get("/results", otelhttp.NewHandler(kithttp.NewServer(
				getResultsEndpoint(svc),
				decodeEntityReq("experimentID"),
				api.EncodeResponse,
				opts...,
			), "get-results").ServeHTTP)
		})
	})

	mux.Get("/health", supermq.Health("orchestrator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeUploadDatasetReq(_ context.Context, r *http.Request) (any, error) {
	var req datasetReq
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile(fileKey)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".csv") {
		return nil, errors.Join(apiutil.ErrValidation, errors.New("invalid file extension"))
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	req.File = data
	req.Name = r.FormValue("name")
	if req.Name == "" {
		req.Name = strings.TrimSuffix(header.Filename, ".csv")
	}
	req.Owner = r.FormValue("owner")

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeSuggestReq(_ context.Context, r *http.Request) (any, error) {
	target, err := apiutil.ReadStringQuery(r, targetKey, "")
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return suggestReq{
		id:     chi.URLParam(r, "datasetID"),
		target: target,
	}, nil
}

func decodeEstimateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req estimateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}
	req.id = chi.URLParam(r, "datasetID")

	return req, nil
}

func decodeExperimentReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req experimentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}
