package storage

import (
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrMigration    = errors.New("database migration error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")

	ErrDatasetNotFound    = fmt.Errorf("dataset %w", pkgerrors.ErrNotFound)
	ErrExperimentNotFound = fmt.Errorf("experiment %w", pkgerrors.ErrNotFound)
)
