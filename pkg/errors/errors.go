package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyKey        = errors.New("empty key")
	ErrInvalidData     = errors.New("invalid data type")
	ErrEntityExists    = errors.New("entity already exists")
	ErrInvalidDataset  = errors.New("invalid dataset")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownModel    = errors.New("unknown model")
	ErrTrainingTimeout = errors.New("training timed out")
)

// ValidationError rejects a malformed request before any state is created.
// Field names the offending request field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewValidation(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
