package core

import (
	"errors"
	"strings"
)

// Pipeline error classes. Stage errors wrap one of these so callers can
// dispatch with errors.Is.
var (
	// ErrValidation indicates the query was rejected before any processing.
	ErrValidation = errors.New("query validation failed")

	// ErrRetrieval indicates candidate fetch, embedding or search failed.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the completion collaborator failed.
	ErrGeneration = errors.New("generation failed")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)

// ValidationError describes why a query was rejected.
type ValidationError struct {
	Reason   string
	Warnings []string
}

func (e *ValidationError) Error() string {
	if len(e.Warnings) == 0 {
		return ErrValidation.Error() + ": " + e.Reason
	}
	return ErrValidation.Error() + ": " + e.Reason + " (warnings: " + strings.Join(e.Warnings, "; ") + ")"
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
