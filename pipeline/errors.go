package pipeline

import "errors"

var (
	// ErrValidatorRequired is returned when no validator is provided.
	ErrValidatorRequired = errors.New("validator is required")

	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrAssemblerRequired is returned when no assembler is provided.
	ErrAssemblerRequired = errors.New("assembler is required")
)
