package response

import "errors"

var (
	// ErrGeneratorRequired is returned when no generator is provided.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrEmptyCompletion is returned when the generator produced no text.
	ErrEmptyCompletion = errors.New("generator returned empty text")

	// ErrInvalidCitationStyle is returned for an unknown citation style.
	ErrInvalidCitationStyle = errors.New("invalid citation style")
)
