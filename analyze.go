package quarry

import (
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/query"
)

// Analysis is the result of running a query through validation, parsing and
// intent classification only.
type Analysis struct {
	Query      string                `json:"query"`
	Sanitized  string                `json:"sanitized"`
	Validation *query.ValidationInfo `json:"validation"`
	Parsed     *core.ParsedQuery     `json:"parsed_query"`
	Intent     *core.QueryIntent     `json:"intent"`
}

// Analyze validates, parses and classifies q without touching any store or
// AI service. A nil validatorConfig uses the defaults.
func Analyze(validatorConfig *query.ValidatorConfig, q, tenant string) (*Analysis, error) {
	if validatorConfig == nil {
		validatorConfig = query.DefaultValidatorConfig()
	}
	validator, err := query.NewValidator(validatorConfig)
	if err != nil {
		return nil, err
	}
	sanitized, info, err := validator.Validate(q, tenant)
	if err != nil {
		return nil, err
	}
	parsed := query.NewParser().Parse(sanitized)
	return &Analysis{
		Query:      q,
		Sanitized:  sanitized,
		Validation: info,
		Parsed:     parsed,
		Intent:     query.NewIntentClassifier().Classify(parsed),
	}, nil
}
