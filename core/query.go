package core

// QueryType is the syntactic shape of a query.
type QueryType string

const (
	QueryTypeQuestion   QueryType = "QUESTION"
	QueryTypeKeyword    QueryType = "KEYWORD"
	QueryTypeComparison QueryType = "COMPARISON"
	QueryTypeDefinition QueryType = "DEFINITION"
	QueryTypeExample    QueryType = "EXAMPLE"
	QueryTypeHowTo      QueryType = "HOW_TO"
	QueryTypeUnknown    QueryType = "UNKNOWN"
)

// IntentCategory is what the user is trying to accomplish.
type IntentCategory string

const (
	IntentInformational IntentCategory = "INFORMATIONAL"
	IntentProcedural    IntentCategory = "PROCEDURAL"
	IntentNavigational  IntentCategory = "NAVIGATIONAL"
	IntentTransactional IntentCategory = "TRANSACTIONAL"
	IntentAnalytical    IntentCategory = "ANALYTICAL"
	IntentClarification IntentCategory = "CLARIFICATION"
	IntentUnknown       IntentCategory = "UNKNOWN"
)

// Specificity describes how narrow a query is.
type Specificity string

const (
	SpecificityBroad    Specificity = "BROAD"
	SpecificityModerate Specificity = "MODERATE"
	SpecificitySpecific Specificity = "SPECIFIC"
)

// SubIntent is a secondary trait of a query. A query may carry several.
type SubIntent string

const (
	SubIntentComparison   SubIntent = "comparison"
	SubIntentTemporal     SubIntent = "temporal"
	SubIntentQuantitative SubIntent = "quantitative"
	SubIntentRequirements SubIntent = "requirements"
	SubIntentExamples     SubIntent = "examples"
)

// ParsedQuery is the normalized, classified form of a query.
type ParsedQuery struct {
	Original   string         `json:"original"`
	Normalized string         `json:"normalized"`
	Type       QueryType      `json:"query_type"`
	Keywords   []string       `json:"keywords"`
	Subject    string         `json:"subject,omitempty"`
	Action     string         `json:"action,omitempty"`
	Context    string         `json:"context,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// QueryIntent is the classified intent of a query.
type QueryIntent struct {
	Category    IntentCategory `json:"category"`
	Specificity Specificity    `json:"specificity"`
	Confidence  float64        `json:"confidence"`
	SubIntents  []SubIntent    `json:"sub_intents"`
	Features    map[string]any `json:"features,omitempty"`
}
