package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocumentIDFromContent generates a deterministic document ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func DocumentIDFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is a retrievable unit of text held by a document source.
// A document with a SourceID is a passage of the larger document it names.
type Document struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id,omitempty"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`             // When the document was authored or published
	InsertedAt time.Time      `json:"inserted_at,omitempty"` // When the document was stored
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// SourceDocID returns the ID of the full document this record belongs to.
func (d *Document) SourceDocID() string {
	if d.SourceID != "" {
		return d.SourceID
	}
	return d.ID
}

// ResultSource identifies which retrieval phase produced a SearchResult.
type ResultSource string

const (
	SourceSemantic ResultSource = "SEMANTIC"
	SourceKeyword  ResultSource = "KEYWORD"
	SourceHybrid   ResultSource = "HYBRID"
)

// SearchResult is a scored candidate. After fusion Source is SourceHybrid and
// Score is the weighted sum of SemanticScore and KeywordScore.
type SearchResult struct {
	ID            string         `json:"id"`
	Content       string         `json:"content"`
	Score         float64        `json:"score"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Source        ResultSource   `json:"source"`
	SemanticScore float64        `json:"semantic_score"`
	KeywordScore  float64        `json:"keyword_score"`
}

// ContextWindow is the text surrounding a matched snippet inside its source document.
// Positions are rune offsets into the full document.
type ContextWindow struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	StartPos int    `json:"start_pos"`
	EndPos   int    `json:"end_pos"`
}

// IsEmpty reports whether the window was never populated.
func (w ContextWindow) IsEmpty() bool {
	return w == ContextWindow{}
}

// EnhancedContext is a retrieved passage together with its surrounding context.
type EnhancedContext struct {
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	RelevanceScore float64        `json:"relevance_score"`
	SourceDocID    string         `json:"source_doc_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Window         ContextWindow  `json:"context_window"`
}

// Citation links a passage of the response back to one of its sources.
type Citation struct {
	ID             string         `json:"id"`
	SourceText     string         `json:"source_text"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	RelevanceScore float64        `json:"relevance_score"`
	Position       int            `json:"position_in_response"`
	CitationText   string         `json:"citation_text"`
}

// GeneratedResponse is the assembled answer for a query.
type GeneratedResponse struct {
	ResponseText    string      `json:"response_text"`
	Citations       []*Citation `json:"citations"`
	SourceCount     int         `json:"source_count"`
	ConfidenceScore float64     `json:"confidence_score"`
	QualityScore    float64     `json:"quality_score"`
	ModelUsed       string      `json:"model_used,omitempty"`
	TokensUsed      int         `json:"tokens_used"`
	Success         bool        `json:"success"`
	Error           string      `json:"error,omitempty"`
}

// Stage names a step of the query pipeline.
type Stage string

const (
	StageValidate Stage = "validate"
	StageParse    Stage = "parse"
	StageClassify Stage = "classify"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageValidate, StageParse, StageClassify, StageRetrieve, StageGenerate}

// PipelineMetrics records timing and volume for a single query.
type PipelineMetrics struct {
	StageDurations  map[Stage]time.Duration `json:"stage_durations"`
	StageAttempts   map[Stage]int           `json:"stage_attempts"`
	TotalDuration   time.Duration           `json:"total_duration"`
	ContextCount    int                     `json:"context_count"`
	TokenCount      int                     `json:"token_count"`
	ConfidenceScore float64                 `json:"confidence_score"`
}

// NewPipelineMetrics returns metrics with initialized maps.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		StageDurations: make(map[Stage]time.Duration, len(Stages)),
		StageAttempts:  make(map[Stage]int, len(Stages)),
	}
}

// PipelineResponse is the complete, serializable result of one pipeline run.
type PipelineResponse struct {
	QueryID   string             `json:"query_id"`
	Query     string             `json:"query"`
	Parsed    *ParsedQuery       `json:"parsed_query,omitempty"`
	Intent    *QueryIntent       `json:"intent,omitempty"`
	Response  *GeneratedResponse `json:"response,omitempty"`
	Contexts  []*EnhancedContext `json:"contexts"`
	Metrics   *PipelineMetrics   `json:"metrics"`
	Timestamp time.Time          `json:"timestamp"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
}
