package query

import (
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, q string) *core.QueryIntent {
	t.Helper()
	intent := NewIntentClassifier().Classify(NewParser().Parse(q))
	require.NotNil(t, intent)
	return intent
}

func TestIntentClassifier_Category(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		category   core.IntentCategory
		confidence float64
	}{
		{"informational question", "What is Python?", core.IntentInformational, 0.8},
		{"procedural with components", "how to install python", core.IntentProcedural, 0.95},
		{"analytical comparison", "compare python versus go performance", core.IntentAnalytical, 0.9},
		{"transactional", "buy python book", core.IntentTransactional, 0.8},
		{"analytical why", "why is go fast", core.IntentAnalytical, 0.75},
		{"default short query", "hi", core.IntentInformational, 0.1},
		{"quoted text bonus", `find "exact phrase" docs`, core.IntentNavigational, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := classify(t, tt.query)
			assert.Equal(t, tt.category, intent.Category)
			assert.InDelta(t, tt.confidence, intent.Confidence, 1e-9)
		})
	}
}

func TestIntentClassifier_TieBreak(t *testing.T) {
	// INFORMATIONAL and ANALYTICAL both match at 0.85; the earlier category wins.
	intent := classify(t, "define difference between tcp and udp")
	assert.Equal(t, core.IntentInformational, intent.Category)

	intent = classify(t, "how to compare maps")
	assert.Equal(t, core.IntentProcedural, intent.Category)
}

func TestIntentClassifier_Specificity(t *testing.T) {
	tests := []struct {
		query string
		want  core.Specificity
	}{
		{"python 3 version changes", core.SpecificitySpecific},
		{"overview of everything in general", core.SpecificityBroad},
		{"best way using channels", core.SpecificityModerate},
		{"kubernetes networking", core.SpecificityModerate},
		{"version overview", core.SpecificitySpecific},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(t, tt.query).Specificity)
		})
	}
}

func TestIntentClassifier_SubIntents(t *testing.T) {
	intent := classify(t, "how many requirements were added since 2020 compared to examples")
	assert.Equal(t, []core.SubIntent{
		core.SubIntentComparison,
		core.SubIntentTemporal,
		core.SubIntentQuantitative,
		core.SubIntentRequirements,
		core.SubIntentExamples,
	}, intent.SubIntents)
	assert.LessOrEqual(t, intent.Confidence, 1.0)

	assert.Empty(t, classify(t, "kubernetes networking").SubIntents)
}

func TestIntentClassifier_Features(t *testing.T) {
	intent := classify(t, "What is Python?")
	assert.Equal(t, true, intent.Features["has_question_mark"])
	assert.Equal(t, 3, intent.Features["word_count"])
	assert.Equal(t, "QUESTION", intent.Features["query_type"])
}
