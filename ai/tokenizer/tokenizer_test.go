package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodingForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "o200k_base"},
		{"gpt-4o-mini", "o200k_base"},
		{"gpt-4-turbo", "cl100k_base"},
		{"gpt-3.5-turbo-0125", "cl100k_base"},
		{"llama3.2", "cl100k_base"},
		{"", "cl100k_base"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodingForModel(tt.model))
		})
	}
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 0, Estimate("   "))
	assert.Equal(t, 1, Estimate("hi"))
	assert.Equal(t, 3, Estimate("abcdefghij"))
	// Many short words count at least one token each
	assert.Equal(t, 6, Estimate("a b c d e f"))
	assert.Equal(t, Estimate("some text"), Estimator{}.CountTokens("some text"))
}

func TestTiktoken_CountTokens(t *testing.T) {
	tok := NewTiktoken("gpt-4")
	assert.Equal(t, "cl100k_base", tok.Encoding())
	assert.Equal(t, 0, tok.CountTokens(""))

	n := tok.CountTokens("Python is a programming language.")
	if tok.Err() != nil {
		// No BPE data available offline; the estimate is used instead
		assert.Equal(t, Estimate("Python is a programming language."), n)
		return
	}
	assert.Positive(t, n)
	assert.Less(t, n, 20)
}
