// Package tokenizer counts tokens in generated text so pipeline metrics can
// report usage even when a generator does not.
package tokenizer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts the tokens in a piece of text.
type Counter interface {
	CountTokens(text string) int
}

// modelEncodings maps model name prefixes to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
}

const defaultEncoding = "cl100k_base"

// EncodingForModel returns the tiktoken encoding used by model. Unknown
// models, including local ones, use cl100k_base.
func EncodingForModel(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	best := ""
	for prefix := range modelEncodings {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return modelEncodings[best]
	}
	return defaultEncoding
}

// Tiktoken counts tokens with a BPE encoding. The encoding is loaded on first
// use; if it cannot be loaded, counts fall back to Estimate.
type Tiktoken struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	initErr  error
	logger   *slog.Logger
}

var _ Counter = (*Tiktoken)(nil)

// NewTiktoken creates a counter for model.
func NewTiktoken(model string) *Tiktoken {
	return &Tiktoken{
		encoding: EncodingForModel(model),
		logger:   slog.Default().With("component", "tokenizer"),
	}
}

// Encoding returns the name of the BPE encoding in use.
func (t *Tiktoken) Encoding() string {
	return t.encoding
}

// Err reports why the encoding could not be loaded, if it could not.
func (t *Tiktoken) Err() error {
	t.init()
	return t.initErr
}

func (t *Tiktoken) init() {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			t.logger.Warn("falling back to estimated token counts", "err", t.initErr)
			return
		}
		t.enc = enc
	})
}

// CountTokens returns the number of tokens in text.
func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.init()
	if t.enc == nil {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator approximates token counts without a vocabulary.
type Estimator struct{}

var _ Counter = Estimator{}

// CountTokens implements Counter.
func (Estimator) CountTokens(text string) int {
	return Estimate(text)
}

// Estimate approximates the token count of text as one token per four
// characters, and never fewer than the number of words.
func Estimate(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	byChars := (utf8.RuneCountInString(text) + 3) / 4
	return max(byChars, len(strings.Fields(text)))
}
