package query

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/quarry/core"
)

// DefaultBlockedPatterns are the prompt-injection signatures rejected by default.
var DefaultBlockedPatterns = []string{
	`(?i)\b(system|assistant)\s*:`,
	"```",
	`</?[A-Za-z][\w:-]*(\s[^>]*)?/?>`,
	`\{\{.*?\}\}`,
	`\[\[.*?\]\]`,
}

// ValidatorConfig holds the tunables of the query validator.
type ValidatorConfig struct {
	MinQueryLength       int      `yaml:"min_query_length"`
	MaxQueryLength       int      `yaml:"max_query_length"`
	MaxSpecialCharsRatio float64  `yaml:"max_special_chars_ratio"`
	BlockedPatterns      []string `yaml:"blocked_patterns"`
	MaxConsecutiveChars  int      `yaml:"max_consecutive_chars"`
	MaxNewlines          int      `yaml:"max_newlines"`
}

// DefaultValidatorConfig returns the default validator settings.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MinQueryLength:       3,
		MaxQueryLength:       500,
		MaxSpecialCharsRatio: 0.3,
		BlockedPatterns:      append([]string(nil), DefaultBlockedPatterns...),
		MaxConsecutiveChars:  10,
		MaxNewlines:          5,
	}
}

// Validate checks the configuration for consistency.
func (c *ValidatorConfig) Validate() error {
	if c.MinQueryLength < 1 {
		return fmt.Errorf("validator config: min_query_length must be positive")
	}
	if c.MaxQueryLength < c.MinQueryLength {
		return fmt.Errorf("validator config: max_query_length must be >= min_query_length")
	}
	if c.MaxSpecialCharsRatio < 0 || c.MaxSpecialCharsRatio > 1 {
		return fmt.Errorf("validator config: max_special_chars_ratio must be between 0 and 1")
	}
	if c.MaxConsecutiveChars < 1 {
		return fmt.Errorf("validator config: max_consecutive_chars must be positive")
	}
	if c.MaxNewlines < 0 {
		return fmt.Errorf("validator config: max_newlines cannot be negative")
	}
	return nil
}

// ValidationInfo reports what the validator observed about an accepted query.
type ValidationInfo struct {
	Tenant           string   `json:"tenant,omitempty"`
	OriginalLength   int      `json:"original_length"`
	SanitizedLength  int      `json:"sanitized_length"`
	SpecialCharRatio float64  `json:"special_char_ratio"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Validator rejects malformed queries and sanitizes accepted ones.
type Validator struct {
	config  ValidatorConfig
	blocked []*regexp.Regexp
	logger  *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator) error

// WithValidatorLogger sets a custom logger.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// NewValidator compiles the blocked patterns of config.
// A nil config selects DefaultValidatorConfig.
func NewValidator(config *ValidatorConfig, opts ...ValidatorOption) (*Validator, error) {
	if config == nil {
		config = DefaultValidatorConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	v := &Validator{
		config: *config,
		logger: slog.Default().With("component", "validator"),
	}
	for _, p := range config.BlockedPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err)
		}
		v.blocked = append(v.blocked, re)
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validate checks query and returns its sanitized form.
// Rejections are reported as *core.ValidationError.
func (v *Validator) Validate(query, tenant string) (string, *ValidationInfo, error) {
	info := &ValidationInfo{
		Tenant:         tenant,
		OriginalLength: utf8.RuneCountInString(query),
	}

	if err := v.checkLength(info.OriginalLength, nil); err != nil {
		return "", nil, err
	}

	for _, re := range v.blocked {
		if re.MatchString(query) {
			v.logger.Warn("query rejected by blocked pattern", "tenant", tenant, "pattern", re.String())
			return "", nil, &core.ValidationError{Reason: "query contains blocked pattern " + re.String()}
		}
	}

	info.SpecialCharRatio = specialCharRatio(query)
	if info.SpecialCharRatio > v.config.MaxSpecialCharsRatio {
		info.Warnings = append(info.Warnings, fmt.Sprintf("high special character ratio %.2f", info.SpecialCharRatio))
	}
	if longestRun(query) > v.config.MaxConsecutiveChars {
		info.Warnings = append(info.Warnings, "excessive repeated characters")
	}
	if strings.Count(query, "\n") > v.config.MaxNewlines {
		info.Warnings = append(info.Warnings, "excessive newlines")
	}

	sanitized := v.Sanitize(query)
	info.SanitizedLength = utf8.RuneCountInString(sanitized)
	if err := v.checkLength(info.SanitizedLength, info.Warnings); err != nil {
		return "", nil, err
	}

	if len(info.Warnings) > 0 {
		v.logger.Debug("query accepted with warnings", "tenant", tenant, "warnings", info.Warnings)
	}
	return sanitized, info, nil
}

func (v *Validator) checkLength(n int, warnings []string) error {
	switch {
	case n < v.config.MinQueryLength:
		return &core.ValidationError{
			Reason:   fmt.Sprintf("query too short (%d < %d characters)", n, v.config.MinQueryLength),
			Warnings: warnings,
		}
	case n > v.config.MaxQueryLength:
		return &core.ValidationError{
			Reason:   fmt.Sprintf("query too long (%d > %d characters)", n, v.config.MaxQueryLength),
			Warnings: warnings,
		}
	}
	return nil
}

// Sanitize collapses whitespace, strips non-printable characters and clamps
// runs of identical characters. Sanitize(Sanitize(s)) == Sanitize(s).
func (v *Validator) Sanitize(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, query)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return clampRuns(cleaned, v.config.MaxConsecutiveChars)
}

// clampRuns shortens every run of an identical rune to at most limit.
func clampRuns(s string, limit int) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run <= limit {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func longestRun(s string) int {
	longest, run := 0, 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		longest = max(longest, run)
	}
	return longest
}

// specialCharRatio is the share of runes that are neither letters, digits nor whitespace.
func specialCharRatio(s string) float64 {
	total, special := 0, 0
	for _, r := range s {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}
