package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be blank
//   - Timestamp must not be in the future
//
// NOT validated:
//   - ID (assigned from content when empty)
//   - SourceID (a document may stand alone)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if !IsValidTimestamp(doc.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
