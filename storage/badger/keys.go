package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	documentPrefix       = "doc:"
	documentDatePrefix   = "docdt:"
	documentSourcePrefix = "docsrc:"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// documentIDFromKey strips the document prefix from a primary key.
func documentIDFromKey(key []byte) string {
	return string(key[len(documentPrefix):])
}

// makeDocumentDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id string) []byte {
	prefixBytes := []byte(documentDatePrefix)
	buf := make([]byte, len(prefixBytes)+8+len(id))
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makePartialDocumentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefixBytes := []byte(documentDatePrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeDocumentSourceKey generates a composite key for the passage index.
// Format: prefix:sourceID:passageID
func makeDocumentSourceKey(sourceID, passageID string) []byte {
	return []byte(documentSourcePrefix + sourceID + ":" + passageID)
}

// makePartialDocumentSourceKey generates a partial key for passage lookups.
// Format: prefix:sourceID:
func makePartialDocumentSourceKey(sourceID string) []byte {
	return []byte(documentSourcePrefix + sourceID + ":")
}
