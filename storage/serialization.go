package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/quarry/core"
)

// documentRecord is the stored form of a core.Document. Metadata is
// arbitrary nested data and is carried as a JSON blob.
type documentRecord struct {
	ID         string
	SourceID   string
	Content    string
	Metadata   []byte
	Timestamp  int64
	InsertedAt int64
	UpdatedAt  int64
}

// DocumentRecordMUS is the MUS serializer for stored documents.
var DocumentRecordMUS = documentRecordMUS{}

type documentRecordMUS struct{}

var _ mus.Serializer[documentRecord] = documentRecordMUS{}

func (s documentRecordMUS) Marshal(v documentRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.ByteSlice.Marshal(v.Metadata, bs[n:])
	n += varint.Int64.Marshal(v.Timestamp, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt, bs[n:])
	return n + varint.Int64.Marshal(v.UpdatedAt, bs[n:])
}

func (s documentRecordMUS) Unmarshal(bs []byte) (v documentRecord, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = ord.ByteSlice.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentRecordMUS) Size(v documentRecord) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.SourceID)
	size += ord.String.Size(v.Content)
	size += ord.ByteSlice.Size(v.Metadata)
	size += varint.Int64.Size(v.Timestamp)
	size += varint.Int64.Size(v.InsertedAt)
	return size + varint.Int64.Size(v.UpdatedAt)
}

func (s documentRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	rec := documentRecord{
		ID:         doc.ID,
		SourceID:   doc.SourceID,
		Content:    doc.Content,
		Timestamp:  encodeTime(doc.Timestamp),
		InsertedAt: encodeTime(doc.InsertedAt),
		UpdatedAt:  encodeTime(doc.UpdatedAt),
	}
	if len(doc.Metadata) > 0 {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrSerializationFailed, err)
		}
		rec.Metadata = meta
	}
	buf := make([]byte, DocumentRecordMUS.Size(rec))
	DocumentRecordMUS.Marshal(rec, buf)
	return buf, nil
}

// UnmarshalDocument deserializes a Document from bytes. Numeric metadata
// values decode as float64.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	rec, n, err := DocumentRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	doc := &core.Document{
		ID:         rec.ID,
		SourceID:   rec.SourceID,
		Content:    rec.Content,
		Timestamp:  decodeTime(rec.Timestamp),
		InsertedAt: decodeTime(rec.InsertedAt),
		UpdatedAt:  decodeTime(rec.UpdatedAt),
	}
	if len(rec.Metadata) > 0 {
		if err := json.Unmarshal(rec.Metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrSerializationFailed, err)
		}
	}
	return doc, nil
}

// Zero times encode as 0 since UnixNano is undefined for them.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v).UTC()
}
