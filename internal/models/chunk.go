// ABOUTME: Chunk is the unit of retrievable document text
// ABOUTME: Accepts plain strings or records with a text field behind one accessor
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Chunk is a bounded slice of source-document text. Identity is the chunk's
// position in the store, not anything carried by the value.
type Chunk interface {
	Text() string
}

// Record is the structured chunk shape written by ingestion
type Record struct {
	Text       string `json:"text"`
	Source     string `json:"source,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

type textChunk string

func (c textChunk) Text() string { return string(c) }

type recordChunk struct {
	rec Record
}

func (c recordChunk) Text() string { return c.rec.Text }

// Source returns the originating document path, if known
func (c recordChunk) Source() string { return c.rec.Source }

// FromString wraps raw text as a Chunk
func FromString(text string) Chunk {
	return textChunk(text)
}

// FromRecord wraps a structured record as a Chunk
func FromRecord(rec Record) Chunk {
	return recordChunk{rec: rec}
}

// SourceOf returns the chunk's document source, or "" for plain-text chunks
func SourceOf(c Chunk) string {
	if s, ok := c.(interface{ Source() string }); ok {
		return s.Source()
	}
	return ""
}

// ErrInvalidChunk is returned when stored bytes are neither a JSON string nor a record
var ErrInvalidChunk = errors.New("invalid chunk encoding")

// DecodeChunk parses a stored chunk: either a JSON string or an object with a "text" field
func DecodeChunk(raw []byte) (Chunk, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidChunk)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChunk, err)
		}
		return FromString(s), nil
	case '{':
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChunk, err)
		}
		return FromRecord(rec), nil
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrInvalidChunk, trimmed[0])
	}
}

// EncodeChunk serializes a chunk in the shape DecodeChunk reads back
func EncodeChunk(c Chunk) ([]byte, error) {
	if rc, ok := c.(recordChunk); ok {
		return json.Marshal(rc.rec)
	}
	return json.Marshal(c.Text())
}
