package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Document is a decoded upstream JSON body. It retains the raw bytes so the
// gateway can pass upstream payloads through unmodified while still reading
// individual fields, whichever envelope shape the service chose.
type Document struct {
	raw []byte
}

// NewDocument wraps already-validated JSON bytes.
func NewDocument(raw []byte) Document {
	return Document{raw: raw}
}

// DocumentFrom builds a Document from a Go value.
func DocumentFrom(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}
	return Document{raw: raw}, nil
}

// IsZero reports whether the document holds no body.
func (d Document) IsZero() bool { return len(d.raw) == 0 }

// Raw returns the underlying JSON bytes.
func (d Document) Raw() []byte { return d.raw }

// Get reads a field by gjson path, e.g. "id" or "data.id".
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Map decodes the document into a generic map. Non-object bodies yield an
// empty map.
func (d Document) Map() map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(d.raw, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

// MarshalJSON passes the upstream body through verbatim.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// UnmarshalJSON retains the raw bytes.
func (d *Document) UnmarshalJSON(raw []byte) error {
	d.raw = append(d.raw[:0], raw...)
	return nil
}
