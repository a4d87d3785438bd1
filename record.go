package formskema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// MetaKey is the reserved record key carrying out-of-band metadata.
const MetaKey = "_meta"

// Map is an insertion-ordered string-keyed mapping. Records use it so the
// serialized form follows the schema's declared property order.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map with room for n keys.
func NewMap(n int) *Map {
	return &Map{keys: make([]string, 0, n), vals: make(map[string]any, n)}
}

// Set stores v under k. Re-setting a key keeps its original position.
func (m *Map) Set(k string, v any) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON writes the entries in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Meta is the out-of-band part of a record. The document id comes from the
// caller and is never derived from document content.
type Meta struct {
	DocumentID string `json:"document_id"`
}

// Record is the extracted value tree of one document.
type Record struct {
	Meta   Meta
	Fields *Map
}

// NewRecord wraps extracted fields with the caller's document id.
func NewRecord(documentID string, fields *Map) *Record {
	if fields == nil {
		fields = NewMap(0)
	}
	return &Record{Meta: Meta{DocumentID: documentID}, Fields: fields}
}

// Get returns a top-level field.
func (r *Record) Get(k string) (any, bool) { return r.Fields.Get(k) }

// MarshalJSON writes {"_meta": {...}, <fields in schema order>}.
func (r *Record) MarshalJSON() ([]byte, error) {
	meta, err := json.Marshal(r.Meta)
	if err != nil {
		return nil, err
	}
	body, err := r.Fields.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + MetaKey + `":`)
	buf.Write(meta)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Value returns the record as generic JSON-shaped data, the form produced by
// decoding the serialized record.
func (r *Record) Value() (map[string]any, error) {
	b, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
