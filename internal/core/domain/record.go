// internal/core/domain/record.go
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Field is a single key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered mapping decoded from a JSON or YAML object.
// Iteration order is the order in which keys first appeared in the input.
// The pipeline never mutates a Record; accessors return copies.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from fields in the given order.
// A repeated key keeps its first position and takes the last value.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.set(f.Key, f.Value)
	}
	return r
}

func (r *Record) set(key string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Len returns the number of top-level fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in record order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Keys returns the keys in record order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// GetString returns the value under key when it is a string, "" otherwise.
func (r Record) GetString(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
// Numbers are kept as json.Number so they render exactly as written.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidRecord)
	}

	var out Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: object key is not a string", ErrInvalidRecord)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: value for %q: %v", ErrInvalidRecord, key, err)
		}
		out.set(key, value)
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after object", ErrInvalidRecord)
	}

	*r = out
	return nil
}

// UnmarshalYAML decodes a YAML mapping keeping key order.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a YAML mapping", ErrInvalidRecord)
	}

	var out Record
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		if valNode.Kind == yaml.ScalarNode && valNode.Tag == "!!str" {
			out.set(keyNode.Value, valNode.Value)
			continue
		}

		var value any
		if err := valNode.Decode(&value); err != nil {
			return fmt.Errorf("%w: value for %q: %v", ErrInvalidRecord, keyNode.Value, err)
		}
		out.set(keyNode.Value, value)
	}

	*r = out
	return nil
}

// ParseRecordJSON decodes a JSON object into a Record.
func ParseRecordJSON(data []byte) (Record, error) {
	var r Record
	if len(bytes.TrimSpace(data)) == 0 {
		return r, ErrEmptyRecord
	}
	if err := r.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return r, nil
}

// ParseRecordYAML decodes a YAML mapping into a Record.
func ParseRecordYAML(data []byte) (Record, error) {
	var r Record
	if len(bytes.TrimSpace(data)) == 0 {
		return r, ErrEmptyRecord
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		if IsRecordError(err) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r, nil
}

// RenderValue formats a record value for the inference context.
// Strings are used verbatim; everything else renders as compact JSON.
func RenderValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
