// Package models provides the record type emitted by every reader.
//
// A Record keeps its keys in insertion order so that a reader can emit
// fields in the order they were requested. JSON encoding follows that order.
package models

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// Record is an ordered set of key/value pairs. Values are scalars, nil,
// or nested values passed through from an API response.
type Record struct {
	keys   []string
	values map[string]interface{}
}

// NewRecord creates an empty record with room for size keys.
func NewRecord(size int) *Record {
	return &Record{
		keys:   make([]string, 0, size),
		values: make(map[string]interface{}, size),
	}
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (r *Record) Set(key string, value interface{}) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// SetIfAbsent stores value under key only if key is not present yet.
func (r *Record) SetIfAbsent(key string, value interface{}) {
	if _, exists := r.values[key]; !exists {
		r.Set(key, value)
	}
}

// Get returns the value of key and whether the key is present.
func (r *Record) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present, including keys holding nil.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Map returns an unordered copy of the record.
func (r *Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := gojson.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := gojson.MarshalWithOption(r.values[k], gojson.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RecordFromPairs builds a record from alternating keys and values.
// It is a convenience for tests and small fixed records.
func RecordFromPairs(pairs ...interface{}) *Record {
	r := NewRecord(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		r.Set(key, pairs[i+1])
	}
	return r
}
