// Package stream provides the core.Stream implementations readers return:
// JSONStream for records and CSVStream for raw delimited lines.
package stream

import (
	"context"
	"io"
	"iter"

	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/json"
	"github.com/ajitpratap0/adreader/pkg/models"
)

// Records is a lazy sequence of records. A non-nil error ends the stream.
type Records = iter.Seq2[*models.Record, error]

// JSONStream encodes records as newline-delimited JSON.
type JSONStream struct {
	name    string
	records Records
}

// NewJSONStream creates a stream over records.
func NewJSONStream(name string, records Records) *JSONStream {
	return &JSONStream{name: name, records: records}
}

// Name returns the stream name
func (s *JSONStream) Name() string { return s.name }

// Format returns core.FormatJSON
func (s *JSONStream) Format() core.Format { return core.FormatJSON }

// Records returns the underlying sequence
func (s *JSONStream) Records() Records { return s.records }

// Encode writes one JSON object per line, keys in record order.
func (s *JSONStream) Encode(ctx context.Context, w io.Writer) (int64, error) {
	lw := json.NewLineWriter(w)
	defer lw.Release()

	var count int64
	for rec, err := range s.records {
		if err != nil {
			return count, err
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := lw.Write(rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// FromSlice returns a sequence over recs.
func FromSlice(recs []*models.Record) Records {
	return func(yield func(*models.Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Concat chains sequences in order.
func Concat(seqs ...Records) Records {
	return func(yield func(*models.Record, error) bool) {
		for _, seq := range seqs {
			for rec, err := range seq {
				if !yield(rec, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// Collect drains a sequence into a slice.
func Collect(seq Records) ([]*models.Record, error) {
	var out []*models.Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
