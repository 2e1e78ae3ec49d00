package stream

import (
	"context"
	"io"
	"iter"
	"strings"

	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
)

// Lines is a lazy sequence of text lines without line terminators.
type Lines = iter.Seq2[string, error]

// CSVStream emits raw CSV lines, the first being the header.
type CSVStream struct {
	name   string
	lines  Lines
	column *extraColumn
}

type extraColumn struct {
	name  string
	value string
}

// CSVOption configures a CSVStream.
type CSVOption func(*CSVStream)

// WithExtraColumn appends a constant column to every line. An empty name
// leaves lines unchanged.
func WithExtraColumn(name, value string) CSVOption {
	return func(s *CSVStream) {
		if name != "" {
			s.column = &extraColumn{name: name, value: value}
		}
	}
}

// NewCSVStream creates a stream over lines.
func NewCSVStream(name string, lines Lines, opts ...CSVOption) *CSVStream {
	s := &CSVStream{name: name, lines: lines}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stream name
func (s *CSVStream) Name() string { return s.name }

// Format returns core.FormatCSV
func (s *CSVStream) Format() core.Format { return core.FormatCSV }

// Lines returns the lines as emitted, extra column included. Iteration
// stops at the first empty line.
func (s *CSVStream) Lines() Lines {
	if s.column == nil {
		return untilEmpty(s.lines)
	}
	return addColumn(untilEmpty(s.lines), s.column.name, s.column.value)
}

// Encode writes every line followed by a newline and returns the number of
// data lines, header excluded.
func (s *CSVStream) Encode(ctx context.Context, w io.Writer) (int64, error) {
	var count int64
	header := true
	for line, err := range s.Lines() {
		if err != nil {
			return count, err
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return count, err
		}
		if header {
			header = false
			continue
		}
		count++
	}
	return count, nil
}

func untilEmpty(lines Lines) Lines {
	return func(yield func(string, error) bool) {
		for line, err := range lines {
			if err == nil && line == "" {
				return
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}

// addColumn appends ",name" to the header and ",value" to every other line.
// A header that already has the column is a configuration error.
func addColumn(lines Lines, name, value string) Lines {
	return func(yield func(string, error) bool) {
		first := true
		for line, err := range lines {
			if err != nil {
				yield("", err)
				return
			}
			if first {
				first = false
				for _, col := range strings.Split(line, ",") {
					if strings.Trim(col, `" `) == name {
						yield("", errors.Newf(errors.ErrorTypeConfig, "column %q already exists in header", name))
						return
					}
				}
				if !yield(line+","+name, nil) {
					return
				}
				continue
			}
			if !yield(line+","+value, nil) {
				return
			}
		}
	}
}

// LinesFromSlice returns a sequence over lines.
func LinesFromSlice(lines []string) Lines {
	return func(yield func(string, error) bool) {
		for _, l := range lines {
			if !yield(l, nil) {
				return
			}
		}
	}
}
