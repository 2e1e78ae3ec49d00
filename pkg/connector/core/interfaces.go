// Package core defines the contracts between readers, streams and writers.
package core

import (
	"context"
	"io"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeReader ConnectorType = "reader"
	ConnectorTypeWriter ConnectorType = "writer"
)

// Format is the encoding of a stream's content
type Format string

const (
	// FormatJSON is newline-delimited JSON, one record per line
	FormatJSON Format = "json"
	// FormatCSV is raw CSV lines starting with a header line
	FormatCSV Format = "csv"
)

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	default:
		return "njson"
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	default:
		return "application/x-ndjson"
	}
}

// Stream is a named, lazily produced sequence of output lines. A stream is
// consumed once.
type Stream interface {
	// Name identifies the stream; writers derive file and table names from it
	Name() string
	// Format tells writers how the content is encoded
	Format() Format
	// Encode writes the whole stream to w and returns the number of
	// records written
	Encode(ctx context.Context, w io.Writer) (int64, error)
}

// Reader pulls data from one remote API and exposes it as streams.
type Reader interface {
	Name() string
	// Read validates options, performs the remote calls and returns the
	// streams in emission order. Remote pagination may continue lazily
	// while a stream is encoded.
	Read(ctx context.Context) ([]Stream, error)
	Close(ctx context.Context) error
}

// Writer persists streams.
type Writer interface {
	Name() string
	// Write consumes s entirely and returns the number of records written
	Write(ctx context.Context, s Stream) (int64, error)
	Close(ctx context.Context) error
}
