// Package local writes streams to files on disk or to stdout.
package local

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/adreader/pkg/compression"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/destinations"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"go.uber.org/zap"
)

const (
	// WriterName is the registry name of the file writer
	WriterName = "local"
	// ConsoleWriterName is the registry name of the stdout writer
	ConsoleWriterName = "console"
)

const bufferSize = 256 * 1024

// Writer writes each stream to <dir>/<stream>.<ext>[.gz|.zst].
type Writer struct {
	*base.BaseConnector
	dir string
	alg compression.Algorithm
}

// NewWriter creates a file writer from the output section of cfg.
func NewWriter(cfg *config.Config) (*Writer, error) {
	alg, err := destinations.Compression(cfg)
	if err != nil {
		return nil, err
	}
	dir := cfg.Output.Local.Dir
	if dir == "" {
		dir = "."
	}
	return &Writer{
		BaseConnector: base.NewBaseConnector(WriterName, core.ConnectorTypeWriter, cfg),
		dir:           dir,
		alg:           alg,
	}, nil
}

// Path returns the file a stream is written to
func (w *Writer) Path(s core.Stream) string {
	return filepath.Join(w.dir, destinations.FileName(s, w.alg))
}

// Write encodes s into its file, replacing any previous content. A failed
// write removes the partial file.
func (w *Writer) Write(ctx context.Context, s core.Stream) (n int64, err error) {
	defer func() { destinations.Observe(WriterName, err) }()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory")
	}
	path := w.Path(s)
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file")
	}

	bw := bufio.NewWriterSize(f, bufferSize)
	n, err = destinations.Encode(ctx, s, bw, w.alg)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output file")
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}

	w.GetLogger().Info("stream written",
		zap.String("stream", s.Name()),
		zap.String("path", path),
		zap.Int64("records", n))
	return n, nil
}

// ConsoleWriter prints streams to an output, stdout by default. Output is
// never compressed.
type ConsoleWriter struct {
	*base.BaseConnector
	out io.Writer
}

// NewConsoleWriter creates a writer printing to stdout
func NewConsoleWriter(cfg *config.Config) *ConsoleWriter {
	return &ConsoleWriter{
		BaseConnector: base.NewBaseConnector(ConsoleWriterName, core.ConnectorTypeWriter, cfg),
		out:           os.Stdout,
	}
}

// Write encodes s to the console
func (w *ConsoleWriter) Write(ctx context.Context, s core.Stream) (n int64, err error) {
	defer func() { destinations.Observe(ConsoleWriterName, err) }()

	bw := bufio.NewWriter(w.out)
	n, err = s.Encode(ctx, bw)
	if ferr := bw.Flush(); err == nil && ferr != nil {
		err = errors.Wrap(ferr, errors.ErrorTypeFile, "failed to write to console")
	}
	return n, err
}
