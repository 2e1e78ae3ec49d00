// Package destinations holds what the writers share: object naming,
// compressed encoding and write accounting. Each writer lives in its own
// subpackage and registers itself with the registry in init.
package destinations

import (
	"context"
	"io"
	"path"

	"github.com/ajitpratap0/adreader/pkg/compression"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/metrics"
)

// FileName returns <stream>.<ext> followed by the compression extension.
func FileName(s core.Stream, alg compression.Algorithm) string {
	return s.Name() + "." + s.Format().Extension() + alg.Extension()
}

// ObjectName joins prefix and FileName. An empty prefix yields the bare
// file name.
func ObjectName(prefix string, s core.Stream, alg compression.Algorithm) string {
	if prefix == "" {
		return FileName(s, alg)
	}
	return path.Join(prefix, FileName(s, alg))
}

// ContentType returns the MIME type of the stored object
func ContentType(s core.Stream, alg compression.Algorithm) string {
	switch alg {
	case compression.Gzip:
		return "application/gzip"
	case compression.Zstd:
		return "application/zstd"
	default:
		return s.Format().ContentType()
	}
}

// Compression parses the configured output compression
func Compression(cfg *config.Config) (compression.Algorithm, error) {
	return compression.ParseAlgorithm(cfg.Output.Compression)
}

// Encode writes s to w through alg and returns the record count. The
// compressor is flushed and closed before returning; w is not closed.
func Encode(ctx context.Context, s core.Stream, w io.Writer, alg compression.Algorithm) (int64, error) {
	cw, err := compression.NewWriter(w, alg, compression.Default)
	if err != nil {
		return 0, err
	}
	n, err := s.Encode(ctx, cw)
	if err != nil {
		_ = cw.Close()
		return n, err
	}
	if err := cw.Close(); err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to flush compressed output")
	}
	return n, nil
}

// Observe counts a finished write for writer
func Observe(writer string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.Writes.WithLabelValues(writer, status).Inc()
}

// Pipe runs encode on a new goroutine feeding the returned reader. The
// reader fails with encode's error; wait returns encode's count and error
// once it has finished.
func Pipe(encode func(w io.Writer) (int64, error)) (r io.ReadCloser, wait func() (int64, error)) {
	pr, pw := io.Pipe()
	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := encode(pw)
		_ = pw.CloseWithError(err)
		done <- result{n, err}
	}()
	return pr, func() (int64, error) {
		res := <-done
		return res.n, res.err
	}
}
