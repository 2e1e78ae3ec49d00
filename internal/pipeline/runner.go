// Package pipeline runs a reader into a writer.
//
// # Basic Usage
//
//	reader, _ := registry.CreateReader("facebook", cfg)
//	writer, _ := registry.CreateWriter("gcs", cfg)
//
//	runner := pipeline.NewRunner(reader, writer, logger.Get())
//	result, err := runner.Run(ctx)
//
// A run is strictly sequential: streams are written one after the other in
// the order the reader returned them, and the first failure ends the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/logger"
	"github.com/ajitpratap0/adreader/pkg/metrics"
	"github.com/ajitpratap0/adreader/pkg/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StreamResult reports one written stream
type StreamResult struct {
	Name     string
	Records  int64
	Duration time.Duration
}

// Result reports a finished run
type Result struct {
	RunID    string
	Streams  []StreamResult
	Duration time.Duration
}

// Records returns the total number of records written
func (r *Result) Records() int64 {
	var total int64
	for _, s := range r.Streams {
		total += s.Records
	}
	return total
}

// Runner moves every stream of a reader into a writer.
type Runner struct {
	reader core.Reader
	writer core.Writer
	logger *zap.Logger
	newID  func() string
}

// NewRunner creates a runner. Run closes both connectors.
func NewRunner(reader core.Reader, writer core.Writer, log *zap.Logger) *Runner {
	if log == nil {
		log = logger.Get()
	}
	return &Runner{
		reader: reader,
		writer: writer,
		logger: log,
		newID:  uuid.NewString,
	}
}

// Run reads all streams and writes them in order. Streams after a failed
// one are not written.
func (r *Runner) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	result = &Result{RunID: r.newID()}

	ctx = logger.ContextWith(ctx, logger.RunIDKey, result.RunID)
	ctx = logger.ContextWith(ctx, logger.ReaderKey, r.reader.Name())
	log := r.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("reader", r.reader.Name()),
		zap.String("writer", r.writer.Name()))

	ctx, span := observability.NewSpan(ctx, "pipeline.run")
	span.SetAttribute("run.id", result.RunID)
	span.SetAttribute("reader", r.reader.Name())
	span.SetAttribute("writer", r.writer.Name())
	defer func() { span.Finish(err) }()

	defer func() {
		if cerr := r.close(ctx, log); err == nil && cerr != nil {
			err = cerr
		}
		result.Duration = time.Since(start)
	}()

	log.Info("starting run")

	streams, err := r.reader.Read(ctx)
	if err != nil {
		log.Error("read failed", zap.Error(err))
		return result, fmt.Errorf("reader %s: %w", r.reader.Name(), err)
	}
	span.SetAttribute("streams", len(streams))

	for _, s := range streams {
		sr, err := r.write(ctx, log, s)
		if err != nil {
			return result, err
		}
		result.Streams = append(result.Streams, sr)
	}

	log.Info("run completed",
		zap.Int("streams", len(result.Streams)),
		zap.Int64("records", result.Records()),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (r *Runner) write(ctx context.Context, log *zap.Logger, s core.Stream) (StreamResult, error) {
	ctx = logger.ContextWith(ctx, logger.StreamKey, s.Name())
	log = log.With(zap.String("stream", s.Name()), zap.String("format", string(s.Format())))

	ctx, span := observability.NewSpan(ctx, "pipeline.write")
	span.SetAttribute("stream", s.Name())

	timer := metrics.NewTimer(s.Name())
	n, err := r.writer.Write(ctx, s)
	span.SetAttribute("records", n)
	span.Finish(err)
	if err != nil {
		log.Error("write failed", zap.Int64("records", n), zap.Error(err))
		return StreamResult{}, fmt.Errorf("stream %s: %w", s.Name(), err)
	}

	metrics.RecordsTotal.WithLabelValues(r.reader.Name(), s.Name()).Add(float64(n))
	sr := StreamResult{Name: s.Name(), Records: n, Duration: timer.Stop()}
	log.Info("stream written", zap.Int64("records", n), zap.Duration("duration", sr.Duration))
	return sr, nil
}

func (r *Runner) close(ctx context.Context, log *zap.Logger) error {
	rerr := r.reader.Close(ctx)
	if rerr != nil {
		log.Warn("failed to close reader", zap.Error(rerr))
	}
	werr := r.writer.Close(ctx)
	if werr != nil {
		log.Warn("failed to close writer", zap.Error(werr))
	}
	if rerr != nil {
		return rerr
	}
	return werr
}
