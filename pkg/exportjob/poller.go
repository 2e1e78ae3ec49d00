package exportjob

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/logger"
	"github.com/ajitpratap0/adreader/pkg/metrics"
	"github.com/ajitpratap0/adreader/pkg/observability"
	"go.uber.org/zap"
)

// DefaultChunkSize is the download chunk size.
const DefaultChunkSize = 4 << 20

// Poller submits, polls and fetches export jobs for one reader.
type Poller struct {
	reader    string
	client    Client
	policy    *base.RetryPolicy
	clock     Clock
	logger    *zap.Logger
	tracer    *observability.ConnectorTracer
	chunkSize int
}

// Option configures a Poller.
type Option func(*Poller)

// WithPolicy sets the polling backoff. The default is base.PollingPolicy.
func WithPolicy(p *base.RetryPolicy) Option {
	return func(pl *Poller) { pl.policy = p }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(pl *Poller) { pl.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(pl *Poller) { pl.logger = l }
}

// WithChunkSize sets the download chunk size.
func WithChunkSize(n int) Option {
	return func(pl *Poller) {
		if n > 0 {
			pl.chunkSize = n
		}
	}
}

// NewPoller creates a poller. reader labels logs, spans and metrics.
func NewPoller(reader string, client Client, opts ...Option) *Poller {
	p := &Poller{
		reader:    reader,
		client:    client,
		policy:    base.PollingPolicy(),
		clock:     realClock{},
		logger:    logger.With(zap.String("reader", reader)),
		tracer:    observability.NewConnectorTracer("exportjob", reader),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run submits payload and waits for the job to finish.
func (p *Poller) Run(ctx context.Context, payload interface{}) (*Job, error) {
	job, err := p.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}
	return job, p.Wait(ctx, job)
}

// Submit starts a job.
func (p *Poller) Submit(ctx context.Context, payload interface{}) (*Job, error) {
	var name string
	err := p.tracer.Trace(ctx, "submit", func(ctx context.Context) error {
		var err error
		name, err = p.client.Submit(ctx, payload)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to submit export job")
	}

	job := &Job{
		Name:        name,
		State:       StateSubmitted,
		SubmittedAt: p.clock.Now(),
	}
	p.logger.Info("export job submitted", zap.String("job", name))
	return job, nil
}

// Wait polls job until it succeeds, fails or exceeds the polling bound.
// Polls that are not done and retryable poll errors are retried after the
// policy's delay; any other poll error fails the job with its type kept.
// The job times out when elapsed time plus the next delay would pass the
// bound. Cancelling ctx fails the job with an internal error; a ctx
// deadline times it out.
func (p *Poller) Wait(ctx context.Context, job *Job) error {
	if job.State.Terminal() {
		return job.Err
	}
	job.State = StatePolling
	log := p.logger.With(zap.String("job", job.Name))

	var lastErr error
	for attempt := 0; ; attempt++ {
		status, err := p.poll(ctx, job)
		job.Polls++
		lastErr = err

		switch {
		case err != nil && !errors.IsRetryable(err):
			metrics.ExportJobPolls.WithLabelValues(p.reader, "error").Inc()
			return p.finish(job, StateFailed, errors.Wrap(err, errors.TypeOf(err), "export job poll failed"))

		case err != nil:
			metrics.ExportJobPolls.WithLabelValues(p.reader, "error").Inc()
			log.Warn("export job poll failed, retrying", zap.Int("poll", job.Polls), zap.Error(err))

		case status.Done && status.Err != nil:
			metrics.ExportJobPolls.WithLabelValues(p.reader, "failed").Inc()
			return p.finish(job, StateFailed, errors.NewRemoteOperation(status.Err.Code, status.Err.Message))

		case status.Done && status.ResultLocator == "":
			metrics.ExportJobPolls.WithLabelValues(p.reader, "failed").Inc()
			return p.finish(job, StateFailed, errors.Newf(errors.ErrorTypeData, "export job %s finished without a result", job.Name))

		case status.Done:
			metrics.ExportJobPolls.WithLabelValues(p.reader, "done").Inc()
			job.ResultLocator = status.ResultLocator
			return p.finish(job, StateSucceeded, nil)

		default:
			metrics.ExportJobPolls.WithLabelValues(p.reader, "running").Inc()
		}

		delay := p.policy.GetDelay(attempt)
		elapsed := p.Elapsed(job)
		if p.policy.Exceeds(elapsed, delay) {
			msg := fmt.Sprintf("export job %s not done after %s and %d polls", job.Name, elapsed, job.Polls)
			if lastErr != nil {
				return p.finish(job, StateTimedOut, errors.Wrap(lastErr, errors.ErrorTypeTimeout, msg))
			}
			return p.finish(job, StateTimedOut, errors.New(errors.ErrorTypeTimeout, msg))
		}

		log.Info("export job not done, waiting",
			zap.Int("poll", job.Polls),
			zap.Duration("delay", delay),
			zap.Duration("elapsed", elapsed))
		if err := p.clock.Sleep(ctx, delay); err != nil {
			if stderrors.Is(err, context.DeadlineExceeded) {
				return p.finish(job, StateTimedOut, errors.Wrap(err, errors.ErrorTypeTimeout, "export job wait deadline exceeded"))
			}
			return p.finish(job, StateFailed, errors.Wrap(err, errors.ErrorTypeInternal, "export job wait cancelled"))
		}
		job.Waits = append(job.Waits, delay)
	}
}

func (p *Poller) poll(ctx context.Context, job *Job) (*Status, error) {
	var status *Status
	err := p.tracer.Trace(ctx, "poll", func(ctx context.Context) error {
		var err error
		status, err = p.client.Poll(ctx, job.Name)
		if err == nil && status == nil {
			err = errors.New(errors.ErrorTypeData, "empty poll response")
		}
		return err
	})
	return status, err
}

func (p *Poller) finish(job *Job, state State, err error) error {
	job.State = state
	job.Err = err
	job.FinishedAt = p.clock.Now()
	duration := p.Elapsed(job)
	metrics.ExportJobDuration.WithLabelValues(p.reader, string(state)).Observe(duration.Seconds())

	fields := []zap.Field{
		zap.String("job", job.Name),
		zap.String("state", string(state)),
		zap.Int("polls", job.Polls),
		zap.Duration("duration", duration),
	}
	if err != nil {
		p.logger.Error("export job ended", append(fields, zap.Error(err))...)
	} else {
		p.logger.Info("export job ended", fields...)
	}
	return err
}

// Fetch streams the result of a succeeded job to path in fixed-size chunks,
// logging percentage progress. A failed transfer removes the partial file.
func (p *Poller) Fetch(ctx context.Context, job *Job, path string) (written int64, err error) {
	if job.State != StateSucceeded {
		return 0, errors.Newf(errors.ErrorTypeInternal, "export job %s is %s, not succeeded", job.Name, job.State)
	}

	ctx, span := p.tracer.StartSpan(ctx, "fetch")
	defer func() { span.Finish(err) }()

	body, size, err := p.client.Download(ctx, job.ResultLocator)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open export result")
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to create staging directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to create staging file")
	}

	progress := base.NewProgressReporter(p.logger, filepath.Base(path), size)
	written, err = copyChunks(ctx, f, body, make([]byte, p.chunkSize), progress)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close staging file")
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}

	metrics.DownloadBytes.WithLabelValues(p.reader).Add(float64(written))
	progress.Finish()
	span.SetAttribute("bytes", written)
	return written, nil
}

func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, progress *base.ProgressReporter) (int64, error) {
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, errors.Wrap(err, errors.ErrorTypeTimeout, "download cancelled")
		}
		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, errors.Wrap(werr, errors.ErrorTypeFile, "failed to write staging file")
			}
			written += int64(n)
			progress.Add(int64(n))
		}
		switch rerr {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return written, nil
		default:
			return written, errors.Wrap(rerr, errors.ErrorTypeConnection, "failed to read export result")
		}
	}
}

// Elapsed returns how long a job has been running by the poller's clock.
func (p *Poller) Elapsed(job *Job) time.Duration {
	if !job.FinishedAt.IsZero() {
		return job.FinishedAt.Sub(job.SubmittedAt)
	}
	return p.clock.Now().Sub(job.SubmittedAt)
}
