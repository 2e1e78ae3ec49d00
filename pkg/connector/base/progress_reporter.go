package base

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ProgressReporter logs the progress of a byte transfer. It implements
// io.Writer so it can sit behind an io.TeeReader or io.MultiWriter.
type ProgressReporter struct {
	logger    *zap.Logger
	label     string
	total     int64
	done      int64
	lastPct   int64
	startTime time.Time
}

// NewProgressReporter creates a reporter for a transfer of total bytes.
// A total of zero or less means the size is unknown.
func NewProgressReporter(logger *zap.Logger, label string, total int64) *ProgressReporter {
	return &ProgressReporter{
		logger:    logger,
		label:     label,
		total:     total,
		lastPct:   -1,
		startTime: time.Now(),
	}
}

// Write counts len(p) transferred bytes.
func (pr *ProgressReporter) Write(p []byte) (int, error) {
	pr.Add(int64(len(p)))
	return len(p), nil
}

// Add records n more transferred bytes and logs when the whole percentage
// advances.
func (pr *ProgressReporter) Add(n int64) {
	done := atomic.AddInt64(&pr.done, n)
	if pr.total <= 0 {
		pr.logger.Debug("transfer progress",
			zap.String("transfer", pr.label),
			zap.Int64("bytes", done))
		return
	}

	pct := done * 100 / pr.total
	if pct > 100 {
		pct = 100
	}
	if pct == atomic.LoadInt64(&pr.lastPct) {
		return
	}
	atomic.StoreInt64(&pr.lastPct, pct)
	pr.logger.Info("transfer progress",
		zap.String("transfer", pr.label),
		zap.Int64("percent", pct),
		zap.Int64("bytes", done),
		zap.Int64("total_bytes", pr.total))
}

// Transferred returns the bytes counted so far.
func (pr *ProgressReporter) Transferred() int64 {
	return atomic.LoadInt64(&pr.done)
}

// Percent returns the last logged percentage, or -1 when unknown.
func (pr *ProgressReporter) Percent() int64 {
	return atomic.LoadInt64(&pr.lastPct)
}

// Finish logs the transfer summary.
func (pr *ProgressReporter) Finish() {
	elapsed := time.Since(pr.startTime)
	done := pr.Transferred()
	var rate float64
	if elapsed > 0 {
		rate = float64(done) / elapsed.Seconds()
	}
	pr.logger.Info("transfer complete",
		zap.String("transfer", pr.label),
		zap.Int64("bytes", done),
		zap.Duration("duration", elapsed),
		zap.Float64("bytes_per_sec", rate))
}
