// Package exportjob drives asynchronous export jobs: submit a request,
// poll its status with capped exponential backoff until it finishes or the
// polling bound runs out, then stream the result to a local staging file.
//
// The remote service is reached through the Client interface, so the same
// poller serves DV360 SDF download tasks and Facebook async report runs.
package exportjob

import (
	"context"
	"io"
	"time"
)

// State is the lifecycle position of a job.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}

// RemoteError is the error status a finished remote operation reports.
type RemoteError struct {
	Code    int64
	Message string
}

// Status is one poll response. Done with a nil Err means success and
// ResultLocator addresses the result.
type Status struct {
	Done          bool
	ResultLocator string
	Err           *RemoteError
}

// Client is the remote side of an export job.
type Client interface {
	// Submit starts a job and returns its name
	Submit(ctx context.Context, payload interface{}) (string, error)
	// Poll returns the current status of the named job
	Poll(ctx context.Context, name string) (*Status, error)
	// Download opens the result. size is -1 when unknown.
	Download(ctx context.Context, locator string) (body io.ReadCloser, size int64, err error)
}

// Job tracks one export job. It is owned by the poller driving it.
type Job struct {
	Name          string
	State         State
	ResultLocator string
	// Err is set when the job ends Failed or TimedOut
	Err error

	// Polls counts status requests, including failed ones
	Polls int
	// Waits lists every backoff delay slept, in order
	Waits []time.Duration

	SubmittedAt time.Time
	FinishedAt  time.Time
}

// Waited returns the sum of all backoff delays.
func (j *Job) Waited() time.Duration {
	var total time.Duration
	for _, w := range j.Waits {
		total += w
	}
	return total
}

// Clock abstracts time so that polling bounds are testable.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
