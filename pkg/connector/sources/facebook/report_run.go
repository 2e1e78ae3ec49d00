package facebook

import (
	"context"
	"io"
	"net/url"

	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/ajitpratap0/adreader/pkg/json"
)

// Report run statuses reported in async_status.
const (
	runCompleted = "Job Completed"
	runFailed    = "Job Failed"
	runSkipped   = "Job Skipped"
)

// insightsRequest is the payload of an async insights report run.
type insightsRequest struct {
	Object string
	Params url.Values
}

// reportRunClient drives async insights report runs. Results are read
// through the insights edge of the run, so Download is not supported.
type reportRunClient struct {
	graph *graphClient
}

var _ exportjob.Client = (*reportRunClient)(nil)

func (c *reportRunClient) Submit(ctx context.Context, payload interface{}) (string, error) {
	req, ok := payload.(*insightsRequest)
	if !ok {
		return "", errors.Newf(errors.ErrorTypeInternal, "unexpected report run payload %T", payload)
	}
	var resp struct {
		ReportRunID string `json:"report_run_id"`
	}
	if err := c.graph.post(ctx, c.graph.url(req.Object, "insights"), req.Params, &resp); err != nil {
		return "", err
	}
	if resp.ReportRunID == "" {
		return "", errors.New(errors.ErrorTypeData, "report run response has no report_run_id")
	}
	return resp.ReportRunID, nil
}

func (c *reportRunClient) Poll(ctx context.Context, name string) (*exportjob.Status, error) {
	var run struct {
		AsyncStatus            string      `json:"async_status"`
		AsyncPercentCompletion json.Number `json:"async_percent_completion"`
	}
	params := url.Values{"fields": {"async_status,async_percent_completion"}}
	if err := c.graph.get(ctx, c.graph.url(name), params, &run); err != nil {
		return nil, err
	}

	switch run.AsyncStatus {
	case runCompleted:
		return &exportjob.Status{Done: true, ResultLocator: name}, nil
	case runFailed, runSkipped:
		return &exportjob.Status{
			Done: true,
			Err:  &exportjob.RemoteError{Message: run.AsyncStatus + " at " + run.AsyncPercentCompletion.String() + "%"},
		}, nil
	default:
		return &exportjob.Status{}, nil
	}
}

func (c *reportRunClient) Download(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New(errors.ErrorTypeInternal, "report runs are read through their insights edge")
}
