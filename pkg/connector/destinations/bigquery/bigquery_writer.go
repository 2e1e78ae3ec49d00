// Package bigquery appends streams to BigQuery tables with load jobs.
package bigquery

import (
	"context"
	stderrors "errors"
	"io"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/destinations"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// WriterName is the registry name of the BigQuery writer
const WriterName = "bigquery"

const defaultTimeout = 30 * time.Minute

var invalidTableChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// loadFunc runs a load job reading data in format into table and waits
// for it to finish.
type loadFunc func(ctx context.Context, table string, format core.Format, data io.Reader) error

// Writer loads each stream into <project>.<dataset>.<table>. The table is
// the configured one, or the stream name with invalid characters replaced
// by underscores. Rows are appended and the schema is autodetected. JSON
// record keys are loaded under the names ColumnName gives them.
type Writer struct {
	*base.BaseConnector
	opts config.BigQueryOutputConfig
	load loadFunc
}

// NewWriter creates a BigQuery writer. Output compression does not apply.
func NewWriter(cfg *config.Config) (*Writer, error) {
	opts := cfg.Output.BigQuery
	if opts.ProjectID == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "bigquery: project_id is required")
	}
	if opts.Dataset == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "bigquery: dataset is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Writer{
		BaseConnector: base.NewBaseConnector(WriterName, core.ConnectorTypeWriter, cfg),
		opts:          opts,
	}, nil
}

// TableName returns the table s is loaded into
func (w *Writer) TableName(s core.Stream) string {
	if w.opts.Table != "" {
		return w.opts.Table
	}
	return invalidTableChars.ReplaceAllString(s.Name(), "_")
}

func (w *Writer) connect(ctx context.Context) error {
	if w.load != nil {
		return nil
	}
	var clientOpts []option.ClientOption
	if w.opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(w.opts.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, w.opts.ProjectID, clientOpts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
	}
	if w.opts.Location != "" {
		client.Location = w.opts.Location
	}
	w.OnClose(func(context.Context) error { return client.Close() })

	dataset := client.Dataset(w.opts.Dataset)
	w.load = func(ctx context.Context, table string, format core.Format, data io.Reader) error {
		return runLoad(ctx, dataset.Table(table), format, data)
	}
	return nil
}

func runLoad(ctx context.Context, table *bigquery.Table, format core.Format, data io.Reader) error {
	src := bigquery.NewReaderSource(data)
	src.AutoDetect = true
	switch format {
	case core.FormatCSV:
		src.SourceFormat = bigquery.CSV
		src.SkipLeadingRows = 1
	default:
		src.SourceFormat = bigquery.JSON
	}

	loader := table.LoaderFrom(src)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to start load job")
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed waiting for load job").
			WithDetail("job_id", job.ID())
	}
	if err := status.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "load job failed").
			WithDetail("job_id", job.ID())
	}
	return nil
}

// Write encodes s into a load job. The job reads the stream through a pipe
// while it is being encoded.
func (w *Writer) Write(ctx context.Context, s core.Stream) (n int64, err error) {
	defer func() { destinations.Observe(WriterName, err) }()

	if err := w.connect(ctx); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	defer cancel()

	table := w.TableName(s)
	s = withColumnNames(s)
	data, wait := destinations.Pipe(func(pw io.Writer) (int64, error) {
		return s.Encode(ctx, pw)
	})
	loadErr := w.load(ctx, table, s.Format(), data)
	_ = data.Close()
	n, encErr := wait()
	if encErr != nil && (loadErr == nil || !stderrors.Is(encErr, io.ErrClosedPipe)) {
		return n, encErr
	}
	if loadErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return n, errors.Wrap(loadErr, errors.ErrorTypeTimeout, "load job exceeded "+w.opts.Timeout.String())
		}
		return n, loadErr
	}

	w.GetLogger().Info("stream loaded",
		zap.String("stream", s.Name()),
		zap.String("table", strings.Join([]string{w.opts.ProjectID, w.opts.Dataset, table}, ".")),
		zap.Int64("records", n))
	return n, nil
}
