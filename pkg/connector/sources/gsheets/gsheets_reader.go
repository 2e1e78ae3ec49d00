// Package gsheets reads one worksheet of a Google spreadsheet as records
// keyed by the header row.
package gsheets

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/ajitpratap0/adreader/pkg/observability"
	"github.com/ajitpratap0/adreader/pkg/stream"
	"go.uber.org/zap"
)

const (
	// ReaderName is the registry name of the reader
	ReaderName = "gsheets"
	// StreamName names the emitted stream
	StreamName = "gsheet"
)

// Reader is the Google Sheets reader
type Reader struct {
	*base.BaseConnector

	opts       config.GSheetsConfig
	tracer     *observability.ConnectorTracer
	newFetcher func(ctx context.Context) (fetcher, error)
}

// NewReader creates a reader from cfg.GSheets
func NewReader(cfg *config.Config) *Reader {
	r := &Reader{
		BaseConnector: base.NewBaseConnector(ReaderName, core.ConnectorTypeReader, cfg),
		tracer:        observability.NewConnectorTracer(string(core.ConnectorTypeReader), ReaderName),
	}
	r.opts = r.GetConfig().GSheets
	r.newFetcher = func(ctx context.Context) (fetcher, error) {
		return dialSheets(ctx, r.opts)
	}
	return r
}

// Validate checks the reader options without contacting the API.
func (r *Reader) Validate() error {
	o := r.opts
	required := map[string]string{
		"project id":     o.ProjectID,
		"private key id": o.PrivateKeyID,
		"private key":    o.PrivateKey,
		"client email":   o.ClientEmail,
		"client id":      o.ClientID,
		"sheet key":      o.SheetKey,
	}
	for _, name := range []string{"project id", "private key id", "private key", "client email", "client id", "sheet key"} {
		if required[name] == "" {
			return errors.Newf(errors.ErrorTypeConfig, "gsheets: %s is required", name)
		}
	}
	if o.PageNumber < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "gsheets: page number must be >= 0, got %d", o.PageNumber)
	}
	return nil
}

// Read fetches the configured worksheet.
func (r *Reader) Read(ctx context.Context) (streams []core.Stream, err error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.StartSpan(ctx, "read")
	defer func() { span.Finish(err) }()

	f, err := r.newFetcher(ctx)
	if err != nil {
		return nil, err
	}

	var titles []string
	err = r.ExecuteWithRetry(ctx, func() error {
		var ferr error
		titles, ferr = f.Titles(ctx, r.opts.SheetKey)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if r.opts.PageNumber >= len(titles) {
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"gsheets: page number %d out of range, spreadsheet has %d worksheets", r.opts.PageNumber, len(titles))
	}
	title := titles[r.opts.PageNumber]
	span.SetAttribute("worksheet", title)

	var rows [][]interface{}
	err = r.ExecuteWithRetry(ctx, func() error {
		var ferr error
		rows, ferr = f.Values(ctx, r.opts.SheetKey, title)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	records, err := toRecords(rows)
	if err != nil {
		return nil, err
	}
	r.GetLogger().Info("worksheet fetched", zap.String("worksheet", title), zap.Int("records", len(records)))
	return []core.Stream{stream.NewJSONStream(StreamName, stream.FromSlice(records))}, nil
}

// toRecords keys every row after the first by the header row. Missing
// trailing cells become empty strings; blank header columns are skipped.
func toRecords(rows [][]interface{}) ([]*models.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(header))
	for i, cell := range rows[0] {
		name := fmt.Sprint(cell)
		if name != "" && seen[name] {
			return nil, errors.Newf(errors.ErrorTypeData, "gsheets: duplicate header %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	records := make([]*models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := models.NewRecord(len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			var v interface{} = ""
			if i < len(row) {
				v = row[i]
			}
			rec.Set(name, v)
		}
		records = append(records, rec)
	}
	return records, nil
}
