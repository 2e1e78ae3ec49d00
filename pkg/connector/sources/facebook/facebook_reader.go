// Package facebook reads the Facebook Marketing API. Requested fields may
// select nested values and breakdown elements with field path expressions
// such as actions[action_type:link_click]; every returned object is
// flattened into one record keyed by the expressions.
//
// Insights are read either synchronously, paging through the insights edge,
// or as async report runs polled to completion.
package facebook

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/daterange"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/ajitpratap0/adreader/pkg/fieldpath"
	"github.com/ajitpratap0/adreader/pkg/json"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/ajitpratap0/adreader/pkg/observability"
	"github.com/ajitpratap0/adreader/pkg/stream"
	"go.uber.org/zap"
)

// ReaderName is the registry name of the reader
const ReaderName = "facebook"

// Keys added by the add-date-to-report option.
const (
	DateStartKey = "date_start"
	DateStopKey  = "date_stop"
)

// Reader is the Facebook Marketing reader
type Reader struct {
	*base.BaseConnector

	opts     config.FacebookConfig
	tracer   *observability.ConnectorTracer
	now      func() time.Time
	pollOpts []exportjob.Option
}

// NewReader creates a reader from cfg.Facebook
func NewReader(cfg *config.Config) *Reader {
	r := &Reader{
		BaseConnector: base.NewBaseConnector(ReaderName, core.ConnectorTypeReader, cfg),
		tracer:        observability.NewConnectorTracer(string(core.ConnectorTypeReader), ReaderName),
		now:           time.Now,
	}
	r.opts = r.GetConfig().Facebook
	return r
}

// query is everything Read needs after validation
type query struct {
	extractor *fieldpath.Extractor
	apiFields []string
	dates     *daterange.Range
}

// prepare parses fields, validates options and resolves the date range.
func (r *Reader) prepare() (*query, error) {
	exprs, err := fieldpath.ParseAll(r.opts.Fields)
	if err != nil {
		return nil, err
	}
	if err := validate(r.opts, exprs); err != nil {
		return nil, err
	}

	q := &query{extractor: fieldpath.NewExtractor(exprs)}

	breakdowns := toSet(r.opts.Breakdowns...)
	for _, f := range q.extractor.BaseFields() {
		if !breakdowns[f] {
			q.apiFields = append(q.apiFields, f)
		}
	}

	switch {
	case r.opts.StartDate != "":
		rng, err := daterange.Parse(r.opts.StartDate, r.opts.EndDate)
		if err != nil {
			return nil, err
		}
		q.dates = &rng
	case r.opts.DateRange != "":
		rng, err := daterange.Resolve(r.opts.DateRange, r.now())
		if err != nil {
			return nil, err
		}
		q.dates = &rng
	}
	return q, nil
}

// Read validates the options and returns one stream over every object id.
// Pages are fetched while the stream is consumed; async report runs are
// polled to completion before Read returns.
func (r *Reader) Read(ctx context.Context) (streams []core.Stream, err error) {
	q, err := r.prepare()
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.StartSpan(ctx, "read")
	defer func() { span.Finish(err) }()
	span.SetAttribute("object_type", r.opts.ObjectType)
	span.SetAttribute("level", r.opts.Level)

	graph := newGraphClient(r.opts, r.GetConfig().Reliability, r.GetLogger())

	sources := make([]Rows, 0, len(r.opts.ObjectIDs))
	for _, id := range r.opts.ObjectIDs {
		object := r.objectPath(id)
		var rows Rows
		switch {
		case r.opts.AdInsights && r.opts.Async:
			rows, err = r.reportRun(ctx, graph, object, q)
			if err != nil {
				return nil, err
			}
		case r.opts.AdInsights:
			rows = graph.pages(ctx, graph.url(object, "insights"), r.insightsParams(q))
		case r.opts.Level == r.opts.ObjectType:
			rows = graph.node(ctx, graph.url(object), r.nodeParams(q))
		default:
			rows = graph.pages(ctx, graph.url(object, edges[r.opts.Level]), r.nodeParams(q))
		}
		sources = append(sources, rows)
	}

	records := r.extract(concatRows(sources...), q)
	return []core.Stream{stream.NewJSONStream(r.streamName(), records)}, nil
}

// reportRun starts an async report run for object and waits for it.
func (r *Reader) reportRun(ctx context.Context, graph *graphClient, object string, q *query) (Rows, error) {
	opts := append([]exportjob.Option{
		exportjob.WithPolicy(base.PolicyFromConfig(r.opts.PollInterval)),
		exportjob.WithLogger(r.GetLogger()),
	}, r.pollOpts...)
	poller := exportjob.NewPoller(ReaderName, &reportRunClient{graph: graph}, opts...)

	params := r.insightsParams(q)
	params.Del("limit")
	job, err := poller.Run(ctx, &insightsRequest{Object: object, Params: params})
	if err != nil {
		return nil, err
	}
	return graph.pages(ctx, graph.url(job.ResultLocator, "insights"), url.Values{
		"limit": {strconv.Itoa(r.opts.PageSize)},
	}), nil
}

// objectPath returns the node id, prefixing account ids with act_.
func (r *Reader) objectPath(id string) string {
	if r.opts.ObjectType == ObjectAccount && !strings.HasPrefix(id, "act_") {
		return "act_" + id
	}
	return id
}

func (r *Reader) streamName() string {
	return "results_" + r.opts.ObjectType + "_" + strings.Join(r.opts.ObjectIDs, "_")
}

func (r *Reader) insightsParams(q *query) url.Values {
	p := url.Values{
		"fields": {strings.Join(q.apiFields, ",")},
		"level":  {r.opts.Level},
		"limit":  {strconv.Itoa(r.opts.PageSize)},
	}
	if len(r.opts.Breakdowns) > 0 {
		p.Set("breakdowns", strings.Join(r.opts.Breakdowns, ","))
	}
	if len(r.opts.ActionBreakdowns) > 0 {
		p.Set("action_breakdowns", strings.Join(r.opts.ActionBreakdowns, ","))
	}
	if r.opts.TimeIncrement != "" {
		p.Set("time_increment", r.opts.TimeIncrement)
	}
	switch {
	case q.dates != nil:
		tr, _ := json.Marshal(map[string]string{"since": q.dates.StartString(), "until": q.dates.EndString()})
		p.Set("time_range", string(tr))
	case r.opts.DatePreset != "":
		p.Set("date_preset", r.opts.DatePreset)
	}
	return p
}

func (r *Reader) nodeParams(q *query) url.Values {
	p := url.Values{"fields": {strings.Join(q.apiFields, ",")}}
	if r.opts.Level != r.opts.ObjectType {
		p.Set("limit", strconv.Itoa(r.opts.PageSize))
	}
	return p
}

// extract flattens raw objects and applies add-date-to-report.
func (r *Reader) extract(rows Rows, q *query) stream.Records {
	logger := r.GetLogger()
	return func(yield func(*models.Record, error) bool) {
		var n int
		for raw, err := range rows {
			if err != nil {
				yield(nil, err)
				return
			}
			rec := q.extractor.Extract(raw)
			if r.opts.AddDateToReport {
				addDates(rec, raw, q.dates)
			}
			n++
			if !yield(rec, nil) {
				return
			}
		}
		logger.Info("facebook objects read", zap.Int("records", n), zap.String("stream", r.streamName()))
	}
}

// addDates sets date_start and date_stop from the object or, when it has
// none, from the requested range.
func addDates(rec *models.Record, raw map[string]interface{}, dates *daterange.Range) {
	for _, k := range []string{DateStartKey, DateStopKey} {
		if v, ok := rec.Get(k); ok && v != nil {
			continue
		}
		if v, ok := raw[k]; ok && v != nil {
			rec.Set(k, v)
			continue
		}
		if dates == nil {
			continue
		}
		if k == DateStartKey {
			rec.Set(k, dates.StartString())
		} else {
			rec.Set(k, dates.EndString())
		}
	}
}

func concatRows(seqs ...Rows) Rows {
	return func(yield func(map[string]interface{}, error) bool) {
		for _, seq := range seqs {
			for row, err := range seq {
				if !yield(row, err) {
					return
				}
			}
		}
	}
}
