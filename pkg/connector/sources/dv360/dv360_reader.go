// Package dv360 reads Structured Data Files (SDF) from Display & Video 360.
// An SDF download task is submitted and polled until the archive is ready;
// the archive is then downloaded, unpacked and its CSV files emitted either
// as one chained JSON stream or as one CSV stream per file type.
package dv360

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/ajitpratap0/adreader/pkg/filereader"
	"github.com/ajitpratap0/adreader/pkg/observability"
	"github.com/ajitpratap0/adreader/pkg/stream"
	"go.uber.org/zap"
	"google.golang.org/api/displayvideo/v3"
	"google.golang.org/api/googleapi"
)

const (
	// ReaderName is the registry name of the reader
	ReaderName = "dv360"
	// JSONStreamName names the chained JSON stream
	JSONStreamName = "sdf"

	archiveName = "sdf.zip"
)

var dateKeys = []string{"Date"}

// Reader is the DV360 SDF reader
type Reader struct {
	*base.BaseConnector

	opts      config.DV360Config
	tracer    *observability.ConnectorTracer
	newClient func(ctx context.Context) (exportjob.Client, error)
	pollOpts  []exportjob.Option
}

// NewReader creates a reader from cfg.DV360. Options are validated by Read.
func NewReader(cfg *config.Config) *Reader {
	r := &Reader{
		BaseConnector: base.NewBaseConnector(ReaderName, core.ConnectorTypeReader, cfg),
		tracer:        observability.NewConnectorTracer(string(core.ConnectorTypeReader), ReaderName),
	}
	r.opts = r.GetConfig().DV360
	r.newClient = func(ctx context.Context) (exportjob.Client, error) {
		svc, err := newService(ctx, r.opts)
		if err != nil {
			return nil, err
		}
		return &sdfClient{svc: svc}, nil
	}
	return r
}

// Validate checks the reader options without contacting the API.
func (r *Reader) Validate() error {
	o := r.opts
	if o.RefreshToken == "" || o.ClientID == "" || o.ClientSecret == "" {
		return errors.New(errors.ErrorTypeConfig, "dv360: refresh token, client id and client secret are required")
	}
	if _, err := strconv.ParseInt(o.AdvertiserID, 10, 64); err != nil {
		return errors.Newf(errors.ErrorTypeConfig, "dv360: advertiser id %q is not numeric", o.AdvertiserID)
	}
	if len(o.FileTypes) == 0 {
		return errors.New(errors.ErrorTypeConfig, "dv360: at least one file type is required")
	}
	seen := make(map[string]bool, len(o.FileTypes))
	for _, ft := range o.FileTypes {
		if _, ok := FileName(ft); !ok {
			return errors.Newf(errors.ErrorTypeConfig, "dv360: unknown file type %q, expected one of %v", ft, FileTypes())
		}
		if seen[ft] {
			return errors.Newf(errors.ErrorTypeConfig, "dv360: file type %q requested twice", ft)
		}
		seen[ft] = true
	}
	needsIDs, ok := filterTypes[o.FilterType]
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig, "dv360: unknown filter type %q", o.FilterType)
	}
	if needsIDs && len(o.FilterIDs) == 0 && o.FilterType != FilterTypeAdvertiserID {
		return errors.Newf(errors.ErrorTypeConfig, "dv360: filter type %s requires filter ids", o.FilterType)
	}
	for _, id := range o.FilterIDs {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return errors.Newf(errors.ErrorTypeConfig, "dv360: filter id %q is not numeric", id)
		}
	}
	switch core.Format(o.Format) {
	case core.FormatJSON, core.FormatCSV:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "dv360: format must be json or csv, got %q", o.Format)
	}
	if o.SDFVersion == "" {
		return errors.New(errors.ErrorTypeConfig, "dv360: sdf version is required")
	}
	return nil
}

// request builds the SDF download task body
func (r *Reader) request() *displayvideo.CreateSdfDownloadTaskRequest {
	o := r.opts
	advertiserID, _ := strconv.ParseInt(o.AdvertiserID, 10, 64)

	var ids googleapi.Int64s
	for _, id := range o.FilterIDs {
		n, _ := strconv.ParseInt(id, 10, 64)
		ids = append(ids, n)
	}
	if len(ids) == 0 && o.FilterType == FilterTypeAdvertiserID {
		ids = googleapi.Int64s{advertiserID}
	}

	return &displayvideo.CreateSdfDownloadTaskRequest{
		AdvertiserId: advertiserID,
		Version:      o.SDFVersion,
		ParentEntityFilter: &displayvideo.ParentEntityFilter{
			FileType:   append([]string(nil), o.FileTypes...),
			FilterType: o.FilterType,
			FilterIds:  ids,
		},
	}
}

// Read runs the SDF download task and returns the file streams.
func (r *Reader) Read(ctx context.Context) (streams []core.Stream, err error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.StartSpan(ctx, "read")
	defer func() { span.Finish(err) }()

	client, err := r.newClient(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := r.stagingDir()
	if err != nil {
		return nil, err
	}

	opts := append([]exportjob.Option{
		exportjob.WithPolicy(base.PolicyFromConfig(r.GetConfig().Polling)),
		exportjob.WithLogger(r.GetLogger()),
	}, r.pollOpts...)
	poller := exportjob.NewPoller(ReaderName, client, opts...)

	job, err := poller.Run(ctx, r.request())
	if err != nil {
		return nil, err
	}

	archive := filepath.Join(dir, archiveName)
	if _, err := poller.Fetch(ctx, job, archive); err != nil {
		return nil, err
	}

	files, err := filereader.Unzip(archive, dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(r.opts.FileTypes))
	for _, ft := range r.opts.FileTypes {
		name, _ := FileName(ft)
		path, ok := lookup(files, name+".csv")
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "dv360: archive has no %s.csv", name)
		}
		paths = append(paths, path)
	}
	r.GetLogger().Info("SDF archive unpacked", zap.String("job", job.Name), zap.Int("files", len(paths)))

	if core.Format(r.opts.Format) == core.FormatCSV {
		extra := r.GetConfig().Output.ExtraColumn
		for i, ft := range r.opts.FileTypes {
			streams = append(streams, stream.NewCSVStream(
				"sdf_"+fileNames[ft],
				filereader.Lines(paths[i]),
				stream.WithExtraColumn(extra.Name, extra.Value),
			))
		}
		return streams, nil
	}

	seqs := make([]stream.Records, 0, len(paths))
	for _, p := range paths {
		seqs = append(seqs, filereader.CSVRecords(p))
	}
	records := stream.FormatDate(stream.Concat(seqs...), dateKeys, r.opts.DateFormat)
	return []core.Stream{stream.NewJSONStream(JSONStreamName, records)}, nil
}

// stagingDir creates a per-run directory removed on Close.
func (r *Reader) stagingDir() (string, error) {
	root := r.GetConfig().Staging.Dir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to create staging directory")
	}
	dir, err := os.MkdirTemp(root, "dv360-")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to create staging directory")
	}
	r.OnClose(func(context.Context) error { return os.RemoveAll(dir) })
	return dir, nil
}

// lookup finds an archive entry by base name.
func lookup(files map[string]string, name string) (string, bool) {
	if p, ok := files[name]; ok {
		return p, true
	}
	for entry, p := range files {
		if filepath.Base(entry) == name {
			return p, true
		}
	}
	return "", false
}
