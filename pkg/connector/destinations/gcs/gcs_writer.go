// Package gcs uploads streams as Google Cloud Storage objects.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/ajitpratap0/adreader/pkg/compression"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/destinations"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// WriterName is the registry name of the GCS writer
const WriterName = "gcs"

// objectOpener opens a writer on the named object. Closing the writer
// commits the object; cancelling ctx before that aborts the upload.
type objectOpener func(ctx context.Context, name, contentType string) io.WriteCloser

// Writer uploads each stream to gs://<bucket>/<prefix>/<stream>.<ext>.
type Writer struct {
	*base.BaseConnector
	opts config.GCSOutputConfig
	alg  compression.Algorithm

	open objectOpener
}

// NewWriter creates a GCS writer. The storage client is created on the
// first write.
func NewWriter(cfg *config.Config) (*Writer, error) {
	opts := cfg.Output.GCS
	if opts.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "gcs: bucket is required")
	}
	alg, err := destinations.Compression(cfg)
	if err != nil {
		return nil, err
	}
	return &Writer{
		BaseConnector: base.NewBaseConnector(WriterName, core.ConnectorTypeWriter, cfg),
		opts:          opts,
		alg:           alg,
	}, nil
}

func (w *Writer) connect(ctx context.Context) error {
	if w.open != nil {
		return nil
	}
	var clientOpts []option.ClientOption
	if w.opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(w.opts.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}
	w.OnClose(func(context.Context) error { return client.Close() })

	bucket := client.Bucket(w.opts.Bucket)
	if w.opts.UserProject != "" {
		bucket = bucket.UserProject(w.opts.UserProject)
	}
	w.open = func(ctx context.Context, name, contentType string) io.WriteCloser {
		ow := bucket.Object(name).NewWriter(ctx)
		ow.ContentType = contentType
		return ow
	}
	return nil
}

// Write uploads s. The object only becomes visible once the whole stream
// has been encoded.
func (w *Writer) Write(ctx context.Context, s core.Stream) (n int64, err error) {
	defer func() { destinations.Observe(WriterName, err) }()

	if err := w.connect(ctx); err != nil {
		return 0, err
	}

	name := destinations.ObjectName(w.opts.Prefix, s, w.alg)
	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ow := w.open(uploadCtx, name, destinations.ContentType(s, w.alg))
	n, err = destinations.Encode(ctx, s, ow, w.alg)
	if err != nil {
		cancel()
		_ = ow.Close()
		return n, err
	}
	if err := ow.Close(); err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload GCS object").
			WithDetail("object", name)
	}

	w.GetLogger().Info("stream uploaded",
		zap.String("stream", s.Name()),
		zap.String("bucket", w.opts.Bucket),
		zap.String("object", name),
		zap.Int64("records", n))
	return n, nil
}
