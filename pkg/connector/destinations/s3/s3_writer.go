// Package s3 uploads streams to Amazon S3 with the multipart upload
// manager.
package s3

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/ajitpratap0/adreader/pkg/compression"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/destinations"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// WriterName is the registry name of the S3 writer
const WriterName = "s3"

const (
	uploadPartSize = 8 * 1024 * 1024
	maxConcurrency = 4
)

// uploader is the part of manager.Uploader the writer uses
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Writer uploads each stream to s3://<bucket>/<prefix>/<stream>.<ext>.
type Writer struct {
	*base.BaseConnector
	opts     config.S3OutputConfig
	alg      compression.Algorithm
	uploader uploader
}

// NewWriter creates an S3 writer. Credentials come from the default AWS
// chain when the first stream is written.
func NewWriter(cfg *config.Config) (*Writer, error) {
	opts := cfg.Output.S3
	if opts.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "s3: bucket is required")
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
	if w.uploader != nil {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(w.opts.Region))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if w.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(w.opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	w.uploader = manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = uploadPartSize
		u.Concurrency = maxConcurrency
	})
	return nil
}

// Write streams s into a multipart upload. The encoder runs on its own
// goroutine feeding the uploader through a pipe.
func (w *Writer) Write(ctx context.Context, s core.Stream) (n int64, err error) {
	defer func() { destinations.Observe(WriterName, err) }()

	if err := w.connect(ctx); err != nil {
		return 0, err
	}

	key := destinations.ObjectName(w.opts.Prefix, s, w.alg)
	body, wait := destinations.Pipe(func(pw io.Writer) (int64, error) {
		return destinations.Encode(ctx, s, pw, w.alg)
	})

	out, upErr := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(destinations.ContentType(s, w.alg)),
	})
	// Unblock the encoder if the upload stopped reading early.
	_ = body.Close()
	n, encErr := wait()
	if encErr != nil && (upErr == nil || !stderrors.Is(encErr, io.ErrClosedPipe)) {
		return n, encErr
	}
	if upErr != nil {
		return n, errors.Wrap(upErr, errors.ErrorTypeConnection, "failed to upload S3 object").
			WithDetail("key", key)
	}

	w.GetLogger().Info("stream uploaded",
		zap.String("stream", s.Name()),
		zap.String("bucket", w.opts.Bucket),
		zap.String("key", key),
		zap.String("location", out.Location),
		zap.Int64("records", n))
	return n, nil
}
