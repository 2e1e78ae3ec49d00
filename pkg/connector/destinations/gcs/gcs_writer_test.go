package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/ajitpratap0/adreader/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObject struct {
	name        string
	contentType string
	ctx         context.Context
	buf         bytes.Buffer
	committed   bool
}

func (o *memObject) Write(p []byte) (int, error) { return o.buf.Write(p) }

func (o *memObject) Close() error {
	if o.ctx.Err() != nil {
		return o.ctx.Err()
	}
	o.committed = true
	return nil
}

func newTestWriter(t *testing.T, prefix, comp string) (*Writer, *[]*memObject) {
	t.Helper()
	cfg := config.NewDefault()
	cfg.Output.GCS.Bucket = "reports"
	cfg.Output.GCS.Prefix = prefix
	cfg.Output.Compression = comp
	w, err := NewWriter(cfg)
	require.NoError(t, err)

	var objects []*memObject
	w.open = func(ctx context.Context, name, contentType string) io.WriteCloser {
		o := &memObject{name: name, contentType: contentType, ctx: ctx}
		objects = append(objects, o)
		return o
	}
	return w, &objects
}

func TestWriter_Upload(t *testing.T) {
	w, objects := newTestWriter(t, "facebook/2024-03-19", "none")

	s := stream.NewJSONStream("results_account_1", stream.FromSlice([]*models.Record{
		models.RecordFromPairs("spend", "1.5"),
	}))
	n, err := w.Write(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.Len(t, *objects, 1)
	o := (*objects)[0]
	assert.Equal(t, "facebook/2024-03-19/results_account_1.njson", o.name)
	assert.Equal(t, "application/x-ndjson", o.contentType)
	assert.Equal(t, "{\"spend\":\"1.5\"}\n", o.buf.String())
	assert.True(t, o.committed)
}

func TestWriter_GzipName(t *testing.T) {
	w, objects := newTestWriter(t, "", "gzip")

	_, err := w.Write(context.Background(), stream.NewCSVStream("sdf_LineItems", stream.LinesFromSlice([]string{"a"})))
	require.NoError(t, err)
	assert.Equal(t, "sdf_LineItems.csv.gz", (*objects)[0].name)
	assert.Equal(t, "application/gzip", (*objects)[0].contentType)
}

func TestWriter_AbortsOnStreamError(t *testing.T) {
	w, objects := newTestWriter(t, "", "none")

	boom := fmt.Errorf("graph error")
	seq := func(yield func(*models.Record, error) bool) { yield(nil, boom) }
	_, err := w.Write(context.Background(), stream.NewJSONStream("s", seq))
	assert.ErrorIs(t, err, boom)
	assert.False(t, (*objects)[0].committed)
}

func TestNewWriter_RequiresBucket(t *testing.T) {
	_, err := NewWriter(config.NewDefault())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
