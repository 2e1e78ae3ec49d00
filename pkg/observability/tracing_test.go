package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestTrace_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	ct := NewConnectorTracer("reader", "dv360")
	called := false
	err = ct.Trace(context.Background(), "poll", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestTrace_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{
		Enabled:     true,
		ServiceName: "adreader-test",
		Environment: "dev",
		Writer:      &buf,
	})
	require.NoError(t, err)

	ct := NewConnectorTracer("reader", "facebook")
	boom := errors.New("boom")
	err = ct.Trace(context.Background(), "fetch", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "reader.facebook.fetch")
	assert.Contains(t, buf.String(), "boom")
}
