package registry

import (
	"context"
	"testing"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct{ name string }

func (f *fakeReader) Name() string                                   { return f.name }
func (f *fakeReader) Read(ctx context.Context) ([]core.Stream, error) { return nil, nil }
func (f *fakeReader) Close(ctx context.Context) error                 { return nil }

func TestRegistry_Readers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterReader("b", func(cfg *config.Config) (core.Reader, error) {
		return &fakeReader{name: "b"}, nil
	}))
	require.NoError(t, r.RegisterReader("a", func(cfg *config.Config) (core.Reader, error) {
		return nil, errors.New(errors.ErrorTypeValidation, "bad options")
	}))

	err := r.RegisterReader("b", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	assert.Equal(t, []string{"a", "b"}, r.ListReaders())
	assert.True(t, r.HasReader("a"))
	assert.False(t, r.HasWriter("a"))

	reader, err := r.CreateReader("b", config.NewDefault())
	require.NoError(t, err)
	assert.Equal(t, "b", reader.Name())

	_, err = r.CreateReader("a", config.NewDefault())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = r.CreateReader("missing", config.NewDefault())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: [a b]")
}

func TestRegistry_InfoAndClear(t *testing.T) {
	r := NewRegistry()
	r.RegisterInfo(&ConnectorInfo{Name: "x", Type: core.ConnectorTypeWriter, Description: "d"})

	info, ok := r.Info(core.ConnectorTypeWriter, "x")
	require.True(t, ok)
	assert.Equal(t, "d", info.Description)
	_, ok = r.Info(core.ConnectorTypeReader, "x")
	assert.False(t, ok)

	r.Clear()
	_, ok = r.Info(core.ConnectorTypeWriter, "x")
	assert.False(t, ok)
}
