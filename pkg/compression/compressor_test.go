package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	payload := strings.Repeat(`{"campaign":"spring","impressions":"10"}`+"\n", 200)

	for _, alg := range []Algorithm{None, Gzip, Zstd} {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg, Default)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if alg != None {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := map[string]Algorithm{"": None, "none": None, "GZIP": Gzip, "zstd": Zstd}
	for in, want := range tests {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseAlgorithm("lz4")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "", None.Extension())
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, ".zst", Zstd.Extension())
}
