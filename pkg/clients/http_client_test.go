package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testConfig() *HTTPConfig {
	cfg := DefaultHTTPConfig()
	cfg.RateLimitPerSec = 0
	cfg.Retry = base.NewRetryPolicy(3, time.Millisecond).WithSleep(noSleep)
	return cfg
}

func TestGetJSON_AuthenticatesAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "impressions", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"data":[{"impressions":"12"}]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
	c := NewHTTPClient(cfg, zap.NewNop())

	var out struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/v19.0/act_1/insights", url.Values{"fields": {"impressions"}}, &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "12", out.Data[0]["impressions"])
}

func TestGetJSON_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(), zap.NewNop())
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"expired"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(), zap.NewNop())
	err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Contains(t, err.Error(), "expired")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account", r.PostForm.Get("level"))
		_, _ = w.Write([]byte(`{"report_run_id":"77"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(), zap.NewNop())
	var out map[string]interface{}
	require.NoError(t, c.PostForm(context.Background(), srv.URL, url.Values{"level": {"account"}}, &out))
	assert.Equal(t, "77", out["report_run_id"])
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorType
	}{
		{429, errors.ErrorTypeRateLimit},
		{401, errors.ErrorTypeAuthentication},
		{403, errors.ErrorTypePermission},
		{404, errors.ErrorTypeNotFound},
		{500, errors.ErrorTypeConnection},
		{503, errors.ErrorTypeConnection},
		{400, errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		err := ClassifyStatus(tt.status, []byte("x"))
		assert.True(t, errors.IsType(err, tt.want), "status %d", tt.status)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}
