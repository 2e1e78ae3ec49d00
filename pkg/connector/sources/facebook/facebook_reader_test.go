package facebook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []*http.Request
}

func newGraphServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, base string)) *graphServer {
	t.Helper()
	gs := &graphServer{}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gs.mu.Lock()
		gs.requests = append(gs.requests, r)
		gs.mu.Unlock()
		handler(w, r, gs.URL)
	}))
	t.Cleanup(gs.Close)
	return gs
}

func (gs *graphServer) count() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.requests)
}

func (gs *graphServer) request(i int) *http.Request {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.requests[i]
}

func testConfig(endpoint string) *config.Config {
	cfg := config.NewDefault()
	cfg.Reliability.RateLimitPerSec = 0
	cfg.Reliability.RetryAttempts = 2
	cfg.Reliability.RetryDelay = time.Millisecond
	cfg.Reliability.RetryMaxDelay = time.Millisecond
	cfg.Facebook.AccessToken = "token"
	cfg.Facebook.AppSecret = "secret"
	cfg.Facebook.ObjectIDs = []string{"123"}
	cfg.Facebook.Fields = []string{"impressions"}
	cfg.Facebook.Endpoint = endpoint
	return cfg
}

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newTestReader(cfg *config.Config) *Reader {
	r := NewReader(cfg)
	r.now = func() time.Time { return time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC) }
	r.pollOpts = []exportjob.Option{exportjob.WithClock(&instantClock{now: time.Unix(0, 0)})}
	return r
}

func readAll(t *testing.T, r *Reader) (string, error) {
	t.Helper()
	streams, err := r.Read(context.Background())
	if err != nil {
		return "", err
	}
	require.Len(t, streams, 1)
	var out bytes.Buffer
	_, err = streams[0].Encode(context.Background(), &out)
	return out.String(), err
}

func TestRead_InsightsPagesAndFlattens(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(`{"data":[{"impressions":"10","age":"18-24","actions":[{"action_type":"link_click","value":"3"},{"action_type":"like","value":"1"}]}],
				"paging":{"next":"` + base + `/v19.0/act_123/insights?after=c2"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"impressions":"20","age":"25-34","actions":[]}],"paging":{}}`))
	})

	cfg := testConfig(gs.URL)
	cfg.Facebook.Fields = []string{"impressions", "age", "actions[action_type:link_click]"}
	cfg.Facebook.Breakdowns = []string{"age"}
	cfg.Facebook.ActionBreakdowns = []string{"action_type"}
	cfg.Facebook.DatePreset = "last_7d"

	out, err := readAll(t, newTestReader(cfg))
	require.NoError(t, err)
	assert.Equal(t,
		`{"impressions":"10","age":"18-24","actions[action_type:link_click]":"3"}`+"\n"+
			`{"impressions":"20","age":"25-34","actions[action_type:link_click]":null}`+"\n",
		out)

	require.Equal(t, 2, gs.count())
	first := gs.request(0)
	assert.Equal(t, "/v19.0/act_123/insights", first.URL.Path)
	q := first.URL.Query()
	assert.Equal(t, "impressions,actions", q.Get("fields"))
	assert.Equal(t, "age", q.Get("breakdowns"))
	assert.Equal(t, "action_type", q.Get("action_breakdowns"))
	assert.Equal(t, "account", q.Get("level"))
	assert.Equal(t, "last_7d", q.Get("date_preset"))
	assert.Equal(t, "500", q.Get("limit"))
	assert.Equal(t, "Bearer token", first.Header.Get("Authorization"))

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("token"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), q.Get("appsecret_proof"))
}

func TestRead_MultiDimensionalBreakdownMatchesAll(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"data":[{"actions":[
			{"action_type":"link_click","action_device":"android","value":1},
			{"action_type":"like","action_device":"iphone","value":2},
			{"action_type":"link_click","action_device":"iphone","value":0},
			{"action_type":"like","action_device":"android","value":3}]}]}`))
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.Fields = []string{"actions[action_type:link_click][action_device:iphone]"}
	cfg.Facebook.ActionBreakdowns = []string{"action_type", "action_device"}

	out, err := readAll(t, newTestReader(cfg))
	require.NoError(t, err)
	assert.Equal(t, `{"actions[action_type:link_click][action_device:iphone]":0}`+"\n", out)
}

func TestRead_ObjectNodeEdge(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Spring","targeting":{"age_min":18}}]}`))
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.AdInsights = false
	cfg.Facebook.Level = ObjectCampaign
	cfg.Facebook.Fields = []string{"id", "name", "targeting[age_min]"}
	cfg.Facebook.ObjectIDs = []string{"act_123", "456"}

	r := newTestReader(cfg)
	streams, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "results_account_act_123_456", streams[0].Name())

	var out bytes.Buffer
	n, err := streams[0].Encode(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, out.String(), `{"id":"1","name":"Spring","targeting[age_min]":18}`)

	require.Equal(t, 2, gs.count())
	assert.Equal(t, "/v19.0/act_123/campaigns", gs.request(0).URL.Path)
	assert.Equal(t, "/v19.0/act_456/campaigns", gs.request(1).URL.Path)
	assert.Equal(t, "id,name,targeting", gs.request(0).URL.Query().Get("fields"))
}

func TestRead_ObjectNodeSameLevel(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"id":"9","status":"ACTIVE"}`))
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.AdInsights = false
	cfg.Facebook.ObjectType = ObjectAd
	cfg.Facebook.Level = ObjectAd
	cfg.Facebook.Fields = []string{"id", "status", "missing"}
	cfg.Facebook.ObjectIDs = []string{"9"}

	out, err := readAll(t, newTestReader(cfg))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"9","status":"ACTIVE","missing":null}`+"\n", out)
	assert.Equal(t, "/v19.0/9", gs.request(0).URL.Path)
}

func TestRead_AddDateToReport(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"data":[{"spend":"1.5"}]}`))
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.Fields = []string{"spend"}
	cfg.Facebook.DateRange = "YESTERDAY"
	cfg.Facebook.AddDateToReport = true

	out, err := readAll(t, newTestReader(cfg))
	require.NoError(t, err)
	assert.Equal(t, `{"spend":"1.5","date_start":"2024-03-19","date_stop":"2024-03-19"}`+"\n", out)
	assert.Equal(t, `{"since":"2024-03-19","until":"2024-03-19"}`, gs.request(0).URL.Query().Get("time_range"))
}

func TestRead_AsyncReportRun(t *testing.T) {
	var polls int32
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v19.0/act_123/insights":
			_, _ = w.Write([]byte(`{"report_run_id":"777"}`))
		case r.URL.Path == "/v19.0/777":
			if atomic.AddInt32(&polls, 1) < 3 {
				_, _ = w.Write([]byte(`{"async_status":"Job Running","async_percent_completion":40}`))
				return
			}
			_, _ = w.Write([]byte(`{"async_status":"Job Completed","async_percent_completion":100}`))
		case r.URL.Path == "/v19.0/777/insights":
			_, _ = w.Write([]byte(`{"data":[{"impressions":"5"}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.Async = true

	out, err := readAll(t, newTestReader(cfg))
	require.NoError(t, err)
	assert.Equal(t, `{"impressions":"5"}`+"\n", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))

	post := gs.request(0)
	assert.Equal(t, http.MethodPost, post.Method)
	assert.Equal(t, "impressions", post.PostForm.Get("fields"))
	assert.Empty(t, post.PostForm.Get("limit"))
	assert.NotEmpty(t, post.PostForm.Get("appsecret_proof"))
}

func TestRead_AsyncReportRunFailed(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"report_run_id":"778"}`))
			return
		}
		_, _ = w.Write([]byte(`{"async_status":"Job Failed","async_percent_completion":10}`))
	})
	cfg := testConfig(gs.URL)
	cfg.Facebook.Async = true

	_, err := newTestReader(cfg).Read(context.Background())
	require.Error(t, err)
	_, msg, ok := errors.RemoteDetails(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Job Failed"))
}

func TestRead_GraphErrors(t *testing.T) {
	gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	})
	_, err := readAll(t, newTestReader(testConfig(gs.URL)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Equal(t, 1, gs.count(), "authentication errors are not retried")
}

func TestRead_ValidationHappensBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.FacebookConfig)
	}{
		{"missing token", func(o *config.FacebookConfig) { o.AccessToken = "" }},
		{"no object ids", func(o *config.FacebookConfig) { o.ObjectIDs = nil }},
		{"malformed field", func(o *config.FacebookConfig) { o.Fields = []string{"actions[action_type:link_click"} }},
		{"level above object type", func(o *config.FacebookConfig) {
			o.ObjectType = ObjectAdSet
			o.Level = ObjectCampaign
		}},
		{"insights on creatives", func(o *config.FacebookConfig) { o.Level = ObjectCreative }},
		{"undeclared breakdown field", func(o *config.FacebookConfig) { o.Fields = []string{"age"} }},
		{"undeclared action breakdown", func(o *config.FacebookConfig) {
			o.Fields = []string{"actions[action_type:like]"}
		}},
		{"unknown breakdown", func(o *config.FacebookConfig) { o.Breakdowns = []string{"shoe_size"} }},
		{"breakdowns on object nodes", func(o *config.FacebookConfig) {
			o.AdInsights = false
			o.Breakdowns = []string{"age"}
		}},
		{"action breakdowns on object nodes", func(o *config.FacebookConfig) {
			o.AdInsights = false
			o.ActionBreakdowns = []string{"action_type"}
		}},
		{"async without ad insights", func(o *config.FacebookConfig) {
			o.AdInsights = false
			o.Async = true
		}},
		{"async without poll bound", func(o *config.FacebookConfig) {
			o.Async = true
			o.PollInterval.MaxElapsed = 0
		}},
		{"async without backoff", func(o *config.FacebookConfig) {
			o.Async = true
			o.PollInterval.Multiplier = 0
		}},
		{"time increment on object nodes", func(o *config.FacebookConfig) {
			o.AdInsights = false
			o.TimeIncrement = "1"
		}},
		{"bad time increment", func(o *config.FacebookConfig) { o.TimeIncrement = "weekly" }},
		{"start without end", func(o *config.FacebookConfig) { o.StartDate = "2024-01-01" }},
		{"start after end", func(o *config.FacebookConfig) {
			o.StartDate = "2024-02-01"
			o.EndDate = "2024-01-01"
		}},
		{"two date options", func(o *config.FacebookConfig) {
			o.DatePreset = "last_7d"
			o.DateRange = "YESTERDAY"
		}},
		{"unknown date range", func(o *config.FacebookConfig) { o.DateRange = "LAST_CENTURY" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newGraphServer(t, func(w http.ResponseWriter, r *http.Request, base string) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			})
			cfg := testConfig(gs.URL)
			tt.mutate(&cfg.Facebook)

			_, err := newTestReader(cfg).Read(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), err.Error())
			assert.Zero(t, gs.count())
		})
	}
}

func TestClassifyGraphError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   errors.ErrorType
	}{
		{400, `{"error":{"message":"User request limit reached","code":17}}`, errors.ErrorTypeRateLimit},
		{400, `{"error":{"message":"Ads API limit","code":80004}}`, errors.ErrorTypeRateLimit},
		{500, `{"error":{"message":"Unknown error","code":1}}`, errors.ErrorTypeConnection},
		{403, `{"error":{"message":"Permission denied","code":200}}`, errors.ErrorTypePermission},
		{400, `{"error":{"message":"Invalid parameter","code":100}}`, errors.ErrorTypeValidation},
		{502, `<html>bad gateway</html>`, errors.ErrorTypeConnection},
	}
	for _, tt := range tests {
		err := classifyGraphError(tt.status, []byte(tt.body))
		assert.True(t, errors.IsType(err, tt.want), tt.body)
	}
}
