package dv360

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/displayvideo/v3"
)

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return ctx.Err()
}

type fakeSDF struct {
	archive  []byte
	payload  *displayvideo.CreateSdfDownloadTaskRequest
	pending  int
	remote   *exportjob.RemoteError
	polls    int
	locators []string
}

func (f *fakeSDF) Submit(ctx context.Context, payload interface{}) (string, error) {
	f.payload = payload.(*displayvideo.CreateSdfDownloadTaskRequest)
	return "sdfdownloadtasks/operations/1", nil
}

func (f *fakeSDF) Poll(ctx context.Context, name string) (*exportjob.Status, error) {
	f.polls++
	if f.polls <= f.pending {
		return &exportjob.Status{}, nil
	}
	if f.remote != nil {
		return &exportjob.Status{Done: true, Err: f.remote}, nil
	}
	return &exportjob.Status{Done: true, ResultLocator: "sdfdownloadtasks/media/1"}, nil
}

func (f *fakeSDF) Download(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	f.locators = append(f.locators, locator)
	return io.NopCloser(bytes.NewReader(f.archive)), int64(len(f.archive)), nil
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.NewDefault()
	cfg.Staging.Dir = t.TempDir()
	cfg.DV360 = config.DV360Config{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ClientID:     "client",
		ClientSecret: "secret",
		AdvertiserID: "123",
		FileTypes:    []string{"FILE_TYPE_LINE_ITEM", "FILE_TYPE_CAMPAIGN"},
		FilterType:   FilterTypeAdvertiserID,
		SDFVersion:   "SDF_VERSION_7",
		DateFormat:   "2006-01-02",
		Format:       "json",
	}
	return cfg
}

func newTestReader(cfg *config.Config, client *fakeSDF) *Reader {
	r := NewReader(cfg)
	r.newClient = func(context.Context) (exportjob.Client, error) { return client, nil }
	r.pollOpts = []exportjob.Option{exportjob.WithClock(&instantClock{now: time.Unix(0, 0)})}
	return r
}

func sampleArchive(t *testing.T) []byte {
	return buildArchive(t, map[string]string{
		"SDF-LineItems.csv": "Line Item Id,Date\n1,03/15/2024\n2,03/16/2024\n",
		"SDF-Campaigns.csv": "Campaign Id,Name\n9,Spring\n",
		"SDF-AdGroups.csv":  "Ad Group Id\n5\n",
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.DV360Config)
	}{
		{"missing refresh token", func(o *config.DV360Config) { o.RefreshToken = "" }},
		{"non numeric advertiser", func(o *config.DV360Config) { o.AdvertiserID = "abc" }},
		{"no file types", func(o *config.DV360Config) { o.FileTypes = nil }},
		{"unknown file type", func(o *config.DV360Config) { o.FileTypes = []string{"FILE_TYPE_BOGUS"} }},
		{"duplicate file type", func(o *config.DV360Config) {
			o.FileTypes = []string{"FILE_TYPE_AD", "FILE_TYPE_AD"}
		}},
		{"unknown filter type", func(o *config.DV360Config) { o.FilterType = "FILTER_TYPE_X" }},
		{"filter ids required", func(o *config.DV360Config) { o.FilterType = FilterTypeLineItemID }},
		{"non numeric filter id", func(o *config.DV360Config) { o.FilterIDs = []string{"x"} }},
		{"bad format", func(o *config.DV360Config) { o.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg.DV360)
			client := &fakeSDF{}
			_, err := newTestReader(cfg, client).Read(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Nil(t, client.payload, "no remote call before validation")
		})
	}
}

func TestRequest(t *testing.T) {
	cfg := testConfig(t)
	req := NewReader(cfg).request()
	assert.Equal(t, int64(123), req.AdvertiserId)
	assert.Equal(t, "SDF_VERSION_7", req.Version)
	assert.Equal(t, []string{"FILE_TYPE_LINE_ITEM", "FILE_TYPE_CAMPAIGN"}, req.ParentEntityFilter.FileType)
	assert.Equal(t, FilterTypeAdvertiserID, req.ParentEntityFilter.FilterType)
	assert.Equal(t, []int64{123}, []int64(req.ParentEntityFilter.FilterIds))

	cfg.DV360.FilterType = FilterTypeCampaignID
	cfg.DV360.FilterIDs = []string{"7", "8"}
	req = NewReader(cfg).request()
	assert.Equal(t, []int64{7, 8}, []int64(req.ParentEntityFilter.FilterIds))
}

func TestRead_JSONChainsFilesInRequestOrder(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeSDF{archive: sampleArchive(t), pending: 2}
	r := newTestReader(cfg, client)

	streams, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "sdf", streams[0].Name())
	assert.Equal(t, core.FormatJSON, streams[0].Format())
	assert.Equal(t, 3, client.polls)
	assert.Equal(t, []string{"sdfdownloadtasks/media/1"}, client.locators)

	var out bytes.Buffer
	n, err := streams[0].Encode(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t,
		`{"Line Item Id":"1","Date":"2024-03-15"}`+"\n"+
			`{"Line Item Id":"2","Date":"2024-03-16"}`+"\n"+
			`{"Campaign Id":"9","Name":"Spring"}`+"\n",
		out.String())

	require.NoError(t, r.Close(context.Background()))
}

func TestRead_CSVEmitsOneStreamPerFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.DV360.Format = "csv"
	cfg.Output.ExtraColumn = config.ExtraColumnConfig{Name: "source", Value: "dv360"}
	r := newTestReader(cfg, &fakeSDF{archive: sampleArchive(t)})

	streams, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "sdf_LineItems", streams[0].Name())
	assert.Equal(t, "sdf_Campaigns", streams[1].Name())

	var out bytes.Buffer
	_, err = streams[1].Encode(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, "Campaign Id,Name,source\n9,Spring,dv360\n", out.String())
}

func TestRead_RemoteErrorKeepsCodeAndMessage(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeSDF{remote: &exportjob.RemoteError{Code: 3, Message: "invalid advertiser"}}
	_, err := newTestReader(cfg, client).Read(context.Background())
	require.Error(t, err)

	code, msg, ok := errors.RemoteDetails(err)
	require.True(t, ok)
	assert.Equal(t, int64(3), code)
	assert.Equal(t, "invalid advertiser", msg)
	assert.Empty(t, client.locators)
}

func TestRead_MissingFileInArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.DV360.FileTypes = []string{"FILE_TYPE_AD"}
	_, err := newTestReader(cfg, &fakeSDF{archive: sampleArchive(t)}).Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	assert.True(t, strings.Contains(err.Error(), "SDF-AdGroupAds.csv"))
}

func TestFileName(t *testing.T) {
	for _, ft := range FileTypes() {
		name, ok := FileName(ft)
		assert.True(t, ok, ft)
		assert.True(t, strings.HasPrefix(name, "SDF-"))
	}
	_, ok := FileName("FILE_TYPE_NOPE")
	assert.False(t, ok)
}
