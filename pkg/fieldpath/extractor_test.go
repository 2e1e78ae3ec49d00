package fieldpath

import (
	"iter"
	"testing"

	"github.com/ajitpratap0/adreader/pkg/json"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustExtractor(t *testing.T, fields ...string) *Extractor {
	t.Helper()
	exprs, err := ParseAll(fields)
	require.NoError(t, err)
	return NewExtractor(exprs)
}

func decode(t *testing.T, doc string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		raw    string
		want   map[string]interface{}
	}{
		{
			name:   "simple field",
			fields: []string{"clicks", "gender"},
			raw:    `{"clicks":"0","date_start":"2024-01-01","gender":"unknown"}`,
			want:   map[string]interface{}{"clicks": "0", "gender": "unknown"},
		},
		{
			name:   "nested key",
			fields: []string{"name", "creative[id]"},
			raw:    `{"name":"my ad","creative":{"id":"123456789"}}`,
			want:   map[string]interface{}{"name": "my ad", "creative[id]": "123456789"},
		},
		{
			name:   "filter selects first match",
			fields: []string{"actions[action_type:link_click]"},
			raw: `{"actions":[
				{"action_type":"video_view","value":"7"},
				{"action_type":"link_click","value":"3"},
				{"action_type":"link_click","value":"9"}]}`,
			want: map[string]interface{}{"actions[action_type:link_click]": "3"},
		},
		{
			name:   "filters combine with AND",
			fields: []string{"actions[action_type:video_view][action_device:iphone]"},
			raw: `{"actions":[
				{"action_type":"video_view","action_device":"android","value":"1"},
				{"action_type":"link_click","action_device":"iphone","value":"2"},
				{"action_type":"video_view","action_device":"iphone","value":"3"}]}`,
			want: map[string]interface{}{"actions[action_type:video_view][action_device:iphone]": "3"},
		},
		{
			name:   "named sub-value after filter",
			fields: []string{"actions[action_type:link_click][1d_click]"},
			raw:    `{"actions":[{"action_type":"link_click","value":"5","1d_click":"2"}]}`,
			want:   map[string]interface{}{"actions[action_type:link_click][1d_click]": "2"},
		},
		{
			name:   "field not in record",
			fields: []string{"impressions", "age"},
			raw:    `{"impressions":"10"}`,
			want:   map[string]interface{}{"impressions": "10", "age": nil},
		},
		{
			name:   "requested field absent is null",
			fields: []string{"impressions", "clicks"},
			raw:    `{"impressions":"1"}`,
			want:   map[string]interface{}{"impressions": "1", "clicks": nil},
		},
		{
			name:   "breakdown key absent from every element",
			fields: []string{"actions[action_device:desktop]"},
			raw:    `{"actions":[{"action_type":"link_click","value":"1"}]}`,
			want:   map[string]interface{}{"actions[action_device:desktop]": nil},
		},
		{
			name:   "missing intermediate key",
			fields: []string{"link_url_asset[website_url]"},
			raw:    `{"link_url_asset":{"id":"1"}}`,
			want:   map[string]interface{}{"link_url_asset[website_url]": nil},
		},
		{
			name:   "array without filter",
			fields: []string{"actions"},
			raw:    `{"actions":[{"action_type":"link_click","value":"1"}]}`,
			want:   map[string]interface{}{"actions": nil},
		},
		{
			name:   "filter on object",
			fields: []string{"creative[id:1]"},
			raw:    `{"creative":{"id":"1","value":"x"}}`,
			want:   map[string]interface{}{"creative[id:1]": nil},
		},
		{
			name:   "key lookup past scalar",
			fields: []string{"clicks[value]"},
			raw:    `{"clicks":"4"}`,
			want:   map[string]interface{}{"clicks[value]": nil},
		},
		{
			name:   "object leaf passes through",
			fields: []string{"creative"},
			raw:    `{"creative":{"id":"1"}}`,
			want:   map[string]interface{}{"creative": map[string]interface{}{"id": "1"}},
		},
		{
			name:   "numeric filter value",
			fields: []string{"cards[index:2]"},
			raw:    `{"cards":[{"index":1,"value":"a"},{"index":2,"value":"b"}]}`,
			want:   map[string]interface{}{"cards[index:2]": "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := mustExtractor(t, tt.fields...)
			row := x.Extract(decode(t, tt.raw))
			assert.Equal(t, tt.fields, row.Keys())
			assert.Equal(t, tt.want, row.Map())
		})
	}
}

func TestExtract_EmptyRecord(t *testing.T) {
	x := mustExtractor(t, "impressions", "creative[id]", "actions[action_type:link_click]")
	row := x.Extract(map[string]interface{}{})

	assert.Equal(t, 3, row.Len())
	for _, k := range row.Keys() {
		v, ok := row.Get(k)
		assert.True(t, ok)
		assert.Nil(t, v)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	x := mustExtractor(t, "spend", "actions[action_type:link_click]", "impressions")
	raw := decode(t, `{"impressions":"1","spend":"2","actions":[{"action_type":"link_click","value":"3"}]}`)

	first, err := x.Extract(raw).MarshalJSON()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := x.Extract(raw).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Equal(t, `{"spend":"2","actions[action_type:link_click]":"3","impressions":"1"}`, string(first))
}

func TestBaseFields(t *testing.T) {
	x := mustExtractor(t,
		"impressions",
		"actions[action_type:link_click]",
		"actions[action_type:video_view]",
		"link_url_asset[website_url]",
	)
	assert.Equal(t, []string{"impressions", "actions", "link_url_asset"}, x.BaseFields())
}

func TestExtractAll(t *testing.T) {
	x := mustExtractor(t, "clicks")
	var src iter.Seq2[map[string]interface{}, error] = func(yield func(map[string]interface{}, error) bool) {
		if !yield(map[string]interface{}{"clicks": "1"}, nil) {
			return
		}
		if !yield(map[string]interface{}{}, nil) {
			return
		}
	}

	var rows []*models.Record
	for row, err := range x.ExtractAll(src) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]interface{}{"clicks": "1"}, rows[0].Map())
	assert.Equal(t, map[string]interface{}{"clicks": nil}, rows[1].Map())
}
