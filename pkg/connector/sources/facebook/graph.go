package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"iter"
	"net/url"
	"strings"

	"github.com/ajitpratap0/adreader/pkg/clients"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/json"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the Graph API host
const DefaultEndpoint = "https://graph.facebook.com"

// Rows is a lazy sequence of raw Graph objects
type Rows = iter.Seq2[map[string]interface{}, error]

// page is one page of an edge listing
type page struct {
	Data   []map[string]interface{} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// graphError is the error envelope of the Graph API
type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// graphClient issues Graph API requests for one access token.
type graphClient struct {
	http     *clients.HTTPClient
	endpoint string
	version  string
	proof    string
}

func newGraphClient(o config.FacebookConfig, rel config.ReliabilityConfig, logger *zap.Logger) *graphClient {
	httpCfg := &clients.HTTPConfig{
		Timeout:         rel.RequestTimeout,
		RateLimitPerSec: rel.RateLimitPerSec,
		RateLimitBurst:  rel.RateLimitBurst,
		UserAgent:       "adreader-facebook",
		TokenSource:     oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.AccessToken, TokenType: "Bearer"}),
		Retry:           base.HTTPPolicyFromConfig(rel),
		Classify:        classifyGraphError,
	}

	endpoint := strings.TrimRight(o.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	g := &graphClient{
		http:     clients.NewHTTPClient(httpCfg, logger),
		endpoint: endpoint,
		version:  o.APIVersion,
	}
	if o.AppSecret != "" {
		g.proof = appSecretProof(o.AccessToken, o.AppSecret)
	}
	return g
}

// appSecretProof signs the access token with the app secret.
func appSecretProof(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *graphClient) url(path ...string) string {
	return g.endpoint + "/" + g.version + "/" + strings.Join(path, "/")
}

func (g *graphClient) sign(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = v
	}
	if g.proof != "" {
		out.Set("appsecret_proof", g.proof)
	}
	return out
}

// get fetches one node.
func (g *graphClient) get(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	return g.http.GetJSON(ctx, rawURL, g.sign(params), out)
}

// post creates an object under rawURL.
func (g *graphClient) post(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	return g.http.PostForm(ctx, rawURL, g.sign(params), out)
}

// node yields the single object at rawURL.
func (g *graphClient) node(ctx context.Context, rawURL string, params url.Values) Rows {
	return func(yield func(map[string]interface{}, error) bool) {
		var obj map[string]interface{}
		if err := g.get(ctx, rawURL, params, &obj); err != nil {
			yield(nil, err)
			return
		}
		yield(obj, nil)
	}
}

// pages yields every object of an edge, following paging.next until the
// last page. Pages are requested as the sequence is consumed.
func (g *graphClient) pages(ctx context.Context, rawURL string, params url.Values) Rows {
	return func(yield func(map[string]interface{}, error) bool) {
		next, query := rawURL, params
		for next != "" {
			var p page
			var err error
			if query != nil {
				err = g.get(ctx, next, query, &p)
			} else {
				// paging.next already carries every query parameter
				err = g.http.GetJSON(ctx, next, nil, &p)
			}
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range p.Data {
				if !yield(row, nil) {
					return
				}
			}
			next, query = p.Paging.Next, nil
		}
	}
}

// classifyGraphError types Graph API error responses. Throttling codes are
// retryable even when returned with status 400.
func classifyGraphError(status int, body []byte) error {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err != nil || ge.Error.Message == "" {
		return clients.ClassifyStatus(status, body)
	}

	e := ge.Error
	var errType errors.ErrorType
	switch {
	case e.Code == 4 || e.Code == 17 || e.Code == 32 || e.Code == 613 || (e.Code >= 80000 && e.Code <= 80014):
		errType = errors.ErrorTypeRateLimit
	case e.Code == 1 || e.Code == 2:
		errType = errors.ErrorTypeConnection
	case e.Code == 102 || e.Code == 190:
		errType = errors.ErrorTypeAuthentication
	case e.Code == 10 || (e.Code >= 200 && e.Code <= 299):
		errType = errors.ErrorTypePermission
	default:
		typed, _ := clients.ClassifyStatus(status, nil).(*errors.Error)
		errType = typed.Type
	}
	return errors.Newf(errType, "graph API error %d (%s): %s", e.Code, e.Type, e.Message).
		WithDetail("status", status).
		WithDetail("subcode", e.ErrorSubcode).
		WithDetail("fbtrace_id", e.FBTraceID)
}
