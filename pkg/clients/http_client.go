// Package clients provides the HTTP client used for JSON REST APIs: every
// request is rate limited, authenticated from an oauth2 token source and
// retried with backoff when the failure is transient.
package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/adreader/pkg/connector/base"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/json"
	"github.com/ajitpratap0/adreader/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// ErrorClassifier turns a non-2xx response into a typed error.
type ErrorClassifier func(statusCode int, body []byte) error

// HTTPConfig configures an HTTPClient
type HTTPConfig struct {
	Timeout         time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
	UserAgent       string
	// TokenSource authenticates requests; nil sends them unauthenticated
	TokenSource oauth2.TokenSource
	// Retry handles transient failures; nil disables retries
	Retry *base.RetryPolicy
	// Classify maps error responses; nil uses ClassifyStatus
	Classify ErrorClassifier
	// Transport overrides the base round tripper
	Transport http.RoundTripper
}

// DefaultHTTPConfig returns a sensible default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Timeout:         2 * time.Minute,
		RateLimitPerSec: 5,
		RateLimitBurst:  5,
		UserAgent:       "adreader",
		Retry:           base.DefaultRetryPolicy(),
	}
}

// HTTPClient sends JSON API requests
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	limiter    RateLimiter
}

// NewHTTPClient creates a client from config
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	transport := config.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if config.TokenSource != nil {
		transport = &oauth2.Transport{Source: config.TokenSource, Base: transport}
	}
	if config.Classify == nil {
		config.Classify = ClassifyStatus
	}
	if config.Retry == nil {
		config.Retry = base.NoRetryPolicy()
	}

	return &HTTPClient{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		limiter: NewRateLimiter(config.RateLimitPerSec, config.RateLimitBurst),
	}
}

// GetJSON sends a GET request and decodes the JSON response into out
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, rawURL, nil, out)
}

// PostForm sends a form-encoded POST request and decodes the JSON response
func (c *HTTPClient) PostForm(ctx context.Context, rawURL string, form url.Values, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, rawURL, form, out)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, rawURL string, form url.Values, out interface{}) error {
	return c.config.Retry.ExecuteWithCondition(ctx, func() error {
		body, err := c.do(ctx, method, rawURL, form)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode response")
		}
		return nil
	}, func(err error) bool {
		if errors.IsRetryable(err) {
			c.logger.Warn("request failed, retrying", zap.String("method", method), zap.String("url", redact(rawURL)), zap.Error(err))
			return true
		}
		return false
	})
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "rate limiter wait cancelled")
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to build request")
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(req.URL.Host, "error").Inc()
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "request cancelled")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
	}
	defer resp.Body.Close()
	metrics.HTTPRequests.WithLabelValues(req.URL.Host, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response")
		}
		return data, nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, c.config.Classify(resp.StatusCode, data)
}

// ClassifyStatus maps an HTTP status to an error type
func ClassifyStatus(statusCode int, body []byte) error {
	msg := fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(string(body)))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrorTypeRateLimit, msg)
	case statusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrorTypeAuthentication, msg)
	case statusCode == http.StatusForbidden:
		return errors.New(errors.ErrorTypePermission, msg)
	case statusCode == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, msg)
	case statusCode == http.StatusRequestTimeout, statusCode >= 500:
		return errors.New(errors.ErrorTypeConnection, msg)
	default:
		return errors.New(errors.ErrorTypeValidation, msg)
	}
}

// redact drops query parameters, which may carry tokens
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
