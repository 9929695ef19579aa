package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/redranks/internal/logger"
)

const (
	DefaultBaseURL = "https://reddit-traffic-and-intelligence-api.p.rapidapi.com/api/v2"
	DefaultHost    = "reddit-traffic-and-intelligence-api.p.rapidapi.com"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "redranks-cli/1.0"
	maxResponseBytes = 8 << 20
)

// Client calls the RedRanks SEO intelligence API through RapidAPI.
type Client struct {
	baseURL   string
	host      string
	apiKey    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// WithRateLimit throttles outgoing calls to requestsPerMinute with the given
// burst. A non-positive rate disables throttling.
func WithRateLimit(requestsPerMinute float64, burst int) Option {
	return func(cl *Client) {
		if requestsPerMinute <= 0 {
			cl.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			cl.userAgent = ua
		}
	}
}

// New creates a client for the given base URL and RapidAPI host. An empty
// host is derived from the base URL.
func New(baseURL, host, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if host == "" {
		host = hostOf(baseURL)
	}

	cl := &Client{
		baseURL:   baseURL,
		host:      host,
		apiKey:    apiKey,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(cl)
	}
	return cl, nil
}

// KeywordMetrics returns volume, CPC, difficulty and related keywords.
func (c *Client) KeywordMetrics(ctx context.Context, req KeywordMetricsRequest) (*KeywordMetricsResponse, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out KeywordMetricsResponse
	raw, err := c.post(ctx, EndpointKeywordMetrics, req, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// SERPAnalysis returns SERP features, discussion positions and organic results.
func (c *Client) SERPAnalysis(ctx context.Context, req SERPAnalysisRequest) (*SERPAnalysisResponse, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out SERPAnalysisResponse
	raw, err := c.post(ctx, EndpointSERPAnalysis, req, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// DiscoverThreads returns Reddit threads ranking for a keyword along with
// traffic estimates and per-brand sentiment.
func (c *Client) DiscoverThreads(ctx context.Context, req DiscoverThreadsRequest) (*DiscoverThreadsResponse, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out DiscoverThreadsResponse
	raw, err := c.post(ctx, EndpointDiscoverThreads, req, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// post sends one JSON request and decodes the response into out. The raw
// body is returned for callers that print or persist it.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	logger.Log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"bytes":    len(respBody),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Debug("api call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return json.RawMessage(respBody), nil
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
