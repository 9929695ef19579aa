package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    map[string]any
}

// fakeAPI serves a canned response and records the last request it received.
func fakeAPI(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Headers = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		captured.Body = nil
		_ = json.Unmarshal(data, &captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL+"/api/v2", "redranks.test", "test-key", WithRateLimit(0, 0))
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(DefaultBaseURL, DefaultHost, "  ")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewDerivesHost(t *testing.T) {
	c, err := New("https://example.test/api/v2/", "", "k")
	require.NoError(t, err)
	assert.Equal(t, "example.test", c.host)
	assert.Equal(t, "https://example.test/api/v2", c.baseURL)
}

func TestKeywordMetricsRequestAndDecode(t *testing.T) {
	srv, got := fakeAPI(t, http.StatusOK, `{
		"keywords": [{
			"keyword": "crm software",
			"volume": 49500,
			"cpc": 41.256,
			"keyword_difficulty": 72,
			"search_intent": "commercial",
			"related_keywords": [{"keyword": "best crm", "volume": 12100}]
		}],
		"credits_used": 1
	}`)
	c := newTestClient(t, srv.URL)

	req := NewKeywordMetricsRequest("crm software")
	req.IncludeRelated = true
	resp, err := c.KeywordMetrics(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/v2/keyword-metrics", got.Path)
	assert.Equal(t, "test-key", got.Headers.Get("X-RapidAPI-Key"))
	assert.Equal(t, "redranks.test", got.Headers.Get("X-RapidAPI-Host"))
	assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	assert.Equal(t, []any{"crm software"}, got.Body["keywords"])
	assert.Equal(t, true, got.Body["include_related"])
	assert.Equal(t, float64(5), got.Body["max_related"])

	require.Len(t, resp.Keywords, 1)
	kw := resp.Keywords[0]
	assert.Equal(t, int64(49500), kw.Volume)
	assert.InDelta(t, 41.256, kw.CPC, 1e-9)
	assert.Equal(t, 72, kw.KeywordDifficulty)
	require.Len(t, kw.RelatedKeywords, 1)
	assert.Equal(t, "best crm", kw.RelatedKeywords[0].Keyword)
	assert.Contains(t, string(resp.Raw), "credits_used")
}

func TestSERPAnalysisDefaults(t *testing.T) {
	srv, got := fakeAPI(t, http.StatusOK, `{
		"keyword": "best crm software",
		"serp_features": {"has_ai_overview": true, "has_discussion_box": true},
		"discussion_positions": [3, 7],
		"organic_results": [
			{"position": 1, "domain": "hubspot.com"},
			{"position": 3, "domain": "reddit.com", "is_discussion": true}
		]
	}`)
	c := newTestClient(t, srv.URL)

	resp, err := c.SERPAnalysis(context.Background(), SERPAnalysisRequest{Keyword: " best crm software "})
	require.NoError(t, err)

	assert.Equal(t, "best crm software", got.Body["keyword"])
	assert.Equal(t, float64(10), got.Body["max_results"])
	assert.True(t, resp.SERPFeatures.HasAIOverview)
	assert.False(t, resp.SERPFeatures.HasFeaturedSnippet)
	assert.Equal(t, []int{3, 7}, resp.DiscussionPositions)
	require.Len(t, resp.OrganicResults, 2)
	assert.True(t, resp.OrganicResults[1].IsDiscussion)
}

func TestDiscoverThreadsSendsNullsForUnsetBrand(t *testing.T) {
	srv, got := fakeAPI(t, http.StatusOK, `{"keyword": "crm", "threads": []}`)
	c := newTestClient(t, srv.URL)

	_, err := c.DiscoverThreads(context.Background(), NewDiscoverThreadsRequest("crm"))
	require.NoError(t, err)

	require.Contains(t, got.Body, "your_brand")
	assert.Nil(t, got.Body["your_brand"])
	require.Contains(t, got.Body, "competitors")
	assert.Nil(t, got.Body["competitors"])
	assert.Equal(t, float64(10), got.Body["max_threads"])
	assert.Equal(t, float64(5), got.Body["max_comments_per_thread"])
	assert.Equal(t, "balanced", got.Body["data_freshness"])
}

func TestDiscoverThreadsDecodesOrderedSentiments(t *testing.T) {
	srv, got := fakeAPI(t, http.StatusOK, `{
		"keyword": "CRM software",
		"keyword_metrics": {"volume": 33100},
		"summary": {"total_threads": 1, "estimated_monthly_traffic": 2400},
		"threads": [{
			"title": "Which CRM?",
			"url": "https://reddit.com/r/sales/comments/abc/which_crm/",
			"estimated_traffic": 2400,
			"priority": "high",
			"source": 2,
			"analysis": {"brand_sentiments": {
				"Salesforce": {"positive": 1, "negative": 3, "complaints": ["price"]},
				"HubSpot": {"positive": 4, "praise": ["free tier"]}
			}}
		}]
	}`)
	c := newTestClient(t, srv.URL)

	brand := "Acme CRM"
	req := NewDiscoverThreadsRequest("CRM software")
	req.YourBrand = &brand
	req.Competitors = []string{"HubSpot", "Salesforce"}
	resp, err := c.DiscoverThreads(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Acme CRM", got.Body["your_brand"])
	assert.Equal(t, []any{"HubSpot", "Salesforce"}, got.Body["competitors"])

	assert.Equal(t, int64(33100), resp.KeywordMetrics.Volume)
	assert.Equal(t, int64(2400), resp.Summary.EstimatedMonthlyTraffic)
	require.Len(t, resp.Threads, 1)
	th := resp.Threads[0]
	assert.Equal(t, Label("high"), th.Priority)
	assert.Equal(t, Label("2"), th.Source)
	assert.Equal(t, []string{"Salesforce", "HubSpot"}, th.Analysis.BrandSentiments.Brands())
	hs, ok := th.Analysis.BrandSentiments.Get("HubSpot")
	require.True(t, ok)
	assert.Equal(t, 4, hs.Positive)
	assert.Equal(t, []string{"free tier"}, hs.Praise)
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusForbidden, `{"message":"You are not subscribed to this API."}`)
	c := newTestClient(t, srv.URL)

	_, err := c.SERPAnalysis(context.Background(), NewSERPAnalysisRequest("crm"))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, EndpointSERPAnalysis, apiErr.Endpoint)
	assert.Contains(t, apiErr.Error(), "not subscribed")
	assert.True(t, IsAPIError(err))
}

func TestAPIErrorTruncatesOnRunes(t *testing.T) {
	err := &APIError{Endpoint: EndpointSERPAnalysis, StatusCode: 500, Body: strings.Repeat("x", 199) + "日本語"}
	msg := err.Error()

	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, strings.Repeat("x", 199)+"日..."))

	short := &APIError{Endpoint: EndpointSERPAnalysis, StatusCode: 502}
	assert.Equal(t, "/serp-analysis returned status 502", short.Error())
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.DiscoverThreads(context.Background(), NewDiscoverThreadsRequest("x"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "keyword", vErr.Field)
	assert.Zero(t, calls)
}

func TestMalformedJSONIsAnError(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, `{"keywords": [`)
	c := newTestClient(t, srv.URL)

	_, err := c.KeywordMetrics(context.Background(), NewKeywordMetricsRequest("crm"))
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, `{"keywords": []}`)
	c, err := New(srv.URL, "", "k", WithRateLimit(1, 1))
	require.NoError(t, err)

	_, err = c.KeywordMetrics(context.Background(), NewKeywordMetricsRequest("crm"))
	require.NoError(t, err)

	// The single token is spent; the next call would wait about a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.KeywordMetrics(ctx, NewKeywordMetricsRequest("crm"))
	require.Error(t, err)
}
