package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Endpoints served under the v2 base URL.
const (
	EndpointKeywordMetrics  = "/keyword-metrics"
	EndpointSERPAnalysis    = "/serp-analysis"
	EndpointDiscoverThreads = "/discover-threads"
)

// Data freshness modes accepted by /discover-threads.
const (
	FreshnessRealtime = "realtime"
	FreshnessBalanced = "balanced"
	FreshnessCustom   = "custom"
)

// KeywordMetricsRequest is the body of POST /keyword-metrics.
type KeywordMetricsRequest struct {
	Keywords       []string `json:"keywords"`
	IncludeRelated bool     `json:"include_related"`
	MaxRelated     int      `json:"max_related"`
}

// NewKeywordMetricsRequest returns a request with the documented defaults.
func NewKeywordMetricsRequest(keywords ...string) KeywordMetricsRequest {
	return KeywordMetricsRequest{Keywords: keywords, MaxRelated: 5}
}

type KeywordMetricsResponse struct {
	Keywords []KeywordMetric `json:"keywords"`

	Raw json.RawMessage `json:"-"`
}

type KeywordMetric struct {
	Keyword           string           `json:"keyword"`
	Volume            int64            `json:"volume"`
	CPC               float64          `json:"cpc"`
	KeywordDifficulty int              `json:"keyword_difficulty"`
	SearchIntent      string           `json:"search_intent"`
	RelatedKeywords   []RelatedKeyword `json:"related_keywords"`
}

type RelatedKeyword struct {
	Keyword string `json:"keyword"`
	Volume  int64  `json:"volume"`
}

// SERPAnalysisRequest is the body of POST /serp-analysis.
type SERPAnalysisRequest struct {
	Keyword         string `json:"keyword"`
	IncludeFeatures bool   `json:"include_features"`
	MaxResults      int    `json:"max_results"`
}

// NewSERPAnalysisRequest returns a request with the documented defaults.
func NewSERPAnalysisRequest(keyword string) SERPAnalysisRequest {
	return SERPAnalysisRequest{Keyword: keyword, IncludeFeatures: true, MaxResults: 10}
}

type SERPAnalysisResponse struct {
	Keyword             string          `json:"keyword"`
	SERPFeatures        SERPFeatures    `json:"serp_features"`
	DiscussionPositions []int           `json:"discussion_positions"`
	OrganicResults      []OrganicResult `json:"organic_results"`

	Raw json.RawMessage `json:"-"`
}

type SERPFeatures struct {
	HasAIOverview      bool `json:"has_ai_overview"`
	HasDiscussionBox   bool `json:"has_discussion_box"`
	HasFeaturedSnippet bool `json:"has_featured_snippet"`
	HasPeopleAlsoAsk   bool `json:"has_people_also_ask"`
}

type OrganicResult struct {
	Position     int    `json:"position"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	IsDiscussion bool   `json:"is_discussion"`
}

// DiscoverThreadsRequest is the body of POST /discover-threads. YourBrand and
// Competitors are sent as null when unset.
type DiscoverThreadsRequest struct {
	Keyword              string   `json:"keyword"`
	YourBrand            *string  `json:"your_brand"`
	Competitors          []string `json:"competitors"`
	MaxThreads           int      `json:"max_threads"`
	MaxCommentsPerThread int      `json:"max_comments_per_thread"`
	DataFreshness        string   `json:"data_freshness"`
}

// NewDiscoverThreadsRequest returns a request with the documented defaults.
func NewDiscoverThreadsRequest(keyword string) DiscoverThreadsRequest {
	return DiscoverThreadsRequest{
		Keyword:              keyword,
		MaxThreads:           10,
		MaxCommentsPerThread: 5,
		DataFreshness:        FreshnessBalanced,
	}
}

// Brand returns the configured brand or the empty string.
func (r DiscoverThreadsRequest) Brand() string {
	if r.YourBrand == nil {
		return ""
	}
	return *r.YourBrand
}

type DiscoverThreadsResponse struct {
	Keyword        string          `json:"keyword"`
	KeywordMetrics ThreadKeyword   `json:"keyword_metrics"`
	Summary        DiscoverSummary `json:"summary"`
	Threads        []Thread        `json:"threads"`

	Raw json.RawMessage `json:"-"`
}

type ThreadKeyword struct {
	Volume            int64   `json:"volume"`
	CPC               float64 `json:"cpc"`
	KeywordDifficulty int     `json:"keyword_difficulty"`
}

type DiscoverSummary struct {
	TotalThreads            int   `json:"total_threads"`
	EstimatedMonthlyTraffic int64 `json:"estimated_monthly_traffic"`
}

type Thread struct {
	Title            string         `json:"title"`
	URL              string         `json:"url"`
	Subreddit        string         `json:"subreddit"`
	EstimatedTraffic int64          `json:"estimated_traffic"`
	Priority         Label          `json:"priority"`
	Source           Label          `json:"source"`
	Analysis         ThreadAnalysis `json:"analysis"`
}

type ThreadAnalysis struct {
	BrandSentiments BrandSentiments `json:"brand_sentiments"`
}

// BrandSentiment is the mention tally for one brand inside one thread.
type BrandSentiment struct {
	Positive   int      `json:"positive"`
	Negative   int      `json:"negative"`
	Neutral    int      `json:"neutral"`
	Praise     []string `json:"praise"`
	Complaints []string `json:"complaints"`
}

// BrandSentiments is a brand-keyed object that remembers the key order of the
// response, so reports list brands the way the API returned them.
type BrandSentiments struct {
	order   []string
	byBrand map[string]BrandSentiment
}

// NewBrandSentiments returns an empty ordered set.
func NewBrandSentiments() *BrandSentiments {
	return &BrandSentiments{byBrand: make(map[string]BrandSentiment)}
}

// Set adds or replaces a brand, keeping its original position when replaced.
func (b *BrandSentiments) Set(brand string, s BrandSentiment) {
	if b.byBrand == nil {
		b.byBrand = make(map[string]BrandSentiment)
	}
	if _, ok := b.byBrand[brand]; !ok {
		b.order = append(b.order, brand)
	}
	b.byBrand[brand] = s
}

// Brands returns brand names in response order.
func (b BrandSentiments) Brands() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Get returns the tally for a brand.
func (b BrandSentiments) Get(brand string) (BrandSentiment, bool) {
	s, ok := b.byBrand[brand]
	return s, ok
}

// Has reports whether the brand was mentioned. Matching is exact, as the API
// echoes the names it was given.
func (b BrandSentiments) Has(brand string) bool {
	_, ok := b.byBrand[brand]
	return ok
}

func (b BrandSentiments) Len() int { return len(b.order) }

func (b *BrandSentiments) UnmarshalJSON(data []byte) error {
	b.order = nil
	b.byBrand = make(map[string]BrandSentiment)
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("brand_sentiments: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		brand, ok := tok.(string)
		if !ok {
			return fmt.Errorf("brand_sentiments: expected brand name, got %v", tok)
		}
		var s BrandSentiment
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("brand_sentiments[%s]: %w", brand, err)
		}
		b.Set(brand, s)
	}
	_, err = dec.Token()
	return err
}

func (b BrandSentiments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, brand := range b.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(brand)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.byBrand[brand])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Label is a display field the API may send as a string or a number.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*l = Label(strconv.FormatInt(i, 10))
		return nil
	}
	*l = Label(n.String())
	return nil
}

func (l Label) String() string { return string(l) }
