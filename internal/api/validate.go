package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxKeywords       = 10
	maxRelatedLimit   = 20
	maxResultsLimit   = 20
	maxThreadsLimit   = 20
	maxCommentsLimit  = 20
	maxCompetitors    = 20
	minKeywordRunes   = 2
	maxKeywordRunes   = 100
	defaultMaxRelated = 5
	defaultMaxResults = 10
)

// WithDefaults fills fields whose zero value is not accepted by the API.
func (r KeywordMetricsRequest) WithDefaults() KeywordMetricsRequest {
	if r.MaxRelated == 0 {
		r.MaxRelated = defaultMaxRelated
	}
	kws := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		kws = append(kws, strings.TrimSpace(kw))
	}
	r.Keywords = kws
	return r
}

func (r KeywordMetricsRequest) Validate() error {
	if len(r.Keywords) == 0 {
		return &ValidationError{Field: "keywords", Message: "at least one keyword is required"}
	}
	if len(r.Keywords) > maxKeywords {
		return &ValidationError{Field: "keywords", Message: fmt.Sprintf("at most %d keywords per request, got %d", maxKeywords, len(r.Keywords))}
	}
	for i, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return &ValidationError{Field: fmt.Sprintf("keywords[%d]", i), Message: "must not be empty"}
		}
	}
	if r.MaxRelated < 1 || r.MaxRelated > maxRelatedLimit {
		return &ValidationError{Field: "max_related", Message: fmt.Sprintf("must be between 1 and %d, got %d", maxRelatedLimit, r.MaxRelated)}
	}
	return nil
}

func (r SERPAnalysisRequest) WithDefaults() SERPAnalysisRequest {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.MaxResults == 0 {
		r.MaxResults = defaultMaxResults
	}
	return r
}

func (r SERPAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return &ValidationError{Field: "keyword", Message: "must not be empty"}
	}
	if r.MaxResults < 1 || r.MaxResults > maxResultsLimit {
		return &ValidationError{Field: "max_results", Message: fmt.Sprintf("must be between 1 and %d, got %d", maxResultsLimit, r.MaxResults)}
	}
	return nil
}

// WithDefaults trims the keyword, turns a blank brand and an empty competitor
// list into null, and defaults the freshness mode.
func (r DiscoverThreadsRequest) WithDefaults() DiscoverThreadsRequest {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.YourBrand != nil {
		brand := strings.TrimSpace(*r.YourBrand)
		if brand == "" {
			r.YourBrand = nil
		} else {
			r.YourBrand = &brand
		}
	}
	var competitors []string
	for _, c := range r.Competitors {
		if c = strings.TrimSpace(c); c != "" {
			competitors = append(competitors, c)
		}
	}
	r.Competitors = competitors
	if r.DataFreshness == "" {
		r.DataFreshness = FreshnessBalanced
	}
	return r
}

func (r DiscoverThreadsRequest) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(r.Keyword))
	if n < minKeywordRunes || n > maxKeywordRunes {
		return &ValidationError{Field: "keyword", Message: fmt.Sprintf("must be %d-%d characters, got %d", minKeywordRunes, maxKeywordRunes, n)}
	}
	if len(r.Competitors) > maxCompetitors {
		return &ValidationError{Field: "competitors", Message: fmt.Sprintf("at most %d competitors, got %d", maxCompetitors, len(r.Competitors))}
	}
	if r.MaxThreads < 0 || r.MaxThreads > maxThreadsLimit {
		return &ValidationError{Field: "max_threads", Message: fmt.Sprintf("must be between 0 and %d, got %d", maxThreadsLimit, r.MaxThreads)}
	}
	if r.MaxCommentsPerThread < 0 || r.MaxCommentsPerThread > maxCommentsLimit {
		return &ValidationError{Field: "max_comments_per_thread", Message: fmt.Sprintf("must be between 0 and %d, got %d", maxCommentsLimit, r.MaxCommentsPerThread)}
	}
	switch r.DataFreshness {
	case FreshnessRealtime, FreshnessBalanced, FreshnessCustom:
	default:
		return &ValidationError{Field: "data_freshness", Message: fmt.Sprintf("must be realtime, balanced or custom, got %q", r.DataFreshness)}
	}
	return nil
}
