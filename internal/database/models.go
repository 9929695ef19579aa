package database

// Kinds of stored runs, one per CLI walkthrough.
const (
	KindKeywords      = "keywords"
	KindSERP          = "serp"
	KindThreads       = "threads"
	KindIntel         = "intel"
	KindOpportunities = "opportunities"
)

// Run is one successful API call with its request and raw response.
type Run struct {
	ID           string
	Kind         string
	Endpoint     string
	Keyword      string
	RequestJSON  string
	ResponseJSON string
	CreatedAt    *string
}

// BrandStat is the aggregated sentiment of one brand within a run.
type BrandStat struct {
	RunID      string
	Brand      string
	Positive   int
	Negative   int
	Neutral    int
	Threads    int
	Praise     []string
	Complaints []string
}

// Opportunity is a stored opportunity thread of a run.
type Opportunity struct {
	RunID            string
	Title            string
	URL              string
	EstimatedTraffic int64
	Brands           []string
}

// ThreadActivity caches what enrichment learned about a thread URL.
type ThreadActivity struct {
	URL       string
	Comments  int
	LatestAt  *string
	Excerpt   *string
	FetchedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRuns       int
	RunsByKind      map[string]int
	Keywords        int
	BrandsTracked   int
	Opportunities   int
	ThreadsEnriched int
	LastRunAt       *string
}
