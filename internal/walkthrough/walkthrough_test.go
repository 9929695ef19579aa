package walkthrough

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/database"
	"github.com/TobiSchelling/redranks/internal/enrich"
)

const keywordsResponse = `{"keywords":[{"keyword":"crm software","volume":49500,"cpc":41.25,"keyword_difficulty":72,
	"search_intent":"commercial","related_keywords":[{"keyword":"best crm","volume":22000}]}]}`

const serpResponse = `{"keyword":"best crm software","serp_features":{"has_ai_overview":true,"has_discussion_box":true},
	"discussion_positions":[3,7],"organic_results":[{"position":1,"domain":"hubspot.com"},
	{"position":3,"domain":"reddit.com","is_discussion":true}]}`

// threadsResponse has one thread that mentions competitors only, one that
// mentions the brand and one below the traffic threshold.
const threadsResponse = `{"keyword":"%[1]s","keyword_metrics":{"volume":6600},
	"summary":{"total_threads":3,"estimated_monthly_traffic":2400},
	"threads":[
	{"title":"HubSpot vs Salesforce for a small team?","url":"%[2]s/r/crm/comments/a1/hubspot_vs_salesforce/",
	 "subreddit":"crm","estimated_traffic":1200,"priority":"high","source":"google",
	 "analysis":{"brand_sentiments":{
	   "HubSpot":{"positive":2,"negative":1,"neutral":0,"praise":["easy setup"],"complaints":["pricey"]},
	   "Salesforce":{"positive":0,"negative":1,"neutral":0,"complaints":["complex"]}}}},
	{"title":"Anyone tried Acme CRM?","url":"%[2]s/r/startups/comments/b2/acme/",
	 "subreddit":"startups","estimated_traffic":800,"priority":2,"source":"reddit",
	 "analysis":{"brand_sentiments":{
	   "Acme CRM":{"positive":1,"negative":0,"neutral":0},
	   "HubSpot":{"positive":1,"negative":0,"neutral":0,"praise":["easy setup","free tier"]}}}},
	{"title":"Pipedrive pipelines","url":"%[2]s/r/sales/comments/c3/pipedrive/",
	 "subreddit":"sales","estimated_traffic":400,"priority":"low","source":"google",
	 "analysis":{"brand_sentiments":{"Pipedrive":{"positive":0,"negative":0,"neutral":1}}}}
	]}`

const threadFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title>post</title><updated>2026-09-01T10:00:00+00:00</updated><content type="html">post body</content></entry>
  <entry><title>reply</title><updated>2026-10-03T09:00:00+00:00</updated><content type="html">&lt;p&gt;Check out Pipedrive&lt;/p&gt;</content></entry>
</feed>`

// fakeAPI serves canned responses per endpoint; failing maps an endpoint to
// the status code it should fail with.
func fakeAPI(t *testing.T, failing map[string]int) string {
	t.Helper()
	var base string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".rss") {
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, threadFeed)
			return
		}
		endpoint := strings.TrimPrefix(r.URL.Path, "/api/v2")
		if code, ok := failing[endpoint]; ok {
			http.Error(w, `{"message":"You are not subscribed to this API."}`, code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch endpoint {
		case api.EndpointKeywordMetrics:
			fmt.Fprint(w, keywordsResponse)
		case api.EndpointSERPAnalysis:
			fmt.Fprint(w, serpResponse)
		case api.EndpointDiscoverThreads:
			fmt.Fprintf(w, threadsResponse, "best crm for startups", base)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	base = srv.URL
	return srv.URL
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRunner(t *testing.T, base string, db *database.DB, opts Options) (*Runner, *bytes.Buffer) {
	t.Helper()
	client, err := api.New(base+"/api/v2", "redranks.test", "test-key", api.WithRateLimit(0, 0))
	require.NoError(t, err)
	var out bytes.Buffer
	return New(client, db, &out, opts), &out
}

func opportunityRequest() api.DiscoverThreadsRequest {
	req := api.NewDiscoverThreadsRequest("best crm for startups")
	req.YourBrand = ptr("Acme CRM")
	req.Competitors = []string{"HubSpot", "Salesforce", "Pipedrive"}
	return req
}

func TestRunExamplesCompletes(t *testing.T) {
	db := openTestDB(t)
	r, out := newTestRunner(t, fakeAPI(t, nil), db, Options{})

	res := r.RunExamples(context.Background())
	require.NoError(t, res.Err())
	require.Len(t, res.Steps, 5)

	text := out.String()
	for i, name := range []string{"Keyword Research", "SERP Analysis", "Discussion Discovery", "Competitive Intelligence", "Find Opportunities"} {
		assert.Contains(t, text, fmt.Sprintf("EXAMPLE %d: %s", i+1, name))
	}
	assert.Contains(t, text, "CRM SOFTWARE")
	assert.Contains(t, text, "Discussions found at positions: [3, 7]")
	assert.Contains(t, text, "Found 1 opportunity threads:")
	assert.Contains(t, text, "All examples completed!")

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestRunExamplesStopsAtFirstError(t *testing.T) {
	db := openTestDB(t)
	r, out := newTestRunner(t, fakeAPI(t, map[string]int{api.EndpointSERPAnalysis: http.StatusForbidden}), db, Options{})

	res := r.RunExamples(context.Background())
	require.Len(t, res.Steps, 2)
	assert.NoError(t, res.Steps[0].Err)

	var apiErr *api.APIError
	require.ErrorAs(t, res.Err(), &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	assert.NotContains(t, out.String(), "EXAMPLE 3")
	assert.NotContains(t, out.String(), "All examples completed!")

	runs, _ := db.ListRuns(10)
	assert.Len(t, runs, 1)
}

func TestIntelAggregatesAndStores(t *testing.T) {
	db := openTestDB(t)
	r, out := newTestRunner(t, fakeAPI(t, nil), db, Options{})

	stats, err := r.Intel(context.Background(), opportunityRequest())
	require.NoError(t, err)

	require.Len(t, stats, 4)
	assert.Equal(t, "HubSpot", stats[0].Brand)
	assert.Equal(t, 3, stats[0].Positive)
	assert.Equal(t, 2, stats[0].Threads)
	assert.Equal(t, []string{"easy setup", "free tier"}, stats[0].UniquePraise(3))
	assert.Contains(t, out.String(), "Mentions: 4 (75% positive)")

	runs, _ := db.ListRuns(1)
	require.Len(t, runs, 1)
	rows, err := db.GetBrandStats(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Salesforce", rows[1].Brand)
}

func TestOpportunitiesWithEnrichment(t *testing.T) {
	db := openTestDB(t)
	base := fakeAPI(t, nil)
	r, out := newTestRunner(t, base, db, Options{Enricher: enrich.New(nil, 0)})

	opps, err := r.Opportunities(context.Background(), opportunityRequest(), 500)
	require.NoError(t, err)

	require.Len(t, opps, 1)
	assert.Equal(t, int64(1200), opps[0].Thread.EstimatedTraffic)
	assert.Equal(t, []string{"HubSpot", "Salesforce"}, opps[0].BrandsMentioned)
	assert.Contains(t, out.String(), "Activity: 1 recent comments, latest 2026-10-03")

	a, err := db.GetThreadActivity(opps[0].Thread.URL)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 1, a.Comments)
}

func TestJSONOutput(t *testing.T) {
	r, out := newTestRunner(t, fakeAPI(t, nil), nil, Options{JSON: true})

	err := r.Keywords(context.Background(), api.NewKeywordMetricsRequest("crm software"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"keyword": "crm software"`)
	assert.NotContains(t, out.String(), "Volume:")
}

func TestOpportunitiesTrimsBrandNames(t *testing.T) {
	r, out := newTestRunner(t, fakeAPI(t, nil), nil, Options{})

	req := api.NewDiscoverThreadsRequest("best crm for startups")
	req.YourBrand = ptr("  Acme CRM ")
	// As parsed from --competitors "Pipedrive, HubSpot".
	req.Competitors = []string{"Pipedrive", " HubSpot", ""}

	opps, err := r.Opportunities(context.Background(), req, 500)
	require.NoError(t, err)

	require.Len(t, opps, 1)
	assert.Equal(t, "HubSpot vs Salesforce for a small team?", opps[0].Thread.Title)
	assert.NotContains(t, out.String(), "Anyone tried Acme CRM?")
}

func TestRunExamplesJSONOutput(t *testing.T) {
	r, out := newTestRunner(t, fakeAPI(t, nil), nil, Options{JSON: true})

	res := r.RunExamples(context.Background())
	require.NoError(t, res.Err())

	dec := json.NewDecoder(bytes.NewReader(out.Bytes()))
	docs := 0
	for {
		var doc json.RawMessage
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err, "stdout must contain only JSON documents")
		assert.True(t, json.Valid(doc))
		docs++
	}
	assert.Equal(t, 5, docs)
	assert.NotContains(t, out.String(), "EXAMPLE")
	assert.NotContains(t, out.String(), "All examples completed!")
}

func TestValidationFailsBeforeCall(t *testing.T) {
	r, _ := newTestRunner(t, fakeAPI(t, nil), nil, Options{})

	err := r.SERP(context.Background(), api.SERPAnalysisRequest{Keyword: "  "})
	var vErr *api.ValidationError
	require.ErrorAs(t, err, &vErr)
}
