// Package walkthrough runs the API walkthroughs: each one builds a request,
// makes a single call, prints the result and records it in the history.
package walkthrough

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/database"
	"github.com/TobiSchelling/redranks/internal/enrich"
	"github.com/TobiSchelling/redranks/internal/intel"
	"github.com/TobiSchelling/redranks/internal/logger"
	"github.com/TobiSchelling/redranks/internal/report"
)

// Options adjust how results are printed and post-processed.
type Options struct {
	// JSON prints the raw response instead of the formatted report.
	JSON bool
	// Enricher, when set, looks up recent activity on opportunity threads.
	Enricher *enrich.Enricher
}

// Runner executes walkthroughs against one API client. A nil database
// disables run history.
type Runner struct {
	client *api.Client
	db     *database.DB
	out    io.Writer
	opts   Options
}

// New creates a new Runner writing to out.
func New(client *api.Client, db *database.DB, out io.Writer, opts Options) *Runner {
	return &Runner{client: client, db: db, out: out, opts: opts}
}

// Keywords fetches volume, CPC, difficulty and related keywords.
func (r *Runner) Keywords(ctx context.Context, req api.KeywordMetricsRequest) error {
	req = req.WithDefaults()
	resp, err := r.client.KeywordMetrics(ctx, req)
	if err != nil {
		return fmt.Errorf("keyword metrics: %w", err)
	}
	r.saveRun(database.KindKeywords, api.EndpointKeywordMetrics, strings.Join(req.Keywords, ", "), req, resp.Raw)

	if r.opts.JSON {
		return report.JSON(r.out, resp.Raw)
	}
	report.KeywordResearch(r.out, resp)
	return nil
}

// SERP analyzes the result page of one keyword.
func (r *Runner) SERP(ctx context.Context, req api.SERPAnalysisRequest) error {
	req = req.WithDefaults()
	resp, err := r.client.SERPAnalysis(ctx, req)
	if err != nil {
		return fmt.Errorf("SERP analysis: %w", err)
	}
	r.saveRun(database.KindSERP, api.EndpointSERPAnalysis, req.Keyword, req, resp.Raw)

	if r.opts.JSON {
		return report.JSON(r.out, resp.Raw)
	}
	report.SERPAnalysis(r.out, resp)
	return nil
}

// Threads discovers ranking discussion threads for a keyword.
func (r *Runner) Threads(ctx context.Context, req api.DiscoverThreadsRequest) error {
	req = req.WithDefaults()
	resp, err := r.client.DiscoverThreads(ctx, req)
	if err != nil {
		return fmt.Errorf("discover threads: %w", err)
	}
	r.saveRun(database.KindThreads, api.EndpointDiscoverThreads, req.Keyword, req, resp.Raw)

	if r.opts.JSON {
		return report.JSON(r.out, resp.Raw)
	}
	report.DiscussionDiscovery(r.out, resp)
	return nil
}

// Intel aggregates brand sentiment across the discovered threads.
func (r *Runner) Intel(ctx context.Context, req api.DiscoverThreadsRequest) ([]intel.BrandStats, error) {
	req = req.WithDefaults()
	resp, err := r.client.DiscoverThreads(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("discover threads: %w", err)
	}
	stats := intel.AggregateSentiment(resp.Threads)

	if id := r.saveRun(database.KindIntel, api.EndpointDiscoverThreads, req.Keyword, req, resp.Raw); id != "" {
		if err := r.db.InsertBrandStats(id, brandStatRows(stats)); err != nil {
			logger.Log.Warnf("Saving brand stats: %v", err)
		}
	}

	if r.opts.JSON {
		return stats, report.JSON(r.out, resp.Raw)
	}
	report.CompetitiveIntel(r.out, stats)
	return stats, nil
}

// Opportunities finds threads above minTraffic where competitors are
// discussed and the request's brand is not. Brand names are matched in the
// same trimmed form that is sent to the API.
func (r *Runner) Opportunities(ctx context.Context, req api.DiscoverThreadsRequest, minTraffic int64) ([]intel.Opportunity, error) {
	req = req.WithDefaults()
	resp, err := r.client.DiscoverThreads(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("discover threads: %w", err)
	}
	opps := intel.FindOpportunities(resp.Threads, req.Brand(), req.Competitors, minTraffic)

	if id := r.saveRun(database.KindOpportunities, api.EndpointDiscoverThreads, req.Keyword, req, resp.Raw); id != "" {
		if err := r.db.InsertOpportunities(id, opportunityRows(opps)); err != nil {
			logger.Log.Warnf("Saving opportunities: %v", err)
		}
	}

	notes := r.enrichOpportunities(ctx, opps)

	if r.opts.JSON {
		return opps, report.JSON(r.out, resp.Raw)
	}
	report.Opportunities(r.out, opps, notes)
	return opps, nil
}

func (r *Runner) enrichOpportunities(ctx context.Context, opps []intel.Opportunity) map[string]string {
	if r.opts.Enricher == nil || len(opps) == 0 {
		return nil
	}

	urls := make([]string, len(opps))
	for i, o := range opps {
		urls[i] = o.Thread.URL
	}
	logger.Log.Infof("Enriching %d opportunity threads...", len(urls))
	activity := r.opts.Enricher.Threads(ctx, urls)

	notes := make(map[string]string, len(activity))
	for url, a := range activity {
		notes[url] = a.Summary()
		if r.db == nil {
			continue
		}
		if err := r.db.UpsertThreadActivity(activityRow(a)); err != nil {
			logger.Log.Warnf("Saving activity for %s: %v", url, err)
		}
	}
	return notes
}

// saveRun records a call in the history and returns its ID, or "" when
// history is disabled or the insert failed.
func (r *Runner) saveRun(kind, endpoint, keyword string, req any, raw []byte) string {
	if r.db == nil {
		return ""
	}
	id, err := r.db.InsertRun(kind, endpoint, keyword, req, raw)
	if err != nil {
		logger.Log.Warnf("Saving %s run: %v", kind, err)
		return ""
	}
	logger.Log.Debugf("Saved %s run %s", kind, id)
	return id
}

func brandStatRows(stats []intel.BrandStats) []database.BrandStat {
	rows := make([]database.BrandStat, len(stats))
	for i, s := range stats {
		rows[i] = database.BrandStat{
			Brand:      s.Brand,
			Positive:   s.Positive,
			Negative:   s.Negative,
			Neutral:    s.Neutral,
			Threads:    s.Threads,
			Praise:     s.Praise,
			Complaints: s.Complaints,
		}
	}
	return rows
}

func opportunityRows(opps []intel.Opportunity) []database.Opportunity {
	rows := make([]database.Opportunity, len(opps))
	for i, o := range opps {
		rows[i] = database.Opportunity{
			Title:            o.Thread.Title,
			URL:              o.Thread.URL,
			EstimatedTraffic: o.Thread.EstimatedTraffic,
			Brands:           o.BrandsMentioned,
		}
	}
	return rows
}

func activityRow(a enrich.Activity) database.ThreadActivity {
	row := database.ThreadActivity{URL: a.URL, Comments: a.Comments}
	if !a.LatestAt.IsZero() {
		latest := a.LatestAt.UTC().Format(time.RFC3339)
		row.LatestAt = &latest
	}
	if a.Excerpt != "" {
		excerpt := a.Excerpt
		row.Excerpt = &excerpt
	}
	return row
}
