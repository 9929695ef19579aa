package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/database"
	"github.com/TobiSchelling/redranks/internal/intel"
	"github.com/TobiSchelling/redranks/internal/report"
)

// runMarkdown rebuilds the report of a saved run. Intel and opportunity runs
// are read from their aggregated rows, the rest from the raw response.
func (s *Server) runMarkdown(run *database.Run) (string, error) {
	switch run.Kind {
	case database.KindKeywords:
		var resp api.KeywordMetricsResponse
		if err := json.Unmarshal([]byte(run.ResponseJSON), &resp); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		return report.KeywordMarkdown(&resp), nil

	case database.KindSERP:
		var resp api.SERPAnalysisResponse
		if err := json.Unmarshal([]byte(run.ResponseJSON), &resp); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		return report.SERPMarkdown(&resp), nil

	case database.KindThreads:
		var resp api.DiscoverThreadsResponse
		if err := json.Unmarshal([]byte(run.ResponseJSON), &resp); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		return report.ThreadsMarkdown(&resp), nil

	case database.KindIntel:
		rows, err := s.db.GetBrandStats(run.ID)
		if err != nil {
			return "", err
		}
		stats := make([]intel.BrandStats, len(rows))
		for i, r := range rows {
			stats[i] = intel.BrandStats{
				Brand:      r.Brand,
				Positive:   r.Positive,
				Negative:   r.Negative,
				Neutral:    r.Neutral,
				Threads:    r.Threads,
				Praise:     r.Praise,
				Complaints: r.Complaints,
			}
		}
		return report.IntelMarkdown(stats), nil

	case database.KindOpportunities:
		rows, err := s.db.GetOpportunities(run.ID)
		if err != nil {
			return "", err
		}
		opps := make([]intel.Opportunity, len(rows))
		for i, r := range rows {
			opps[i] = intel.Opportunity{
				Thread: api.Thread{
					Title:            r.Title,
					URL:              r.URL,
					EstimatedTraffic: r.EstimatedTraffic,
				},
				BrandsMentioned: r.Brands,
			}
		}
		var b strings.Builder
		b.WriteString(report.OpportunitiesMarkdown(opps))
		b.WriteString(s.activityMarkdown(rows))
		return b.String(), nil
	}
	return "", fmt.Errorf("unknown run kind %q", run.Kind)
}

func (s *Server) activityMarkdown(opps []database.Opportunity) string {
	var b strings.Builder
	for _, o := range opps {
		a, err := s.db.GetThreadActivity(o.URL)
		if err != nil || a == nil {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\n### Recent activity\n\n")
		}
		fmt.Fprintf(&b, "- **%s**: %d comments", report.Escape(o.Title), a.Comments)
		if a.LatestAt != nil {
			fmt.Fprintf(&b, ", latest %s", *a.LatestAt)
		}
		if a.Excerpt != nil && *a.Excerpt != "" {
			fmt.Fprintf(&b, " (%q)", *a.Excerpt)
		}
		b.WriteString("\n")
	}
	return b.String()
}
