// Package report renders API responses and aggregates for a human reader.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/intel"
)

const (
	ruleWidth       = 60
	topRelated      = 3
	topOrganic      = 5
	topThreads      = 3
	topPraise       = 3
	unknownIntent   = "unknown"
	discussionLabel = " [DISCUSSION]"
)

// Rule returns the horizontal separator used around section titles.
func Rule() string {
	return strings.Repeat("=", ruleWidth)
}

// Header writes a title framed by rules.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, Rule())
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, Rule())
}

// KeywordResearch writes volume, CPC, difficulty, intent and the top related
// keywords for every keyword in the response.
func KeywordResearch(w io.Writer, resp *api.KeywordMetricsResponse) {
	for _, kw := range resp.Keywords {
		fmt.Fprintf(w, "\n%s\n", strings.ToUpper(kw.Keyword))
		fmt.Fprintf(w, "  Volume: %s/month\n", humanize.Comma(kw.Volume))
		fmt.Fprintf(w, "  CPC: $%.2f\n", kw.CPC)
		fmt.Fprintf(w, "  Difficulty: %d/100\n", kw.KeywordDifficulty)
		fmt.Fprintf(w, "  Intent: %s\n", orDefault(kw.SearchIntent, unknownIntent))

		if len(kw.RelatedKeywords) > 0 {
			fmt.Fprintln(w, "  Related keywords:")
			for _, r := range first(kw.RelatedKeywords, topRelated) {
				fmt.Fprintf(w, "    - %s (%s/mo)\n", r.Keyword, humanize.Comma(r.Volume))
			}
		}
	}
}

// SERPAnalysis writes detected SERP features, discussion positions and the
// top organic results.
func SERPAnalysis(w io.Writer, resp *api.SERPAnalysisResponse) {
	fmt.Fprintf(w, "\nKeyword: %s\n", resp.Keyword)

	f := resp.SERPFeatures
	fmt.Fprintln(w, "\nSERP Features Detected:")
	fmt.Fprintf(w, "  AI Overview: %s\n", yesNo(f.HasAIOverview))
	fmt.Fprintf(w, "  Discussion Box: %s\n", yesNo(f.HasDiscussionBox))
	fmt.Fprintf(w, "  Featured Snippet: %s\n", yesNo(f.HasFeaturedSnippet))
	fmt.Fprintf(w, "  People Also Ask: %s\n", yesNo(f.HasPeopleAlsoAsk))

	fmt.Fprintf(w, "\nDiscussions found at positions: %s\n", intList(resp.DiscussionPositions))

	fmt.Fprintf(w, "\nTop %d Organic Results:\n", topOrganic)
	for _, r := range first(resp.OrganicResults, topOrganic) {
		marker := ""
		if r.IsDiscussion {
			marker = discussionLabel
		}
		fmt.Fprintf(w, "  %d. %s%s\n", r.Position, r.Domain, marker)
	}
}

// DiscussionDiscovery writes the keyword volume, thread summary and the top
// threads with their traffic estimates.
func DiscussionDiscovery(w io.Writer, resp *api.DiscoverThreadsResponse) {
	fmt.Fprintf(w, "\nKeyword: %s\n", resp.Keyword)
	fmt.Fprintf(w, "Search Volume: %s/month\n", humanize.Comma(resp.KeywordMetrics.Volume))
	fmt.Fprintf(w, "Threads Found: %d\n", resp.Summary.TotalThreads)
	fmt.Fprintf(w, "Total Traffic: %s/month\n", humanize.Comma(resp.Summary.EstimatedMonthlyTraffic))

	fmt.Fprintln(w, "\nTop Threads:")
	for _, th := range first(resp.Threads, topThreads) {
		fmt.Fprintf(w, "\n  %s\n", th.Title)
		fmt.Fprintf(w, "    URL: %s\n", th.URL)
		fmt.Fprintf(w, "    Traffic: %s/month\n", humanize.Comma(th.EstimatedTraffic))
		fmt.Fprintf(w, "    Priority: %s\n", th.Priority)
		fmt.Fprintf(w, "    Source: %s\n", th.Source)
	}
}

// CompetitiveIntel writes one sentiment block per brand. Brands without
// mentions are skipped.
func CompetitiveIntel(w io.Writer, stats []intel.BrandStats) {
	mentioned := intel.Mentioned(stats)
	share := make(map[string]float64, len(mentioned))
	for _, s := range intel.Summarize(mentioned) {
		share[s.Brand] = s.Percent
	}

	fmt.Fprintln(w, "\nBrand Sentiment Summary:")
	for _, s := range mentioned {
		fmt.Fprintf(w, "\n  %s:\n", s.Brand)
		fmt.Fprintf(w, "    Mentions: %d (%d%% positive)\n", s.Total(), s.PositiveRate())
		fmt.Fprintf(w, "    +%d / -%d / ~%d\n", s.Positive, s.Negative, s.Neutral)
		fmt.Fprintf(w, "    Share of voice: %.1f%%\n", share[s.Brand])

		if praise := s.UniquePraise(topPraise); len(praise) > 0 {
			fmt.Fprintf(w, "    Praise: %s\n", strings.Join(praise, ", "))
		}
		if complaints := s.UniqueComplaints(topPraise); len(complaints) > 0 {
			fmt.Fprintf(w, "    Complaints: %s\n", strings.Join(complaints, ", "))
		}
	}
}

// Opportunities writes the numbered opportunity list. notes, keyed by thread
// URL, adds an extra line per thread when present.
func Opportunities(w io.Writer, opps []intel.Opportunity, notes map[string]string) {
	fmt.Fprintf(w, "\nFound %d opportunity threads:\n", len(opps))

	for i, o := range opps {
		fmt.Fprintf(w, "\n  %d. %s\n", i+1, o.Thread.Title)
		fmt.Fprintf(w, "     Traffic: %s/month\n", humanize.Comma(o.Thread.EstimatedTraffic))
		fmt.Fprintf(w, "     Competitors: %s\n", strings.Join(o.BrandsMentioned, ", "))
		fmt.Fprintf(w, "     URL: %s\n", o.Thread.URL)
		if note := notes[o.Thread.URL]; note != "" {
			fmt.Fprintf(w, "     Activity: %s\n", note)
		}
	}
}

// JSON pretty-prints a raw JSON document with a tab indent.
func JSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "\t"); err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func intList(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func first[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
