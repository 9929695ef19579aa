package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/intel"
)

// KeywordMarkdown renders a keyword metrics response as a Markdown table.
func KeywordMarkdown(resp *api.KeywordMetricsResponse) string {
	var b strings.Builder
	b.WriteString("| Keyword | Volume | CPC | Difficulty | Intent |\n")
	b.WriteString("|---|---:|---:|---:|---|\n")
	for _, kw := range resp.Keywords {
		fmt.Fprintf(&b, "| %s | %s | $%.2f | %d/100 | %s |\n",
			cell(kw.Keyword), humanize.Comma(kw.Volume), kw.CPC, kw.KeywordDifficulty,
			cell(orDefault(kw.SearchIntent, unknownIntent)))
	}

	for _, kw := range resp.Keywords {
		if len(kw.RelatedKeywords) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### Related to %q\n\n", kw.Keyword)
		for _, r := range kw.RelatedKeywords {
			fmt.Fprintf(&b, "- %s (%s/mo)\n", r.Keyword, humanize.Comma(r.Volume))
		}
	}
	return b.String()
}

// SERPMarkdown renders a SERP analysis as feature list and results table.
func SERPMarkdown(resp *api.SERPAnalysisResponse) string {
	var b strings.Builder
	f := resp.SERPFeatures
	b.WriteString("### SERP features\n\n")
	fmt.Fprintf(&b, "- AI Overview: %s\n", yesNo(f.HasAIOverview))
	fmt.Fprintf(&b, "- Discussion Box: %s\n", yesNo(f.HasDiscussionBox))
	fmt.Fprintf(&b, "- Featured Snippet: %s\n", yesNo(f.HasFeaturedSnippet))
	fmt.Fprintf(&b, "- People Also Ask: %s\n", yesNo(f.HasPeopleAlsoAsk))
	fmt.Fprintf(&b, "\nDiscussions at positions: %s\n", intList(resp.DiscussionPositions))

	b.WriteString("\n### Organic results\n\n")
	b.WriteString("| # | Domain | Discussion |\n|---:|---|---|\n")
	for _, r := range resp.OrganicResults {
		domain := cell(r.Domain)
		if r.URL != "" {
			domain = fmt.Sprintf("[%s](%s)", domain, r.URL)
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", r.Position, domain, yesNo(r.IsDiscussion))
	}
	return b.String()
}

// ThreadsMarkdown renders a thread discovery response.
func ThreadsMarkdown(resp *api.DiscoverThreadsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Search volume: %s/month\n", humanize.Comma(resp.KeywordMetrics.Volume))
	fmt.Fprintf(&b, "- Threads found: %d\n", resp.Summary.TotalThreads)
	fmt.Fprintf(&b, "- Total traffic: %s/month\n", humanize.Comma(resp.Summary.EstimatedMonthlyTraffic))

	b.WriteString("\n| Thread | Traffic | Priority | Source | Brands |\n|---|---:|---|---|---|\n")
	for _, th := range resp.Threads {
		fmt.Fprintf(&b, "| [%s](%s) | %s | %s | %s | %s |\n",
			Escape(th.Title), th.URL, humanize.Comma(th.EstimatedTraffic),
			cell(th.Priority.String()), cell(th.Source.String()),
			cell(strings.Join(th.Analysis.BrandSentiments.Brands(), ", ")))
	}
	return b.String()
}

// IntelMarkdown renders aggregated brand sentiment.
func IntelMarkdown(stats []intel.BrandStats) string {
	mentioned := intel.Mentioned(stats)
	if len(mentioned) == 0 {
		return "_No brand mentions in these threads._\n"
	}

	var b strings.Builder
	b.WriteString("| Brand | Mentions | Positive | + | - | ~ | Share of voice |\n|---|---:|---:|---:|---:|---:|---:|\n")
	sov := intel.Summarize(mentioned)
	for i, s := range mentioned {
		fmt.Fprintf(&b, "| %s | %d | %d%% | %d | %d | %d | %.1f%% |\n",
			cell(s.Brand), s.Total(), s.PositiveRate(), s.Positive, s.Negative, s.Neutral, sov[i].Percent)
	}

	for _, s := range mentioned {
		praise := s.UniquePraise(topPraise)
		complaints := s.UniqueComplaints(topPraise)
		if len(praise) == 0 && len(complaints) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", Escape(s.Brand))
		if len(praise) > 0 {
			fmt.Fprintf(&b, "- **Praise:** %s\n", Escape(strings.Join(praise, ", ")))
		}
		if len(complaints) > 0 {
			fmt.Fprintf(&b, "- **Complaints:** %s\n", Escape(strings.Join(complaints, ", ")))
		}
	}
	return b.String()
}

// OpportunitiesMarkdown renders the opportunity list.
func OpportunitiesMarkdown(opps []intel.Opportunity) string {
	if len(opps) == 0 {
		return "_No opportunity threads found._\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found **%d** opportunity threads worth **%s** visits/month.\n\n",
		len(opps), humanize.Comma(intel.TotalTraffic(opps)))
	for i, o := range opps {
		fmt.Fprintf(&b, "%d. [%s](%s)  \n   Traffic: %s/month, brands: %s\n",
			i+1, Escape(o.Thread.Title), o.Thread.URL, humanize.Comma(o.Thread.EstimatedTraffic),
			Escape(strings.Join(o.BrandsMentioned, ", ")))
	}
	return b.String()
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`, "`", "\\`",
	"#", `\#`, "<", `\<`, "|", `\|`, "\n", " ",
)

// Escape backslash-escapes Markdown punctuation so s renders as plain text
// in link text, headings and table cells.
func Escape(s string) string {
	return inlineEscaper.Replace(s)
}

// cell escapes characters that would break a Markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
