// Package intel aggregates brand sentiment across discovered threads and
// finds threads where competitors are discussed but your brand is not.
package intel

import (
	"math"

	"github.com/TobiSchelling/redranks/internal/api"
)

// BrandStats is the sentiment tally of one brand summed over many threads.
type BrandStats struct {
	Brand      string
	Positive   int
	Negative   int
	Neutral    int
	Threads    int
	Praise     []string
	Complaints []string
}

// Total is the number of mentions across all sentiment classes.
func (s BrandStats) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

// PositiveRate is the share of positive mentions as a whole percentage,
// rounded half away from zero. It is 0 when there are no mentions.
func (s BrandStats) PositiveRate() int {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Positive) / float64(total) * 100))
}

// UniquePraise returns up to n distinct praise phrases in first-seen order.
// A non-positive n returns all of them.
func (s BrandStats) UniquePraise(n int) []string {
	return uniqueN(s.Praise, n)
}

// UniqueComplaints returns up to n distinct complaints in first-seen order.
func (s BrandStats) UniqueComplaints(n int) []string {
	return uniqueN(s.Complaints, n)
}

// AggregateSentiment merges per-thread brand sentiment into one entry per
// brand. Brands appear in the order they are first seen in the response.
func AggregateSentiment(threads []api.Thread) []BrandStats {
	index := make(map[string]int)
	var out []BrandStats

	for _, th := range threads {
		sentiments := th.Analysis.BrandSentiments
		for _, brand := range sentiments.Brands() {
			s, _ := sentiments.Get(brand)

			i, ok := index[brand]
			if !ok {
				i = len(out)
				index[brand] = i
				out = append(out, BrandStats{Brand: brand})
			}

			st := &out[i]
			st.Positive += s.Positive
			st.Negative += s.Negative
			st.Neutral += s.Neutral
			st.Threads++
			st.Praise = append(st.Praise, s.Praise...)
			st.Complaints = append(st.Complaints, s.Complaints...)
		}
	}
	return out
}

// Mentioned drops brands without any mentions.
func Mentioned(stats []BrandStats) []BrandStats {
	var out []BrandStats
	for _, s := range stats {
		if s.Total() > 0 {
			out = append(out, s)
		}
	}
	return out
}

// ShareOfVoice is one brand's portion of all mentions in a result set.
type ShareOfVoice struct {
	Brand    string
	Mentions int
	Percent  float64
}

// Summarize computes each brand's share of all mentions. Order follows stats.
func Summarize(stats []BrandStats) []ShareOfVoice {
	var all int
	for _, s := range stats {
		all += s.Total()
	}

	out := make([]ShareOfVoice, 0, len(stats))
	for _, s := range stats {
		sov := ShareOfVoice{Brand: s.Brand, Mentions: s.Total()}
		if all > 0 {
			sov.Percent = float64(s.Total()) / float64(all) * 100
		}
		out = append(out, sov)
	}
	return out
}

func uniqueN(items []string, n int) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
