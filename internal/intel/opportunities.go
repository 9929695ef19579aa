package intel

import "github.com/TobiSchelling/redranks/internal/api"

// DefaultMinTraffic is the monthly traffic a thread must exceed to count as
// an opportunity.
const DefaultMinTraffic = 500

// Opportunity is a thread where competitors are discussed without your brand.
type Opportunity struct {
	Thread          api.Thread
	BrandsMentioned []string
}

// FindOpportunities keeps threads that mention at least one competitor, do
// not mention brand, and have estimated traffic strictly above minTraffic.
// Response order is preserved.
func FindOpportunities(threads []api.Thread, brand string, competitors []string, minTraffic int64) []Opportunity {
	var out []Opportunity
	for _, th := range threads {
		brands := th.Analysis.BrandSentiments

		hasCompetitor := false
		for _, c := range competitors {
			if brands.Has(c) {
				hasCompetitor = true
				break
			}
		}
		hasBrand := brand != "" && brands.Has(brand)
		highTraffic := th.EstimatedTraffic > minTraffic

		if hasCompetitor && !hasBrand && highTraffic {
			out = append(out, Opportunity{Thread: th, BrandsMentioned: brands.Brands()})
		}
	}
	return out
}

// TotalTraffic sums the estimated monthly traffic of the opportunities.
func TotalTraffic(opps []Opportunity) int64 {
	var total int64
	for _, o := range opps {
		total += o.Thread.EstimatedTraffic
	}
	return total
}
