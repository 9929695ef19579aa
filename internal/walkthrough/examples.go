package walkthrough

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/intel"
	"github.com/TobiSchelling/redranks/internal/logger"
	"github.com/TobiSchelling/redranks/internal/report"
)

// StepResult holds the result of a single example.
type StepResult struct {
	Name string
	Err  error
}

// Result holds the results of a full examples run.
type Result struct {
	Steps []StepResult
}

// Err returns the error of the step that stopped the run, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

type example struct {
	name string
	run  func(ctx context.Context, r *Runner) error
}

// examples are the five walkthroughs in the order they are presented.
var examples = []example{
	{"Keyword Research", func(ctx context.Context, r *Runner) error {
		req := api.NewKeywordMetricsRequest("crm software", "project management", "help desk software")
		return r.Keywords(ctx, req)
	}},
	{"SERP Analysis", func(ctx context.Context, r *Runner) error {
		return r.SERP(ctx, api.NewSERPAnalysisRequest("best crm software"))
	}},
	{"Discussion Discovery", func(ctx context.Context, r *Runner) error {
		req := api.NewDiscoverThreadsRequest("CRM software")
		req.YourBrand = ptr("Acme CRM")
		req.Competitors = []string{"HubSpot", "Salesforce", "Pipedrive"}
		req.MaxThreads = 5
		return r.Threads(ctx, req)
	}},
	{"Competitive Intelligence", func(ctx context.Context, r *Runner) error {
		req := api.NewDiscoverThreadsRequest("email marketing software")
		req.YourBrand = ptr("MailPro")
		req.Competitors = []string{"Mailchimp", "ConvertKit", "Klaviyo"}
		req.MaxThreads = 10
		_, err := r.Intel(ctx, req)
		return err
	}},
	{"Find Opportunities", func(ctx context.Context, r *Runner) error {
		req := api.NewDiscoverThreadsRequest("best crm for startups")
		req.YourBrand = ptr("Acme CRM")
		req.Competitors = []string{"HubSpot", "Salesforce", "Pipedrive"}
		req.MaxThreads = 10
		_, err := r.Opportunities(ctx, req, intel.DefaultMinTraffic)
		return err
	}},
}

// RunExamples runs every example in order and stops at the first failure.
func (r *Runner) RunExamples(ctx context.Context) *Result {
	res := &Result{}

	// Banners are text only; in JSON mode stdout carries one document per example.
	text := !r.opts.JSON
	if text {
		fmt.Fprintln(r.out, "\nRedRanks SEO Intelligence API - Go Examples")
		fmt.Fprintln(r.out, "Tutorials: https://www.redranks.com/tutorials/")
		fmt.Fprintln(r.out)
	}

	for i, ex := range examples {
		if text {
			if i > 0 {
				fmt.Fprintln(r.out)
			}
			report.Header(r.out, fmt.Sprintf("EXAMPLE %d: %s", i+1, ex.name))
		}
		logger.Log.Debugf("Example %d/%d: %s", i+1, len(examples), ex.name)

		err := ex.run(ctx, r)
		res.Steps = append(res.Steps, StepResult{Name: ex.name, Err: err})
		if err != nil {
			return res
		}
	}

	if text {
		fmt.Fprintln(r.out)
		report.Header(r.out, "All examples completed!")
	}
	return res
}

func ptr(s string) *string { return &s }
