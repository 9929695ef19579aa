package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/enrich"
	"github.com/TobiSchelling/redranks/internal/intel"
	"github.com/TobiSchelling/redranks/internal/logger"
	"github.com/TobiSchelling/redranks/internal/report"
	"github.com/TobiSchelling/redranks/internal/walkthrough"
)

// newRunner wires the API client and the optional history database. The
// returned cleanup closes the database.
func newRunner(opts walkthrough.Options) (*walkthrough.Runner, func(), error) {
	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDB()
	if err != nil {
		logger.Log.Warnf("Run history unavailable: %v", err)
		db = nil
	}
	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	opts.JSON = jsonOutput
	return walkthrough.New(client, db, os.Stdout, opts), cleanup, nil
}

func header(title string) {
	if !jsonOutput {
		report.Header(os.Stdout, title)
	}
}

// --- keywords command ---

var (
	includeRelated bool
	maxRelated     int
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords KEYWORD...",
	Short: "Keyword research: volume, CPC, difficulty and related keywords",
	Args:  cobra.RangeArgs(1, 10),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := newRunner(walkthrough.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		req := api.NewKeywordMetricsRequest(args...)
		req.IncludeRelated = includeRelated
		req.MaxRelated = maxRelated

		header("Keyword Research")
		return r.Keywords(cmd.Context(), req)
	},
}

func init() {
	keywordsCmd.Flags().BoolVar(&includeRelated, "related", true, "Include related keywords")
	keywordsCmd.Flags().IntVar(&maxRelated, "max-related", 5, "Related keywords per keyword (1-20)")
}

// --- serp command ---

var (
	noFeatures bool
	maxResults int
)

var serpCmd = &cobra.Command{
	Use:   "serp KEYWORD",
	Short: "SERP analysis: features, discussion positions and organic results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := newRunner(walkthrough.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		req := api.NewSERPAnalysisRequest(args[0])
		req.IncludeFeatures = !noFeatures
		req.MaxResults = maxResults

		header("SERP Analysis")
		return r.SERP(cmd.Context(), req)
	},
}

func init() {
	serpCmd.Flags().BoolVar(&noFeatures, "no-features", false, "Skip SERP feature detection")
	serpCmd.Flags().IntVar(&maxResults, "max-results", 10, "Organic results to return (1-20)")
}

// --- thread discovery commands ---

// threadFlags are shared by threads, intel and opportunities. Unset flags
// fall back to the defaults section of the config.
type threadFlags struct {
	brand       string
	competitors []string
	maxThreads  int
	maxComments int
	freshness   string
}

func (f *threadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.brand, "brand", "b", "", "Your brand (default from config)")
	cmd.Flags().StringSliceVar(&f.competitors, "competitors", nil, "Competitor brands, comma separated (default from config)")
	cmd.Flags().IntVar(&f.maxThreads, "max-threads", 10, "Threads to analyze (0-20)")
	cmd.Flags().IntVar(&f.maxComments, "max-comments", 5, "Comments analyzed per thread (0-20)")
	cmd.Flags().StringVar(&f.freshness, "freshness", api.FreshnessBalanced, "Data freshness: realtime, balanced or custom")
}

func (f *threadFlags) request(cmd *cobra.Command, keyword string) api.DiscoverThreadsRequest {
	d := cfg.Defaults
	req := api.NewDiscoverThreadsRequest(keyword)
	req.MaxThreads = d.MaxThreads
	req.MaxCommentsPerThread = d.MaxComments
	req.DataFreshness = d.Freshness
	req.Competitors = d.Competitors

	brand := d.Brand
	if cmd.Flags().Changed("brand") {
		brand = f.brand
	}
	if brand != "" {
		req.YourBrand = &brand
	}
	if cmd.Flags().Changed("competitors") {
		req.Competitors = f.competitors
	}
	if cmd.Flags().Changed("max-threads") {
		req.MaxThreads = f.maxThreads
	}
	if cmd.Flags().Changed("max-comments") {
		req.MaxCommentsPerThread = f.maxComments
	}
	if cmd.Flags().Changed("freshness") {
		req.DataFreshness = f.freshness
	}
	return req
}

var threadsFlags, intelFlags, oppFlags threadFlags

var threadsCmd = &cobra.Command{
	Use:   "threads KEYWORD",
	Short: "Discussion discovery: ranking Reddit threads and their traffic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := newRunner(walkthrough.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		header("Discussion Discovery")
		return r.Threads(cmd.Context(), threadsFlags.request(cmd, args[0]))
	},
}

var intelCmd = &cobra.Command{
	Use:   "intel KEYWORD",
	Short: "Competitive intelligence: brand sentiment across ranking threads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := newRunner(walkthrough.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		header("Competitive Intelligence")
		_, err = r.Intel(cmd.Context(), intelFlags.request(cmd, args[0]))
		return err
	},
}

var (
	minTraffic   int64
	enrichThread bool
)

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities KEYWORD",
	Short: "Find threads where competitors are discussed but your brand is not",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := oppFlags.request(cmd, args[0])
		if req.Brand() == "" {
			logger.Log.Warn("No brand set; every competitor thread counts as an opportunity")
		}

		var opts walkthrough.Options
		if enrichThread {
			opts.Enricher = enrich.New(nil, cfg.API.Timeout)
		}
		r, cleanup, err := newRunner(opts)
		if err != nil {
			return err
		}
		defer cleanup()

		threshold := int64(cfg.Defaults.MinTraffic)
		if cmd.Flags().Changed("min-traffic") {
			threshold = minTraffic
		}

		header("Find Opportunities")
		opps, err := r.Opportunities(cmd.Context(), req, threshold)
		if err != nil {
			return err
		}
		if !jsonOutput && len(opps) > 0 {
			fmt.Printf("\nTotal opportunity traffic: %s/month\n", formatTraffic(intel.TotalTraffic(opps)))
		}
		return nil
	},
}

func init() {
	threadsFlags.register(threadsCmd)
	intelFlags.register(intelCmd)
	oppFlags.register(opportunitiesCmd)
	opportunitiesCmd.Flags().Int64Var(&minTraffic, "min-traffic", intel.DefaultMinTraffic, "Minimum estimated monthly traffic (exclusive)")
	opportunitiesCmd.Flags().BoolVar(&enrichThread, "enrich", false, "Fetch recent activity for each opportunity thread")
}

// --- examples command ---

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Run all five walkthroughs with sample inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := newRunner(walkthrough.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		return r.RunExamples(cmd.Context()).Err()
	},
}
