package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/redranks/internal/api"
	"github.com/TobiSchelling/redranks/internal/config"
	"github.com/TobiSchelling/redranks/internal/database"
	"github.com/TobiSchelling/redranks/internal/logger"
	"github.com/TobiSchelling/redranks/internal/server"
)

var version = "dev"

var (
	verbose    bool
	jsonOutput bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if api.IsAPIError(err) {
			fmt.Fprintf(os.Stderr, "\nAPI Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Check your API key and try again.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "redranks",
	Short:         "Reddit SEO intelligence from the RedRanks API",
	Long:          "redranks researches keywords, SERPs and ranking Reddit threads, and finds threads where competitors are discussed but your brand is not.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return logger.InitLogger(level, "")
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if !verbose {
			level = cfg.Logging.Level
		}
		if err := logger.InitLogger(level, cfg.Logging.File); err != nil {
			return err
		}
		if path == "" {
			logger.Log.Debug("No config file found, using built-in defaults")
		} else {
			logger.Log.Debugf("Loaded config from %s", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw API responses as JSON")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(serpCmd)
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(intelCmd)
	rootCmd.AddCommand(opportunitiesCmd)
	rootCmd.AddCommand(examplesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("redranks", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/redranks/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your brand and competitors, and export RAPIDAPI_KEY.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Runs:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		for _, kind := range []string{
			database.KindKeywords, database.KindSERP, database.KindThreads,
			database.KindIntel, database.KindOpportunities,
		} {
			fmt.Printf("  %s: %d\n", kind, stats.RunsByKind[kind])
		}
		if stats.LastRunAt != nil {
			fmt.Printf("  Last run: %s\n", *stats.LastRunAt)
		}
		fmt.Println("\nTracked:")
		fmt.Printf("  Keywords: %d\n", stats.Keywords)
		fmt.Printf("  Brands: %d\n", stats.BrandsTracked)
		fmt.Printf("  Opportunities: %d\n", stats.Opportunities)
		fmt.Printf("  Threads enriched: %d\n", stats.ThreadsEnriched)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs saved yet. Try: redranks examples")
			return nil
		}

		for _, r := range runs {
			created := ""
			if r.CreatedAt != nil {
				created = *r.CreatedAt
			}
			fmt.Printf("  %s  %-19s  %-13s  %s\n", r.ID[:8], created, r.Kind, shorten(r.Keyword, 40))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web viewer for saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// openDB opens the history database, or returns nil when storage is disabled.
func openDB() (*database.DB, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "redranks.db")
	return database.Open(dbPath)
}

func requireDB() (*database.DB, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("run history is disabled (storage.enabled: false)")
	}
	return db, nil
}

func newClient() (*api.Client, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: export %s", api.ErrMissingAPIKey, cfg.API.APIKeyEnv)
	}
	return api.New(cfg.API.BaseURL, cfg.API.Host, key,
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RequestsPerMinute, cfg.API.Burst),
		api.WithUserAgent("redranks/"+version),
	)
}

// shorten cuts s to n runes, marking the cut with "...".
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatTraffic(n int64) string {
	return strings.TrimSpace(humanize.Comma(n))
}
