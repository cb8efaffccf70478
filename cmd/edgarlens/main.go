// EdgarLens — SEC EDGAR reference index & filing enrichment engine
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/edgarlens/api"
	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/filings"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/internal/refindex"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edgarlens",
	Short: "EdgarLens — SEC EDGAR reference index & filing enrichment engine",
	Long: `EdgarLens resolves tickers, company names, and CIK numbers against the
SEC EDGAR registrant universe, serves ranked autocomplete suggestions,
and fetches recent filings enriched with 8-K item codes, event badges,
and dollar-amount extraction from offering documents.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

func setupLogging(lc config.LoggingConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newResolver wires the lookup stack for one-shot CLI commands. The
// optional badger tier is skipped here: a single invocation has no
// second request to serve from it.
func newResolver() *refindex.Resolver {
	fetcher := infra.NewFetcher(
		infra.WithUserAgent(cfg.Edgar.UserAgent),
		infra.WithRateLimit(cfg.Edgar.RateLimit, time.Second),
	)
	builder := refindex.NewBuilder(fetcher, cfg.Edgar.BaseURL)
	return refindex.NewResolver(refindex.NewIndexCache(builder))
}

func newFetcher() *infra.Fetcher {
	return infra.NewFetcher(
		infra.WithUserAgent(cfg.Edgar.UserAgent),
		infra.WithRateLimit(cfg.Edgar.RateLimit, time.Second),
	)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("EdgarLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Resolve Command ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [query]",
	Short: "Resolve a ticker, company name, or CIK to its canonical CIK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cik, err := newResolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(cik)
		return nil
	},
}

// --- Suggest Command ---

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Show ranked autocomplete suggestions for a partial query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		rows, err := newResolver().Suggest(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, row := range rows {
			fmt.Printf("%-10s %s  %s\n", row.Symbol, row.CIK, row.Name)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().Int("limit", 0, "maximum suggestions to return")
}

// --- Filings Command ---

var filingsCmd = &cobra.Command{
	Use:   "filings [company]",
	Short: "List recent filings for a registrant, with enrichment",
	Long: `List a registrant's most recent filings from the EDGAR submissions API.
The argument may be a ticker, company name, or CIK. Event reports and
offering documents are fetched and mined for item codes, badges, and
offering amounts unless --raw is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		raw, _ := cmd.Flags().GetBool("raw")
		if limit <= 0 {
			limit = cfg.Enrich.FilingLimit
		}

		cik, err := newResolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fetcher := newFetcher()
		client := filings.NewClient(fetcher, cfg.Edgar.DataBaseURL, cfg.Edgar.ArchiveBaseURL)
		recent, err := client.Recent(cmd.Context(), cik, limit)
		if err != nil {
			return err
		}
		if !raw {
			enricher := filings.NewEnricher(fetcher, cfg.Enrich.Concurrency)
			recent = enricher.Enrich(cmd.Context(), recent)
		}

		for _, f := range recent {
			fmt.Printf("%s  %-8s %s\n", f.FiledAt.Format("2006-01-02"), f.FormType, f.Title)
			for _, badge := range f.Badges {
				fmt.Printf("            • %s\n", badge)
			}
			if f.HasAmount {
				fmt.Printf("            $%.0f\n", f.AmountUSD)
			}
		}
		return nil
	},
}

func init() {
	filingsCmd.Flags().Int("limit", 0, "maximum filings to list")
	filingsCmd.Flags().Bool("raw", false, "skip document enrichment")
}

// --- Feed Command ---

var feedCmd = &cobra.Command{
	Use:   "feed [company]",
	Short: "Show the registrant's live Atom filing feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cik, err := newResolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		feed := filings.NewFeed(newFetcher(), cfg.Edgar.BaseURL)
		entries, err := feed.Latest(cmd.Context(), cik, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-8s %s\n", e.Updated.Format("2006-01-02 15:04"), e.Category, e.Title)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().Int("limit", 0, "maximum feed entries to show")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		defer srv.Close()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting EdgarLens API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  EdgarLens — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    User-Agent:    %s\n", cfg.Edgar.UserAgent)
		fmt.Printf("    EDGAR Host:    %s\n", cfg.Edgar.BaseURL)
		fmt.Printf("    Data Host:     %s\n", cfg.Edgar.DataBaseURL)
		fmt.Printf("    Rate Limit:    %d req/s\n", cfg.Edgar.RateLimit)
		fmt.Printf("    Index TTL:     %ds\n", cfg.Index.CacheTTL)
		storeStatus := "memory only"
		if cfg.Store.Enabled {
			storeStatus = fmt.Sprintf("badger (%s)", cfg.Store.Path)
		}
		fmt.Printf("    Index Store:   %s\n", storeStatus)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
