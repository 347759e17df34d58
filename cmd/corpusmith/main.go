package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwexler/corpusmith/internal/config"
	"github.com/mwexler/corpusmith/internal/logging"
	"github.com/mwexler/corpusmith/pkg/crawler"
	"github.com/mwexler/corpusmith/pkg/enricher"
	"github.com/mwexler/corpusmith/pkg/extractor"
	"github.com/mwexler/corpusmith/pkg/fetcher"
	"github.com/mwexler/corpusmith/pkg/pipeline"
	"github.com/mwexler/corpusmith/pkg/reporter"
	"github.com/mwexler/corpusmith/pkg/writer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "corpusmith",
	Short: "Corpusmith - website to AI-ready JSONL corpus",
	Long: `Corpusmith crawls a public website and turns its pages into a
newline-delimited JSON stream of cleaned, enriched documents ready for
AI ingestion pipelines.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [URL]",
	Short: "Crawl a website and write a JSONL corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyScrapeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return runScrape(cmd.Context(), args[0], cfg)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [FILE]",
	Short: "Summarize a JSONL corpus file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		report, err := reporter.New().GenerateReport(args[0], format)
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		fmt.Println(report)
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyScrapeFlags lets explicitly set flags override file and env values.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		cfg.Crawl.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("max-depth") {
		cfg.Crawl.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-concurrent") {
		cfg.Crawl.MaxConcurrent, _ = flags.GetInt("max-concurrent")
	}
	if flags.Changed("delay") {
		cfg.Crawl.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("url-pattern") {
		cfg.Crawl.URLPattern, _ = flags.GetString("url-pattern")
	}
	if flags.Changed("subdomains") {
		cfg.Crawl.AllowSubdomains, _ = flags.GetBool("subdomains")
	}
	if flags.Changed("ignore-robots") {
		ignore, _ := flags.GetBool("ignore-robots")
		cfg.Crawl.RespectRobots = !ignore
	}
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("resume") {
		cfg.Output.Resume, _ = flags.GetBool("resume")
	}
	if flags.Changed("timestamp") {
		cfg.Output.Timestamp, _ = flags.GetBool("timestamp")
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose, _ = flags.GetBool("verbose")
	}
}

func runScrape(ctx context.Context, startURL string, cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Sync()

	start, err := url.Parse(startURL)
	if err != nil {
		return fmt.Errorf("invalid start URL %q: %w", startURL, err)
	}

	scope, err := crawler.NewScope(start, crawler.ScopeOptions{
		IncludePattern:  cfg.Crawl.URLPattern,
		AllowSubdomains: cfg.Crawl.AllowSubdomains,
	})
	if err != nil {
		return err
	}

	client := fetcher.New(fetcher.Options{
		Timeout:    cfg.Crawl.Timeout,
		MaxRetries: cfg.Crawl.MaxRetries,
		Delay:      cfg.Crawl.Delay,
		UserAgent:  cfg.Crawl.UserAgent,
		Logger:     logger,
	})

	var robots crawler.RobotsPolicy
	if cfg.Crawl.RespectRobots {
		robots = fetcher.NewRobots(client.HTTPClient(), cfg.Crawl.UserAgent, logger)
	}

	out, err := writer.New(cfg.Output.Path, cfg.Output.Resume, cfg.Output.Timestamp, logger)
	if err != nil {
		return err
	}
	defer out.Close()

	// Discovery fetches sequentially, one request per delay interval.
	var limiter *rate.Limiter
	if cfg.Crawl.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Crawl.Delay), 1)
	}

	frontier, err := crawler.NewFrontier(crawler.FrontierConfig{
		StartURL: startURL,
		MaxPages: cfg.Crawl.MaxPages,
		MaxDepth: cfg.Crawl.MaxDepth,
		Scope:    scope,
		Fetcher:  client,
		Robots:   robots,
		Limiter:  limiter,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting discovery",
		zap.String("url", startURL),
		zap.Int("max_pages", cfg.Crawl.MaxPages),
		zap.Int("max_depth", cfg.Crawl.MaxDepth))

	began := time.Now()
	targets, err := frontier.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	p := pipeline.New(pipeline.Config{
		Fetcher:       client,
		Extractor:     extractor.New(logger),
		Enricher:      enricher.New(logger),
		Sink:          out,
		MaxConcurrent: cfg.Crawl.MaxConcurrent,
		MaxPages:      cfg.Crawl.MaxPages,
		Logger:        logger,
	})

	summary, err := p.Run(ctx, targets)
	if err != nil {
		return fmt.Errorf("processing interrupted: %w", err)
	}

	logger.Info("crawl complete",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", time.Since(began)),
		zap.String("output", out.Path()))

	fmt.Printf("Wrote %d documents to %s (%d failed, %d skipped)\n",
		summary.Succeeded, out.Path(), summary.Failed, summary.Skipped)
	return nil
}

func init() {
	scrapeCmd.Flags().Int("max-pages", 100, "Maximum pages to crawl")
	scrapeCmd.Flags().Int("max-depth", 3, "Maximum link depth from the start URL")
	scrapeCmd.Flags().Int("max-concurrent", 5, "Maximum concurrent page fetches")
	scrapeCmd.Flags().Duration("delay", time.Second, "Delay between requests")
	scrapeCmd.Flags().String("url-pattern", "", "Regex that discovered links must match")
	scrapeCmd.Flags().Bool("subdomains", false, "Follow links to sibling subdomains")
	scrapeCmd.Flags().Bool("ignore-robots", false, "Do not consult robots.txt")
	scrapeCmd.Flags().StringP("output", "o", "output.jsonl", "Output JSONL file")
	scrapeCmd.Flags().Bool("resume", false, "Skip URLs already present in the output file")
	scrapeCmd.Flags().Bool("timestamp", false, "Add a per-run hash to the output filename")

	statsCmd.Flags().String("format", "text", "Report format (text, json)")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(statsCmd)

	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
