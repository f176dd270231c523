package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/config"
	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/opendota"
	"github.com/pable/dota-coach/internal/rules"
	"github.com/pable/dota-coach/internal/storage"
	"github.com/pable/dota-coach/internal/stratz"
)

var (
	dbPath    string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dotacoach",
	Short: "Dota 2 match coaching reports",
	Long: `Fetch a finished Dota 2 match from OpenDota or Stratz, compare one player
against hero, position and bracket averages, and print a short list of fixes
and wins with a timeline.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default $DOTACOACH_DB or ~/.dotacoach/coach.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json (default $LOG_FORMAT or console)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(benchmarksCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger = logging.New(level, cfg.LogFormat)
	logging.SetDefault(logger)
	return nil
}

func openStore() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func newOpenDota() *opendota.Client {
	return opendota.NewClient(opendota.ClientConfig{
		BaseURL:    cfg.OpenDotaBaseURL,
		APIKey:     cfg.OpenDotaAPIKey,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
}

func newStratz() *stratz.Client {
	return stratz.NewClient(stratz.ClientConfig{
		URL:        cfg.StratzURL,
		Token:      cfg.StratzToken,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
}

func newRuleStore() *rules.Store {
	return rules.NewStore(cfg.RulesetPath, cfg.ThresholdsPath, logger)
}

// newBenchmarkCache builds the read-through cache over Stratz and the store.
// With refresh set, persisted entries are ignored but still overwritten.
func newBenchmarkCache(db *storage.DB, refresh bool) *benchmark.Cache {
	var p benchmark.Persister = db
	if refresh {
		p = writeOnly{db}
	}
	return benchmark.NewCache(benchmark.CacheConfig{
		Fetcher:   newStratz(),
		Persister: p,
		TTL:       cfg.BenchmarkTTL,
		Logger:    logger,
	})
}

// storedBenchmarks serves only what the store already holds.
func storedBenchmarks(db *storage.DB) *benchmark.Cache {
	return benchmark.NewCache(benchmark.CacheConfig{
		Persister: db,
		TTL:       cfg.BenchmarkTTL,
		Logger:    logger,
	})
}

type writeOnly struct{ benchmark.Persister }

func (writeOnly) LoadBenchmark(context.Context, benchmark.Key) (*benchmark.Entry, error) {
	return nil, nil
}

func defaultGrouping() benchmark.Grouping {
	g, err := benchmark.ParseGrouping(cfg.DefaultBracket)
	if err != nil {
		return benchmark.LegendAncient
	}
	return g
}
