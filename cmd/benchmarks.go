package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/report"
)

var (
	benchBracket string
	benchRefresh bool
	benchAt      int
)

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks [<hero> <role>]",
	Short: "Show hero averages for a position and bracket",
	Long: `With a hero and role, print the benchmark sequence for that position and
bracket, fetching it if needed. Without arguments, list what is persisted.`,
	Example: `  dotacoach benchmarks "Crystal Maiden" pos5
  dotacoach benchmarks 1 pos1 --bracket DIVINE_IMMORTAL --refresh
  dotacoach benchmarks 1 pos1 --at 12
  dotacoach benchmarks`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected <hero> <role> or no arguments, got %d args", len(args))
		}
		return nil
	},
	RunE: runBenchmarks,
}

var warmCmd = &cobra.Command{
	Use:   "warm <hero:role>...",
	Short: "Prefetch benchmarks for several heroes",
	Long: `Fetch every bracket grouping for each hero and position and persist them,
so later analyses skip the benchmark request. Fetches run concurrently,
bounded by WARM_CONCURRENCY.`,
	Example: `  dotacoach warm 1:pos1 "Crystal Maiden:pos5" 74:pos2`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runWarm,
}

func init() {
	benchmarksCmd.Flags().StringVar(&benchBracket, "bracket", "", "grouping, e.g. HERALD_GUARDIAN (default $DOTACOACH_BRACKET)")
	benchmarksCmd.Flags().BoolVar(&benchRefresh, "refresh", false, "ignore persisted benchmarks and refetch")
	benchmarksCmd.Flags().IntVar(&benchAt, "at", -1, "show only the point a rule at this minute would compare against")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listBenchmarks(cmd)
	}
	key, err := benchmarkKey(args[0], args[1])
	if err != nil {
		return err
	}
	key.Grouping = defaultGrouping()
	if benchBracket != "" {
		if key.Grouping, err = benchmark.ParseGrouping(benchBracket); err != nil {
			return err
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cache := newBenchmarkCache(db, benchRefresh)
	if benchAt >= 0 {
		p, err := benchmark.Resolve(cmd.Context(), cache, key, benchAt)
		if err != nil {
			return err
		}
		cHeader.Fprintf(os.Stdout, "\n%s  %s  %s  @%d\n\n", model.HeroName(key.HeroID), key.Position, key.Grouping, benchAt)
		report.PrintBenchmarkTable(os.Stdout, []benchmark.Point{*p})
		return nil
	}
	points, err := cache.Get(cmd.Context(), key)
	if err != nil {
		return err
	}
	cHeader.Fprintf(os.Stdout, "\n%s  %s  %s  (%d points)\n\n", model.HeroName(key.HeroID), key.Position, key.Grouping, len(points))
	report.PrintBenchmarkTable(os.Stdout, points)
	return nil
}

func listBenchmarks(cmd *cobra.Command) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := db.BenchmarkKeys(cmd.Context())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		cMuted.Println("No benchmarks stored yet. Use 'warm' or 'benchmarks <hero> <role>'.")
		return nil
	}
	report.PrintBenchmarkKeys(os.Stdout, keys)
	return nil
}

func runWarm(cmd *cobra.Command, args []string) error {
	keys := make([]benchmark.Key, 0, len(args))
	for _, a := range args {
		hero, role, ok := strings.Cut(a, ":")
		if !ok {
			return fmt.Errorf("expected hero:role, got %q", a)
		}
		k, err := benchmarkKey(hero, role)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	cache := newBenchmarkCache(db, true)

	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.WarmConcurrency)
	for _, k := range keys {
		g.Go(func() error {
			if err := cache.Refresh(ctx, k.HeroID, k.Position); err != nil {
				return fmt.Errorf("%s %s: %w", model.HeroName(k.HeroID), k.Position, err)
			}
			fmt.Fprintf(os.Stdout, "warmed %-20s %s\n", model.HeroName(k.HeroID), k.Position)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("benchmarks warmed", "keys", len(keys), "entries", cache.Len(), "elapsed", time.Since(start))
	return nil
}

// benchmarkKey resolves a hero id or name and a role into a key without a
// grouping.
func benchmarkKey(hero, role string) (benchmark.Key, error) {
	id, err := parseHero(hero)
	if err != nil {
		return benchmark.Key{}, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return benchmark.Key{}, err
	}
	return benchmark.Key{HeroID: id, Position: r.Position()}, nil
}

