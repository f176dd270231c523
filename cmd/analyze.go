package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/analysis"
	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/report"
	"github.com/pable/dota-coach/internal/steam"
	"github.com/pable/dota-coach/internal/storage"
)

var (
	analyzeProvider string
	analyzeSlot     int
	analyzeHero     string
	analyzeAccount  string
	analyzeRole     string
	analyzeBracket  string
	analyzeJSON     bool
	analyzeNoStore  bool
	analyzeRefresh  bool
	analyzeOffline  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <matchId>",
	Short: "Analyze one player in a finished match",
	Long: `Fetch the match, normalize the selected player's stats, compare them with
hero averages for the player's position and bracket, and print fixes, wins
and a timeline. The report is stored unless --no-store is given.

Select the player with --slot, --account or --hero. OpenDota matches also need --role;
Stratz matches default to the position Stratz reports.

With --offline the match is read from the local store (any earlier analyze
saved it) and only persisted benchmarks are used; nothing is fetched.`,
	Example: `  dotacoach analyze 7812345678 --hero "Anti-Mage" --role pos1
  dotacoach analyze 7812345678 --account 76561197960287930 --role pos3
  dotacoach analyze 7812345678 --provider stratz --slot 128 --bracket DIVINE_IMMORTAL
  dotacoach analyze 7812345678 --hero "Anti-Mage" --role pos1 --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", string(model.ProviderOpenDota), "match source: opendota or stratz")
	analyzeCmd.Flags().IntVar(&analyzeSlot, "slot", 0, "player slot (0-4 radiant, 128-132 dire)")
	analyzeCmd.Flags().StringVar(&analyzeHero, "hero", "", "hero id or name")
	analyzeCmd.Flags().StringVar(&analyzeAccount, "account", "", "player's Steam account (SteamID64, [U:1:N] or account id)")
	analyzeCmd.Flags().StringVar(&analyzeRole, "role", "", "pos1..pos5")
	analyzeCmd.Flags().StringVar(&analyzeBracket, "bracket", "", "benchmark grouping, e.g. LEGEND_ANCIENT (default: from match rank)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "do not persist the match or report")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "ignore persisted benchmarks and refetch")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "re-analyze a stored match without network access")
	analyzeCmd.MarkFlagsMutuallyExclusive("offline", "refresh")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req, err := analyzeRequest(cmd, args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	acfg := analysis.Config{
		Rules:           newRuleStore(),
		DefaultGrouping: defaultGrouping(),
		Logger:          logger,
	}
	if analyzeOffline {
		acfg.OpenDota = storage.OpenDotaArchive{DB: db}
		acfg.Stratz = storage.StratzArchive{DB: db}
		acfg.Benchmarks = storedBenchmarks(db)
	} else {
		acfg.OpenDota = newOpenDota()
		acfg.Stratz = newStratz()
		acfg.Benchmarks = newBenchmarkCache(db, analyzeRefresh)
		if !analyzeNoStore {
			acfg.Raw = db
		}
	}

	ctx := cmd.Context()
	r, _, err := analysis.New(acfg).Analyze(ctx, req)
	if err != nil {
		return err
	}

	if !analyzeNoStore {
		if err := db.InsertReport(ctx, r); err != nil {
			return fmt.Errorf("store report: %w", err)
		}
	}
	return printReport(r, analyzeJSON)
}

func analyzeRequest(cmd *cobra.Command, arg string) (analysis.Request, error) {
	matchID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("invalid match id %q: %w", arg, err)
	}
	req := analysis.Request{MatchID: matchID, Provider: model.Provider(analyzeProvider)}
	switch req.Provider {
	case model.ProviderOpenDota, model.ProviderStratz:
	default:
		return req, fmt.Errorf("unknown provider %q", analyzeProvider)
	}

	if cmd.Flags().Changed("slot") {
		slot := analyzeSlot
		req.Slot = &slot
	}
	if analyzeHero != "" {
		if req.HeroID, err = parseHero(analyzeHero); err != nil {
			return req, err
		}
	}
	if analyzeAccount != "" {
		a, err := steam.ParseAccount(analyzeAccount)
		if err != nil {
			return req, err
		}
		req.AccountID = int64(a)
	}
	if req.Slot == nil && req.AccountID == 0 && req.HeroID == 0 {
		return req, fmt.Errorf("select a player with --slot, --account or --hero")
	}

	if analyzeRole != "" {
		if req.Role, err = model.ParseRole(analyzeRole); err != nil {
			return req, err
		}
	} else if req.Provider == model.ProviderOpenDota {
		return req, fmt.Errorf("--role is required for opendota matches")
	}

	if analyzeBracket != "" {
		if req.Grouping, err = benchmark.ParseGrouping(analyzeBracket); err != nil {
			return req, err
		}
	}
	return req, nil
}

func parseHero(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	if id, ok := model.HeroIDByName(s); ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown hero %q", s)
}

func printReport(r *model.Report, asJSON bool) error {
	if !asJSON {
		report.PrintReport(os.Stdout, r)
		return nil
	}
	out, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
