package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/report"
	"github.com/pable/dota-coach/internal/storage"
)

var (
	listMatch int64
	listHero  string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int64Var(&listMatch, "match", 0, "only reports for this match id")
	listCmd.Flags().StringVar(&listHero, "hero", "", "only reports for this hero (id or name)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")
}

func runList(cmd *cobra.Command, args []string) error {
	f := storage.ListFilter{MatchID: listMatch, Limit: listLimit}
	if listHero != "" {
		id, err := parseHero(listHero)
		if err != nil {
			return err
		}
		f.HeroID = id
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if len(reports) == 0 {
		fmt.Fprintln(os.Stdout, "No reports stored yet. Run 'dotacoach analyze <matchId>' to add one.")
		return nil
	}
	report.PrintReportList(os.Stdout, reports, reportAge)
	return nil
}

func reportAge(r model.ReportSummary) string {
	return humanize.Time(r.CreatedAt)
}
