package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/opendota"
)

var (
	parseAttempts int
	parseDelay    time.Duration
)

var parseCmd = &cobra.Command{
	Use:   "parse <matchId>",
	Short: "Ask OpenDota to parse a replay and wait for it",
	Long: `Unparsed OpenDota matches lack per-minute series, wards and stacks. This
requests a replay parse and polls the job until it finishes or the attempts
run out.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntVar(&parseAttempts, "attempts", opendota.DefaultParseAttempts, "status checks before giving up")
	parseCmd.Flags().DurationVar(&parseDelay, "delay", opendota.DefaultParseDelay, "wait between status checks")
}

func runParse(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q: %w", args[0], err)
	}

	client := newOpenDota()
	ctx := cmd.Context()
	jobID, err := client.RequestParse(ctx, matchID)
	if err != nil {
		return fmt.Errorf("request parse: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Parse requested for match %d (job %d), waiting...\n", matchID, jobID)

	done, err := client.WaitForParse(ctx, jobID, parseAttempts, parseDelay)
	if err != nil {
		return err
	}
	if !done {
		fmt.Fprintf(os.Stdout, "Job %d still pending after %d checks; try again later.\n", jobID, parseAttempts)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Match %d parsed.\n", matchID)
	return nil
}
