package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/storage"
)

var rmCmd = &cobra.Command{
	Use:   "rm <report-id-prefix>",
	Short: "Delete stored reports by id prefix",
	Long:  "Delete every stored report whose id starts with the prefix. The raw match stays, so it can still be re-analyzed with analyze --offline.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := removeReports(cmd.Context(), db, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d report(s) deleted\n", n)
	return nil
}

// removeReports deletes by prefix. An empty prefix would match every report
// and is rejected.
func removeReports(ctx context.Context, db *storage.DB, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("empty report id prefix")
	}
	n, err := db.DeleteReport(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, apperr.NotFoundf("no report matching %q", prefix)
	}
	return n, nil
}
