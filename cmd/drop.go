package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the coach database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the coach database",
	Long:  "Permanently delete the SQLite database. Stored reports, raw matches and cached benchmarks will be lost.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	path := cfg.DBPath
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat database: %w", err)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove database: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", path)
	return nil
}
