package cmd

import (
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <report-id-prefix>",
	Short: "Show a stored report by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the report as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.GetReportByPrefix(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printReport(r, showJSON)
}
