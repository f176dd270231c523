package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/analysis"
	"github.com/pable/dota-coach/internal/report"
	"github.com/pable/dota-coach/internal/rules"
)

var rulesThresholds string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate the coaching ruleset",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [ruleset.yaml]",
	Short: "Validate a ruleset and list unknown metrics or references",
	Long: `Load the ruleset (the configured one when no file is given), run schema and
cross-reference validation, then lint every condition against the metric
catalog and the thresholds document. Exits non-zero on any problem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesCheck,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active ruleset",
	Args:  cobra.NoArgs,
	RunE:  runRulesShow,
}

var rulesMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the metric names and threshold references rules may use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, m := range analysis.Metrics() {
			fmt.Fprintln(os.Stdout, m)
		}
		rs, err := newRuleStore().Current(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout)
		report.PrintThresholds(os.Stdout, rs.Thresholds)
		return nil
	},
}

func init() {
	rulesCheckCmd.Flags().StringVar(&rulesThresholds, "thresholds", "", "thresholds document (default: configured or embedded)")
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesMetricsCmd)
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rulesPath, thPath := cfg.RulesetPath, cfg.ThresholdsPath
	if len(args) == 1 {
		rulesPath = args[0]
	}
	if rulesThresholds != "" {
		thPath = rulesThresholds
	}

	rs, err := rules.LoadFiles(rulesPath, thPath)
	if err != nil {
		return err
	}
	issues := rules.Lint(rs, analysis.KnownMetric)
	for _, msg := range issues {
		cWarn.Fprintf(os.Stdout, "  %s\n", msg)
	}
	if len(issues) > 0 {
		return fmt.Errorf("ruleset %s: %d lint issue(s)", rs.Version, len(issues))
	}
	fmt.Fprintf(os.Stdout, "ruleset %s OK: %d rules, %d guards, %d categories\n",
		rs.Version, len(rs.Rules), len(rs.Guards), len(rs.Categories))
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	rs, err := newRuleStore().Current(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintRules(os.Stdout, rs)
	return nil
}
