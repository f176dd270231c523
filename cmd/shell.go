package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/report"
	"github.com/pable/dota-coach/internal/rules"
	"github.com/pable/dota-coach/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

type session struct {
	ctx   context.Context
	db    *storage.DB
	cache *benchmark.Cache
	rules *rules.Store
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	s := &session{ctx: cmd.Context(), db: db, cache: newBenchmarkCache(db, false), rules: newRuleStore()}

	cGreeting.Println("dotacoach shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("dotacoach")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list()
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <report-id-prefix>")
				continue
			}
			s.show(args[0])
		case "bench", "benchmarks":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: bench <hero> <role> [bracket]")
				continue
			}
			s.benchmarks(args)
		case "rm":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: rm <report-id-prefix>")
				continue
			}
			s.remove(args[0])
		case "rules":
			s.showRules()
		case "reload":
			s.reload()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list stored reports"},
		{"show <report-id-prefix>", "render a stored report"},
		{"rm <report-id-prefix>", "delete stored reports"},
		{"bench <hero> <role> [bracket]", "hero averages for a position"},
		{"rules", "print the active ruleset"},
		{"reload", "re-read the ruleset and thresholds, drop cached benchmarks"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *session) list() {
	reports, err := s.db.ListReports(s.ctx, storage.ListFilter{Limit: 20})
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(reports) == 0 {
		cMuted.Println("No reports stored yet.")
		return
	}
	report.PrintReportList(os.Stdout, reports, reportAge)
}

func (s *session) show(prefix string) {
	r, err := s.db.GetReportByPrefix(s.ctx, prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintReport(os.Stdout, r)
}

func (s *session) remove(prefix string) {
	n, err := removeReports(s.ctx, s.db, prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cMuted.Printf("%d report(s) deleted\n", n)
}

func (s *session) benchmarks(args []string) {
	key, err := benchmarkKey(args[0], args[1])
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	key.Grouping = defaultGrouping()
	if len(args) > 2 {
		if key.Grouping, err = benchmark.ParseGrouping(args[2]); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
	}
	points, err := s.cache.Get(s.ctx, key)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cHeader.Fprintf(os.Stdout, "\n%s  %s  %s\n\n", model.HeroName(key.HeroID), key.Position, key.Grouping)
	report.PrintBenchmarkTable(os.Stdout, points)
}

func (s *session) showRules() {
	rs, err := s.rules.Current(s.ctx)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintRules(os.Stdout, rs)
}

func (s *session) reload() {
	s.cache.Purge()
	rs, err := s.rules.Reload(s.ctx)
	if err != nil {
		cError.Fprintf(os.Stderr, "reload failed, keeping previous ruleset: %v\n", err)
		return
	}
	cMuted.Printf("ruleset %s loaded: %d rules\n", rs.Version, len(rs.Rules))
}
