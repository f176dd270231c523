package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/rules"
)

var (
	cTitle = color.New(color.FgCyan, color.Bold)
	cFix   = color.New(color.FgRed, color.Bold)
	cWin   = color.New(color.FgGreen, color.Bold)
	cMuted = color.New(color.Faint)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func leftTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintHeader prints a one-line header for the report.
func PrintHeader(w io.Writer, r *model.Report) {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	cTitle.Fprintf(w, "\nMatch %d  |  %s (%s)  |  %s  |  %s  |  ruleset %s  |  %s\n\n",
		r.MatchID, r.HeroName, r.Role, r.Provider, r.Grouping, r.RulesetVersion, id)
}

// PrintReport renders the full report: summary, fixes, wins, timeline and
// benchmark comparisons.
func PrintReport(w io.Writer, r *model.Report) {
	PrintHeader(w, r)
	fmt.Fprintln(w, r.Summary)
	if r.Defaulted {
		cMuted.Fprintln(w, "No rule matched this game; showing general advice.")
	}

	fmt.Fprintln(w)
	cFix.Fprintln(w, "Fixes")
	PrintFindings(w, r.Fixes)

	fmt.Fprintln(w)
	cWin.Fprintln(w, "Wins")
	PrintFindings(w, r.Wins)

	if len(r.Timeline) > 0 {
		fmt.Fprintln(w)
		cTitle.Fprintln(w, "Timeline")
		PrintTimeline(w, r.Timeline)
	}

	for _, s := range r.Comparisons {
		fmt.Fprintln(w)
		cTitle.Fprintln(w, s.Name)
		PrintComparison(w, s)
	}

	if len(r.Gaps) > 0 {
		fmt.Fprintln(w)
		cMuted.Fprintf(w, "%d rule evaluation gap(s):\n", len(r.Gaps))
		for _, g := range r.Gaps {
			cMuted.Fprintf(w, "  - %s\n", g)
		}
	}
	fmt.Fprintln(w)
}

// PrintFindings prints one list of fixes or wins with their descriptions.
func PrintFindings(w io.Writer, fs []model.Finding) {
	table := leftTable(w)
	table.Header("#", "TITLE", "CATEGORY", "SEVERITY", "CONF", "KPI")
	for _, f := range fs {
		table.Append(
			strconv.Itoa(f.Priority),
			f.Title,
			f.Category,
			f.Severity,
			fmt.Sprintf("%.1f %s", f.Confidence, f.ConfidenceLabel),
			dash(f.KPI),
		)
	}
	table.Render()
	for _, f := range fs {
		fmt.Fprintf(w, "  %d. %s\n", f.Priority, f.Description)
		for _, e := range f.Evidence {
			cMuted.Fprintf(w, "     %s\n", evidenceLine(e))
		}
	}
}

func evidenceLine(e model.Evidence) string {
	at := "end of game"
	if e.Minute >= 0 {
		at = fmt.Sprintf("@%d", e.Minute)
	}
	if e.FromBenchmark {
		return fmt.Sprintf("%s %s: %s vs average %s (%+.0f%%)", e.Metric, at, num(e.Player), num(e.Reference), e.Delta*100)
	}
	return fmt.Sprintf("%s %s: %s vs threshold %s", e.Metric, at, num(e.Player), num(e.Reference))
}

// PrintTimeline prints the timeline markers.
func PrintTimeline(w io.Writer, ms []model.TimelineMarker) {
	table := newTable(w)
	table.Header("TIME", "EVENT", "DETAIL", "DELTA")
	for _, m := range ms {
		delta := "—"
		if m.HasDelta {
			delta = signed(m.Delta)
		}
		table.Append(Clock(m.Time), m.Label, m.Description, delta)
	}
	table.Render()
}

// PrintComparison prints one player-versus-average section.
func PrintComparison(w io.Writer, s model.ComparisonSection) {
	table := newTable(w)
	table.Header("METRIC", "YOU", "AVERAGE", "DIFF", "DIFF%")
	for _, c := range s.Rows {
		if !c.Available {
			table.Append(c.Label, num(c.Player), "n/a", "—", "—")
			continue
		}
		table.Append(c.Label, num(c.Player), num(c.Average), signed(c.Difference), fmt.Sprintf("%+.0f%%", c.PercentDiff))
	}
	table.Render()
	if s.Summary != "" {
		fmt.Fprintf(w, "  %s\n", s.Summary)
	}
}

// PrintBenchmarkTable prints a benchmark sequence in time order.
func PrintBenchmarkTable(w io.Writer, points []benchmark.Point) {
	table := newTable(w)
	table.Header("MIN", "MATCHES", "CS", "DN", "NET WORTH", "LVL", "GPM", "XP", "K", "D", "A", "STACKS")
	for _, p := range benchmark.Sorted(points) {
		table.Append(
			strconv.Itoa(p.Time),
			strconv.Itoa(p.MatchCount),
			num(p.CS),
			num(p.Denies),
			num(p.Networth),
			fmt.Sprintf("%.1f", p.Level),
			num(p.GoldPerMinute),
			num(p.XP),
			fmt.Sprintf("%.1f", p.Kills),
			fmt.Sprintf("%.1f", p.Deaths),
			fmt.Sprintf("%.1f", p.Assists),
			fmt.Sprintf("%.1f", p.CampsStacked),
		)
	}
	table.Render()
}

// PrintBenchmarkKeys lists persisted benchmark keys, one per row.
func PrintBenchmarkKeys(w io.Writer, keys []benchmark.Key) {
	table := leftTable(w)
	table.Header("HERO", "ID", "POSITION", "GROUPING")
	for _, k := range keys {
		table.Append(model.HeroName(k.HeroID), strconv.Itoa(k.HeroID), k.Position, string(k.Grouping))
	}
	table.Render()
}

// PrintRules prints the ruleset's rules, one per row.
func PrintRules(w io.Writer, rs *rules.Ruleset) {
	cTitle.Fprintf(w, "\nRuleset %s: %d rules, %d guards, %d categories\n\n",
		rs.Version, len(rs.Rules), len(rs.Guards), len(rs.Categories))
	table := leftTable(w)
	table.Header("ID", "TYPE", "ROLES", "CATEGORY", "SEVERITY", "ANCHOR", "CONDITIONS", "GUARDS")
	for i := range rs.Rules {
		r := &rs.Rules[i]
		anchor := "end"
		if a := r.Anchor(); a >= 0 {
			anchor = "@" + strconv.Itoa(a)
		}
		table.Append(
			r.ID,
			string(r.Type),
			strings.Join(r.Roles, ","),
			r.Category,
			r.Severity.Bucket.String(),
			anchor,
			conditions(r),
			dash(strings.Join(r.Guards, ",")),
		)
	}
	table.Render()
}

func conditions(r *rules.Rule) string {
	parts := make([]string, 0, len(r.All)+len(r.Any))
	for _, c := range r.All {
		parts = append(parts, fmt.Sprintf("%s %s %s", c.Metric, c.Op, c.Value))
	}
	if len(r.Any) > 0 {
		var anys []string
		for _, c := range r.Any {
			anys = append(anys, fmt.Sprintf("%s %s %s", c.Metric, c.Op, c.Value))
		}
		parts = append(parts, "any("+strings.Join(anys, " | ")+")")
	}
	return strings.Join(parts, " & ")
}

// PrintThresholds lists every threshold path as a rule operand reference.
func PrintThresholds(w io.Writer, th *rules.Thresholds) {
	table := leftTable(w)
	table.Header("REFERENCE", "VALUE")
	for _, p := range th.Paths() {
		v, _ := th.Lookup(p)
		table.Append("$"+p, num(v))
	}
	table.Render()
}

// PrintReportList prints stored report summaries. age formats CreatedAt.
func PrintReportList(w io.Writer, rs []model.ReportSummary, age func(model.ReportSummary) string) {
	table := leftTable(w)
	table.Header("ID", "MATCH", "HERO", "ROLE", "PROVIDER", "CREATED", "SUMMARY")
	for _, r := range rs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(id, strconv.FormatInt(r.MatchID, 10), r.HeroName, string(r.Role), string(r.Provider), age(r), truncate(r.Summary, 60))
	}
	table.Render()
}

func num(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func signed(v float64) string {
	if v > 0 {
		return "+" + num(v)
	}
	return num(v)
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
