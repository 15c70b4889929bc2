package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.hotpath.dev/hotpath/rank"
)

// DefaultFuncWidth is the function column width used when the terminal
// width is unknown.
const DefaultFuncWidth = 60

// minFuncWidth keeps the function column readable on narrow terminals.
const minFuncWidth = 20

// fixedColumns is the width consumed by the rank, calls, and time columns
// plus separators, used to derive the function column from a full terminal
// width.
const fixedColumns = 51

// Render formats a report with the default function column width.
// It is pure: deterministic for a given report, no side effects.
func Render(r *rank.Report) string {
	return RenderWidth(r, DefaultFuncWidth)
}

// RenderWidth formats a report with an explicit function column width,
// typically derived from the terminal via [FuncWidthFor].
func RenderWidth(r *rank.Report, funcWidth int) string {
	if funcWidth < minFuncWidth {
		funcWidth = minFuncWidth
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Execution Results ===\n")

	if r.RunID != "" {
		fmt.Fprintf(&sb, "Run:       %s\n", r.RunID)
	}

	fmt.Fprintf(&sb, "Exit code: %d\n", r.ExitCode)
	fmt.Fprintf(&sb, "Wall time: %.4fs\n", r.Wall.Seconds())

	if r.Partial {
		fmt.Fprintf(&sb, "WARNING:   partial statistics, collection was interrupted before the target finished\n")
	}

	sb.WriteByte('\n')

	if len(r.ByCumTime) == 0 && len(r.ByCalls) == 0 {
		fmt.Fprintf(&sb, "No timing data collected.\n")

		return sb.String()
	}

	fmt.Fprintf(&sb, "=== Performance Analysis ===\n\n")

	fmt.Fprintf(&sb, "SLOWEST FUNCTIONS (top %d by cumulative time)\n", r.TopN)
	writeTable(&sb, r.ByCumTime, funcWidth)

	sb.WriteByte('\n')

	fmt.Fprintf(&sb, "MOST CALLED FUNCTIONS (top %d by call count)\n", r.TopN)
	writeTable(&sb, r.ByCalls, funcWidth)

	sb.WriteByte('\n')

	fmt.Fprintf(&sb, "HOTTEST FUNCTIONS (top %d by self time, excluding subfunctions)\n", r.TopN)
	writeSelfTable(&sb, r.BySelfTime, funcWidth)

	return sb.String()
}

// FuncWidthFor derives the function column width from a full terminal
// width. Non-positive terminal widths yield [DefaultFuncWidth].
func FuncWidthFor(termWidth int) int {
	if termWidth <= 0 {
		return DefaultFuncWidth
	}

	w := termWidth - fixedColumns
	if w < minFuncWidth {
		return minFuncWidth
	}

	return w
}

func writeTable(sb *strings.Builder, entries []rank.Entry, funcWidth int) {
	fmt.Fprintf(sb, "%4s  %-*s %9s %10s %10s %12s\n",
		"RANK", funcWidth, "FUNCTION", "CALLS", "CUM (S)", "SELF (S)", "AVG (S)")
	fmt.Fprintf(sb, "%s\n", strings.Repeat("-", funcWidth+fixedColumns))

	for i, e := range entries {
		fmt.Fprintf(sb, "%4d  %-*s %9d %10.4f %10.4f %12.6f\n",
			i+1,
			funcWidth, truncateName(funcLabel(e), funcWidth),
			e.Calls,
			e.Cum.Seconds(),
			e.Self.Seconds(),
			e.Avg.Seconds())
	}
}

// writeSelfTable is the self-time ranking: the average column gives way to
// self time's share of cumulative time.
func writeSelfTable(sb *strings.Builder, entries []rank.Entry, funcWidth int) {
	fmt.Fprintf(sb, "%4s  %-*s %9s %10s %10s %12s\n",
		"RANK", funcWidth, "FUNCTION", "CALLS", "SELF (S)", "CUM (S)", "SELF %")
	fmt.Fprintf(sb, "%s\n", strings.Repeat("-", funcWidth+fixedColumns))

	for i, e := range entries {
		fmt.Fprintf(sb, "%4d  %-*s %9d %10.4f %10.4f %11.1f%%\n",
			i+1,
			funcWidth, truncateName(funcLabel(e), funcWidth),
			e.Calls,
			e.Self.Seconds(),
			e.Cum.Seconds(),
			selfPercent(e))
	}
}

// selfPercent is self time's share of cumulative time, zero when no
// cumulative time was recorded.
func selfPercent(e rank.Entry) float64 {
	if e.Cum <= 0 {
		return 0
	}

	return float64(e.Self) / float64(e.Cum) * 100
}

// funcLabel renders the call-site identity as "file:line name". Synthetic
// whole-run records carry line 0 and render without one.
func funcLabel(e rank.Entry) string {
	if e.Line == 0 {
		return fmt.Sprintf("%s %s", e.File, e.Name)
	}

	return fmt.Sprintf("%s:%d %s", e.File, e.Line, e.Name)
}

// truncateName shortens s to width, counting runes so multi-byte paths are
// never cut mid-rune.
func truncateName(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}

	runes := []rune(s)

	return string(runes[:width-3]) + "..."
}
