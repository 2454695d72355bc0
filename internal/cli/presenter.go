package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/format"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display while labs run.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for running labs.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numLabs int, out io.Writer) {
	DisplayProgress(wg, progressChan, numLabs, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter and
// orchestration.ErrorHandler for CLI output.
type CLIResultPresenter struct {
	// Verbose is forwarded to DisplayOutcome.
	Verbose bool
	// Quiet prints one line per lab and no table.
	Quiet bool
}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

// PresentResult displays one lab outcome.
func (p CLIResultPresenter) PresentResult(res orchestration.LabResult, out io.Writer) {
	if p.Quiet {
		DisplayQuietResult(out, res.Outcome)
		return
	}
	DisplayOutcome(out, res.Outcome, p.Verbose)
}

// PresentComparisonTable displays the comparison summary table with lab
// names, both timings, speedup and status in a formatted tabular layout.
// Uses manual padding to correctly handle ANSI color codes.
func (p CLIResultPresenter) PresentComparisonTable(results []orchestration.LabResult, out io.Writer) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")

	headers := []string{"Lab", "Sequential", "Parallel", "Speedup"}
	rows := make([][]string, len(results))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for i, res := range results {
		row := []string{res.Lab, "-", "-", "-"}
		if res.Err == nil {
			row[1] = formatDuration(res.Outcome.SequentialTime)
			row[2] = formatDuration(res.Outcome.ParallelTime)
			row[3] = fmt.Sprintf("%.2fx", res.Outcome.Speedup())
		}
		for j, cell := range row {
			widths[j] = max(widths[j], len([]rune(cell)))
		}
		rows[i] = row
	}

	for i, h := range headers {
		fmt.Fprintf(out, "%s%s%s%s   ", ui.ColorUnderline(), h, ui.ColorReset(), padRight("", widths[i]-len(h)))
	}
	fmt.Fprintf(out, "%sStatus%s\n", ui.ColorUnderline(), ui.ColorReset())

	colors := []func() string{ui.ColorBlue, ui.ColorYellow, ui.ColorYellow, ui.ColorCyan}
	for i, res := range results {
		for j, cell := range rows[i] {
			fmt.Fprintf(out, "%s%s%s%s   ", colors[j](), cell, ui.ColorReset(), padRight("", widths[j]-len([]rune(cell))))
		}
		var status string
		switch {
		case res.Err != nil:
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		case res.Outcome.Match():
			status = fmt.Sprintf("%s✅ Match%s", ui.ColorGreen(), ui.ColorReset())
		default:
			status = fmt.Sprintf("%s⚠️  Tolerance exceeded (Δ=%.3g)%s", ui.ColorYellow(), res.Outcome.Delta, ui.ColorReset())
		}
		fmt.Fprintln(out, status)
	}
}

// padRight returns a string of spaces with the given length.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

// HandleError prints a diagnostic for a failed lab and returns the exit code
// of its error category.
func (CLIResultPresenter) HandleError(lab string, err error, duration time.Duration, out io.Writer) int {
	code := apperrors.ExitCodeFor(err)
	var reason string
	switch code {
	case apperrors.ExitErrorTimeout:
		reason = fmt.Sprintf("timed out after %s", formatDuration(duration))
	case apperrors.ExitErrorCanceled:
		reason = "canceled"
	case apperrors.ExitErrorConfig:
		reason = "rejected its input"
	case apperrors.ExitErrorWorkload:
		reason = "failed during the reduction"
	default:
		reason = "failed"
	}
	fmt.Fprintf(out, "%s %s%s%s %s: %v\n",
		ui.Badge("ERROR", ui.BadgeError), ui.ColorBold(), lab, ui.ColorReset(), reason, err)
	return code
}

// MemoryStats is the memory summary printed in verbose mode. Allocated and
// NumGC cover the run only.
type MemoryStats struct {
	HeapAlloc    uint64
	Sys          uint64
	Allocated    uint64
	NumGC        uint32
	PauseTotalNs uint64
}

// DisplayMemoryStats shows memory statistics after a run.
func DisplayMemoryStats(stats MemoryStats, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Heap in use:      %s\n", format.FormatBytes(stats.HeapAlloc))
	fmt.Fprintf(out, "  Obtained from OS: %s\n", format.FormatBytes(stats.Sys))
	fmt.Fprintf(out, "  Allocated by run: %s\n", format.FormatBytes(stats.Allocated))
	fmt.Fprintf(out, "  GC cycles:        %d\n", stats.NumGC)
	fmt.Fprintf(out, "  GC pause total:   %.2fms\n", float64(stats.PauseTotalNs)/1e6)
}

// formatDuration renders sub-microsecond durations as "< 1µs".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}

// verdictBadge renders the verdict of an outcome as a colored badge.
func verdictBadge(match bool) string {
	if match {
		return ui.Badge("MATCH", ui.BadgeSuccess)
	}
	return ui.Badge("TOLERANCE EXCEEDED", ui.BadgeWarning)
}

// indent prefixes every line with two spaces.
func indent(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
