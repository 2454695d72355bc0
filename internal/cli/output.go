// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayOutcome], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     They handle file creation, directory setup, and error handling.
//     Examples: [WriteReportToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/parreduce/internal/format"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/ui"
	"github.com/agbru/parreduce/internal/workload"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path of the plain-text report (empty for no file).
	OutputFile string
	// RunID is written to the report header.
	RunID string
	// Quiet mode suppresses the confirmation message.
	Quiet bool
}

// DisplayOutcome prints both reduction results of a lab with their timings,
// the speedup, the verdict and the lab details.
func DisplayOutcome(out io.Writer, o workload.Outcome, verbose bool) {
	fmt.Fprintf(out, "\n%s=== %s ===%s\n", ui.ColorBold(), o.Lab, ui.ColorReset())
	fmt.Fprintf(out, "Items: %s%s%s | Workers: %s%d%s | Tasks: %d | Policy: %s\n",
		ui.ColorCyan(), format.FormatNumberString(fmt.Sprint(o.Items)), ui.ColorReset(),
		ui.ColorCyan(), o.Workers, ui.ColorReset(), o.Tasks, o.Policy)
	fmt.Fprintf(out, "Sequential result: %s%s%s (%s%s%s)\n",
		ui.ColorMagenta(), o.Sequential, ui.ColorReset(), ui.ColorYellow(), formatDuration(o.SequentialTime), ui.ColorReset())
	fmt.Fprintf(out, "Parallel result:   %s%s%s (%s%s%s)\n",
		ui.ColorMagenta(), o.Parallel, ui.ColorReset(), ui.ColorYellow(), formatDuration(o.ParallelTime), ui.ColorReset())
	fmt.Fprintf(out, "Speedup: %s%.2fx%s\n", ui.ColorGreen(), o.Speedup(), ui.ColorReset())

	fmt.Fprintf(out, "Verdict: %s", verdictBadge(o.Match()))
	if !o.Match() || verbose {
		fmt.Fprintf(out, " (Δ=%.3g, ε=%.3g)", o.Delta, o.Epsilon)
	}
	fmt.Fprintln(out)
	if !o.Match() {
		fmt.Fprintf(out, "%sThe parallel result differs from the sequential one beyond the tolerance.%s\n",
			ui.ColorYellow(), ui.ColorReset())
	}

	if len(o.Details) > 0 {
		fmt.Fprint(out, indent(o.Details))
	}
}

// FormatQuietResult formats an outcome for quiet mode output as a single
// line: lab, verdict and parallel value.
func FormatQuietResult(o workload.Outcome) string {
	return fmt.Sprintf("%s %s %s", o.Lab, o.Verdict, o.Parallel)
}

// DisplayQuietResult outputs an outcome in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, o workload.Outcome) {
	fmt.Fprintln(out, FormatQuietResult(o))
}

// WriteReportToFile writes a plain-text report of every lab result.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteReportToFile(results []orchestration.LabResult, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# Partitioned Reduction Report\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	if config.RunID != "" {
		fmt.Fprintf(file, "# Run ID: %s\n", config.RunID)
	}
	fmt.Fprintf(file, "# Labs: %d\n", len(results))

	for _, res := range results {
		fmt.Fprintf(file, "\n## %s\n", res.Lab)
		if res.Err != nil {
			fmt.Fprintf(file, "error: %v\n", res.Err)
			continue
		}
		o := res.Outcome
		fmt.Fprintf(file, "items: %d\nworkers: %d\ntasks: %d\npolicy: %s\n", o.Items, o.Workers, o.Tasks, o.Policy)
		fmt.Fprintf(file, "sequential: %s (%s)\n", o.Sequential, o.SequentialTime)
		fmt.Fprintf(file, "parallel: %s (%s)\n", o.Parallel, o.ParallelTime)
		fmt.Fprintf(file, "speedup: %.3f\n", o.Speedup())
		fmt.Fprintf(file, "verdict: %s (delta %g, epsilon %g)\n", o.Verdict, o.Delta, o.Epsilon)
		for _, d := range o.Details {
			fmt.Fprintf(file, "  %s\n", d)
		}
	}
	return file.Close()
}

// DisplayReportSaved confirms where the report was written.
func DisplayReportSaved(out io.Writer, config OutputConfig) {
	if config.OutputFile == "" || config.Quiet {
		return
	}
	fmt.Fprintf(out, "\n%s✓ Report saved to: %s%s%s\n",
		ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
}
