package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/parreduce/internal/config"
	"github.com/agbru/parreduce/internal/sysmon"
	"github.com/agbru/parreduce/internal/ui"
	"github.com/agbru/parreduce/internal/workload"
)

// PrintExecutionConfig displays the run configuration and the host it runs
// on: processors, SIMD features and current system load.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	host := sysmon.DescribeHost()
	load := sysmon.Sample()

	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Running with %s%d%s workers, policy %s%s%s, %d run(s) per path and a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.Workers, ui.ColorReset(),
		ui.ColorMagenta(), cfg.Policy, ui.ColorReset(),
		cfg.Repeat, ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors", ui.ColorCyan(), host.Logical, ui.ColorReset())
	if host.Physical > 0 {
		fmt.Fprintf(out, " (%d physical)", host.Physical)
	}
	fmt.Fprintf(out, ", Go %s%s%s.\n", ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	if host.Model != "" {
		fmt.Fprintf(out, "CPU: %s", host.Model)
		if len(host.Features) > 0 {
			fmt.Fprintf(out, " [%s]", strings.Join(host.Features, " "))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "System load: CPU %.1f%%, memory %.1f%%.\n", load.CPUPercent, load.MemPercent)
	if cfg.PersistentPool {
		fmt.Fprintf(out, "Worker pool: persistent, shared by every lab.\n")
	}
}

// PrintExecutionMode displays whether one lab or a comparison of several
// labs will run.
func PrintExecutionMode(labs []workload.Lab, out io.Writer) {
	var modeDesc string
	if len(labs) > 1 {
		names := make([]string, len(labs))
		for i, l := range labs {
			names[i] = l.Name()
		}
		modeDesc = fmt.Sprintf("%d labs in sequence (%s)", len(labs), strings.Join(names, ", "))
	} else {
		modeDesc = fmt.Sprintf("Single lab %s%s%s: %s",
			ui.ColorGreen(), labs[0].Name(), ui.ColorReset(), labs[0].Description())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// PrintLabList displays every registered lab with its default policy.
func PrintLabList(labs []workload.Lab, out io.Writer) {
	width := 0
	for _, l := range labs {
		width = max(width, len(l.Name()))
	}
	fmt.Fprintf(out, "Available labs:\n")
	for _, l := range labs {
		fmt.Fprintf(out, "  %s%s%s%s  %-7s  %s\n",
			ui.ColorGreen(), l.Name(), ui.ColorReset(), padRight("", width-len(l.Name())),
			l.DefaultPolicy(), l.Description())
	}
}
