package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/parreduce/internal/cli"
	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/orchestration"
)

// runLabs runs the selected labs under the configured timeout, presents the
// outcomes and writes the optional report and metrics files.
func (a *Application) runLabs(ctx context.Context, opts orchestration.Options, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	labs, err := a.Registry.Select(a.Config.Lab)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(labs, out)
	}

	var progressReporter orchestration.ProgressReporter
	progressOut := out
	if a.Config.Quiet {
		progressOut = io.Discard
		progressReporter = orchestration.NullProgressReporter{}
	} else {
		progressReporter = cli.CLIProgressReporter{}
	}

	var memory metrics.MemoryCollector
	before := memory.Snapshot()
	results := orchestration.ExecuteLabs(ctx, labs, a.Config.Params(), opts, progressReporter, progressOut)

	presenter := cli.CLIResultPresenter{Verbose: a.Config.Verbose, Quiet: a.Config.Quiet}
	exitCode := orchestration.AnalyzeResults(results, orchestration.AnalysisOptions{Strict: a.Config.Strict},
		presenter, presenter, out)

	if code := a.writeOutputs(results, opts.Metrics, out); exitCode == apperrors.ExitSuccess {
		exitCode = code
	}

	if a.Config.Verbose {
		snap := memory.Snapshot()
		allocated, cycles := snap.AllocDelta(before)
		cli.DisplayMemoryStats(cli.MemoryStats{
			HeapAlloc:    snap.HeapAlloc,
			Sys:          snap.Sys,
			Allocated:    allocated,
			NumGC:        cycles,
			PauseTotalNs: snap.PauseTotalNs,
		}, out)
	}
	return exitCode
}

// writeOutputs writes the --output report and the --metrics-file textfile.
func (a *Application) writeOutputs(results []orchestration.LabResult, reg *metrics.Registry, out io.Writer) int {
	code := apperrors.ExitSuccess

	outputCfg := cli.OutputConfig{OutputFile: a.Config.OutputFile, RunID: a.RunID, Quiet: a.Config.Quiet}
	if outputCfg.OutputFile != "" {
		if err := cli.WriteReportToFile(results, outputCfg); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving report: %v\n", err)
			code = apperrors.ExitErrorGeneric
		} else {
			cli.DisplayReportSaved(out, outputCfg)
		}
	}

	if a.Config.MetricsFile != "" && reg != nil {
		if err := reg.WriteTextfile(a.Config.MetricsFile); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving metrics: %v\n", err)
			code = apperrors.ExitErrorGeneric
		}
	}
	return code
}
