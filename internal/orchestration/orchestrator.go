package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
	"github.com/agbru/parreduce/internal/workload"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. Partition updates are dropped rather than blocking a worker when
// the buffer is full.
const ProgressBufferMultiplier = 16

// Options carries the shared resources of a run.
type Options struct {
	// Logger receives lab lifecycle events and engine debug output.
	Logger logging.Logger
	// Metrics records outcomes and partitions when non-nil.
	Metrics *metrics.Registry
	// Pool is reused by every parallel path when non-nil.
	Pool *reduce.Pool
}

func (o Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.Nop
	}
	return o.Logger
}

// ExecuteLabs runs labs one after another with the same parameters. Labs do
// not run concurrently so that each parallel path has the whole machine. A
// failing lab does not stop the run; a canceled context does, and the labs
// that did not start report the context error.
func ExecuteLabs(ctx context.Context, labs []workload.Lab, p workload.Params, opts Options, progressReporter ProgressReporter, out io.Writer) []LabResult {
	results := make([]LabResult, len(labs))
	progressChan := make(chan ProgressUpdate, max(len(labs), 1)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(labs), out)

	for i, lab := range labs {
		if err := ctx.Err(); err != nil {
			results[i] = LabResult{Lab: lab.Name(), Err: fmt.Errorf("%s: %w", lab.Name(), err)}
			continue
		}
		results[i] = RunLab(ctx, i, lab, p, opts, progressChan)
	}

	close(progressChan)
	displayWg.Wait()
	return results
}

// RunLab runs a single lab, logs its lifecycle and records it in the metrics
// registry. Progress is estimated from the partitions merged on the parallel
// path; progressChan may be nil.
func RunLab(ctx context.Context, index int, lab workload.Lab, p workload.Params, opts Options, progressChan chan<- ProgressUpdate) LabResult {
	logger := opts.logger()
	name := lab.Name()

	engineOpts := []reduce.Option{reduce.WithLogger(logger)}
	if opts.Pool != nil {
		engineOpts = append(engineOpts, reduce.WithPool(opts.Pool))
	}
	var observers []reduce.Observer
	if opts.Metrics != nil {
		observers = append(observers, opts.Metrics.PartitionObserver(name))
	}
	if progressChan != nil {
		observers = append(observers, progressObserver(index, p, progressChan))
	}
	if len(observers) > 0 {
		engineOpts = append(engineOpts, reduce.WithObserver(fanOut(observers)))
	}

	logger.Info("lab started",
		logging.String("lab", name),
		logging.Int("workers", p.Workers),
		logging.Int("repeat", p.Repeat))

	start := time.Now()
	outcome, err := lab.Run(ctx, p, engineOpts...)
	res := LabResult{Lab: name, Outcome: outcome, Duration: time.Since(start), Err: err}

	if err != nil {
		logger.Error("lab failed", err, logging.String("lab", name), logging.Duration("elapsed", res.Duration))
		if opts.Metrics != nil {
			opts.Metrics.ObserveFailure(name, err)
		}
	} else {
		fields := []logging.Field{
			logging.String("lab", name),
			logging.String("verdict", outcome.Verdict.String()),
			logging.Int("tasks", outcome.Tasks),
			logging.Float64("speedup", outcome.Speedup()),
			logging.Duration("elapsed", res.Duration),
		}
		if outcome.Match() {
			logger.Info("lab finished", fields...)
		} else {
			logger.Warn("parallel result differs from sequential", append(fields, logging.Float64("delta", outcome.Delta))...)
		}
		if opts.Metrics != nil {
			opts.Metrics.ObserveOutcome(outcome)
		}
	}

	if progressChan != nil {
		progressChan <- ProgressUpdate{LabIndex: index, Value: 1}
	}
	return res
}

// progressObserver estimates lab completion as merged partitions over the
// partitions expected from Workers and Repeat. Estimates stay below 1 until
// RunLab reports the lab as finished.
func progressObserver(index int, p workload.Params, progressChan chan<- ProgressUpdate) reduce.Observer {
	expected := float64(max(p.Workers, 1) * max(p.Repeat, 1))
	var done atomic.Int64
	return reduce.ObserverFunc(func(partition.Partition, time.Duration) {
		value := min(float64(done.Add(1))/expected, 0.99)
		select {
		case progressChan <- ProgressUpdate{LabIndex: index, Value: value}:
		default:
		}
	})
}

func fanOut(observers []reduce.Observer) reduce.Observer {
	if len(observers) == 1 {
		return observers[0]
	}
	return reduce.ObserverFunc(func(part partition.Partition, elapsed time.Duration) {
		for _, o := range observers {
			o.PartitionDone(part, elapsed)
		}
	})
}

// AnalysisOptions configures how AnalyzeResults maps outcomes to an exit
// status.
type AnalysisOptions struct {
	// Strict turns a tolerance mismatch into ExitErrorMismatch.
	Strict bool
}

// AnalyzeResults presents every lab result, then a comparison table when more
// than one lab ran, and returns the exit status of the run.
//
// The first failing lab determines the status, as mapped by handler. Without
// failures, a mismatch yields ExitErrorMismatch in strict mode and success
// otherwise.
func AnalyzeResults(results []LabResult, opts AnalysisOptions, presenter ResultPresenter, handler ErrorHandler, out io.Writer) int {
	status := apperrors.ExitSuccess
	failed, mismatched := 0, 0

	for _, res := range results {
		if res.Err != nil {
			code := handler.HandleError(res.Lab, res.Err, res.Duration, out)
			if failed == 0 {
				status = code
			}
			failed++
			continue
		}
		if !res.Outcome.Match() {
			mismatched++
		}
		presenter.PresentResult(res, out)
	}

	if len(results) > 1 {
		presenter.PresentComparisonTable(results, out)
	}

	switch {
	case failed > 0:
		if len(results) > 1 {
			fmt.Fprintf(out, "\nGlobal Status: Failure. %d of %d labs did not complete.\n", failed, len(results))
		}
		return status
	case mismatched > 0:
		fmt.Fprintf(out, "\nGlobal Status: %d of %d labs exceeded the tolerance between sequential and parallel results.\n", mismatched, len(results))
		if opts.Strict {
			return apperrors.ExitErrorMismatch
		}
		return apperrors.ExitSuccess
	default:
		if len(results) > 1 {
			fmt.Fprintf(out, "\nGlobal Status: Success. All parallel results match their sequential reference.\n")
		}
		return apperrors.ExitSuccess
	}
}
