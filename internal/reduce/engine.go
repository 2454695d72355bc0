package reduce

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/parallel"
	"github.com/agbru/parreduce/internal/partition"
)

var tracer = otel.Tracer("github.com/agbru/parreduce/internal/reduce")

// Observer is notified each time a partition has been folded and merged.
// Implementations must be safe for concurrent use.
type Observer interface {
	PartitionDone(p partition.Partition, elapsed time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(p partition.Partition, elapsed time.Duration)

// PartitionDone calls f.
func (f ObserverFunc) PartitionDone(p partition.Partition, elapsed time.Duration) { f(p, elapsed) }

type settings struct {
	policy   partition.Policy
	pool     *Pool
	logger   logging.Logger
	observer Observer
	repeat   int
}

// Option configures a reduction run.
type Option func(*settings)

// WithPolicy selects the partitioning policy of the parallel path. The
// default is partition.Block.
func WithPolicy(p partition.Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithPool runs partitions on a caller-owned persistent pool instead of
// goroutines started for the call.
func WithPool(p *Pool) Option {
	return func(s *settings) { s.pool = p }
}

// WithLogger sets the logger used for debug traces of dispatch and merge.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a per-partition completion callback. Only the
// parallel path reports partitions; Sequential ignores the observer.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithRepeat makes Verify run each path n times and keep the fastest run.
// Sequential and Parallel ignore it.
func WithRepeat(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.repeat = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{policy: partition.Block, logger: logging.Nop, repeat: 1}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// fold absorbs every index of p, in ascending order, into a fresh identity.
// Absorb failures and panics become WorkloadErrors naming the index.
func fold[T any](r Reducer[T], p partition.Partition) (acc T, err error) {
	current := -1
	defer func() {
		if pe := parallel.WrapPanic(recover()); pe != nil {
			var zero T
			acc, err = zero, apperrors.WorkloadError{Worker: p.Worker, Index: current, Cause: pe}
		}
	}()

	acc = r.Identity()
	err = p.Each(func(i int) error {
		current = i
		next, absorbErr := r.Absorb(acc, i)
		if absorbErr != nil {
			return apperrors.WorkloadError{Worker: p.Worker, Index: i, Cause: absorbErr}
		}
		acc = next
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return acc, nil
}

// Sequential folds [0, spec.TotalItems) left to right in the calling
// goroutine, starting from r.Identity(). It is the reference the parallel
// path is checked against. spec.Workers is validated but not used.
func Sequential[T any](ctx context.Context, spec Spec, r Reducer[T], opts ...Option) (Result[T], error) {
	if err := spec.Validate(); err != nil {
		return Result[T]{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, fmt.Errorf("sequential reduction not started: %w", err)
	}

	_, span := tracer.Start(ctx, "reduce.sequential", trace.WithAttributes(
		attribute.Int("reduce.items", spec.TotalItems),
	))
	defer span.End()

	start := time.Now()
	whole := partition.Whole(spec.TotalItems)
	value, err := fold(r, whole)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "absorb failed")
		return Result[T]{}, err
	}
	tasks := 0
	if !whole.Empty() {
		tasks = 1
	}
	return Result[T]{
		Value:   value,
		Elapsed: elapsed,
		Mode:    ModeSequential,
		Workers: 1,
		Tasks:   tasks,
	}, nil
}

// Parallel splits [0, spec.TotalItems) into spec.Workers partitions, folds
// every non-empty partition concurrently into a private accumulator, and
// merges the partials into a shared Collector one at a time. It returns once
// every task has finished.
//
// The first absorb or merge failure aborts the run: no further partitions are
// dispatched, in-flight ones are awaited, and the error is returned with a
// zero Result. A canceled context likewise stops dispatching; a partition that
// has started is always folded to the end.
func Parallel[T any](ctx context.Context, spec Spec, r Reducer[T], opts ...Option) (Result[T], error) {
	if err := spec.Validate(); err != nil {
		return Result[T]{}, err
	}
	s := newSettings(opts)
	parts, err := partition.Split(spec.TotalItems, spec.Workers, s.policy)
	if err != nil {
		return Result[T]{}, err
	}

	ctx, span := tracer.Start(ctx, "reduce.parallel", trace.WithAttributes(
		attribute.Int("reduce.items", spec.TotalItems),
		attribute.Int("reduce.workers", spec.Workers),
		attribute.String("reduce.policy", s.policy.String()),
	))
	defer span.End()

	start := time.Now()
	tasks := make([]partition.Partition, 0, len(parts))
	for _, p := range parts {
		if !p.Empty() {
			tasks = append(tasks, p)
		}
	}
	s.logger.Debug("dispatching partitions",
		logging.Int("items", spec.TotalItems),
		logging.Int("workers", spec.Workers),
		logging.Int("tasks", len(tasks)),
		logging.String("policy", s.policy.String()))

	collector := NewCollector(r)
	run := func(p partition.Partition) error {
		taskStart := time.Now()
		partial, err := fold(r, p)
		if err != nil {
			return err
		}
		if err := collector.Add(p.Worker, partial); err != nil {
			return err
		}
		elapsed := time.Since(taskStart)
		s.logger.Debug("partition merged", logging.String("partition", p.String()), logging.Duration("elapsed", elapsed))
		if s.observer != nil {
			s.observer.PartitionDone(p, elapsed)
		}
		return nil
	}

	if s.pool != nil {
		err = s.pool.runPartitions(ctx, tasks, run)
	} else {
		err = runGroup(ctx, tasks, spec.Workers, run)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parallel reduction failed")
		return Result[T]{}, err
	}

	return Result[T]{
		Value:      collector.Value(),
		Elapsed:    time.Since(start),
		Mode:       ModeParallel,
		Workers:    spec.Workers,
		Tasks:      len(tasks),
		MergeOrder: collector.MergeOrder(),
	}, nil
}

// runGroup executes one goroutine per task, at most limit at a time, and
// waits for all of them. It returns the first task error, or the context
// error when cancellation prevented some task from being dispatched.
func runGroup(ctx context.Context, tasks []partition.Partition, limit int, run func(partition.Partition) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	dispatched := 0
	for _, p := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return run(p)
		})
		dispatched++
	}

	err := g.Wait()
	if err == nil && dispatched < len(tasks) {
		err = ctx.Err()
	}
	if err != nil && apperrors.IsContextError(err) {
		if cause := ctx.Err(); cause != nil {
			return fmt.Errorf("parallel reduction canceled after %d of %d partitions dispatched: %w", dispatched, len(tasks), cause)
		}
	}
	return err
}
