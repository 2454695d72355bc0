package reduce

import (
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
)

// Reducer supplies the three pieces of a partitioned reduction.
//
// Identity must return a fresh accumulator on every call, because each worker
// folds into its own private copy. Merge must be associative and commutative
// and satisfy Merge(Identity(), x) == x: the parallel path merges partial
// results in arrival order, which is not deterministic. Absorb is only ever
// called by one goroutine at a time for a given accumulator.
type Reducer[T any] interface {
	Identity() T
	Absorb(acc T, index int) (T, error)
	Merge(a, b T) (T, error)
}

// Funcs adapts plain functions to the Reducer interface.
type Funcs[T any] struct {
	IdentityFunc func() T
	AbsorbFunc   func(acc T, index int) (T, error)
	MergeFunc    func(a, b T) (T, error)
}

// Identity calls IdentityFunc, or returns the zero value when it is nil.
func (f Funcs[T]) Identity() T {
	if f.IdentityFunc == nil {
		var zero T
		return zero
	}
	return f.IdentityFunc()
}

// Absorb calls AbsorbFunc.
func (f Funcs[T]) Absorb(acc T, index int) (T, error) { return f.AbsorbFunc(acc, index) }

// Merge calls MergeFunc.
func (f Funcs[T]) Merge(a, b T) (T, error) { return f.MergeFunc(a, b) }

// Pure builds a Reducer from a value identity and non-failing absorb and
// merge functions. The identity is returned by value, so T should not be a
// reference type whose contents absorb mutates; use Funcs with an
// IdentityFunc for slices and maps.
func Pure[T any](identity T, absorb func(acc T, index int) T, merge func(a, b T) T) Funcs[T] {
	return Funcs[T]{
		IdentityFunc: func() T { return identity },
		AbsorbFunc:   func(acc T, i int) (T, error) { return absorb(acc, i), nil },
		MergeFunc:    func(a, b T) (T, error) { return merge(a, b), nil },
	}
}

// Spec describes one reduction: the number of items to fold and the number
// of workers to fold them with. Workers may exceed TotalItems.
type Spec struct {
	TotalItems int
	Workers    int
}

// Validate returns an InvalidArgumentError when the spec cannot be run.
func (s Spec) Validate() error {
	if s.TotalItems < 0 {
		return apperrors.NewInvalidArgument("totalItems", "must be non-negative, got %d", s.TotalItems)
	}
	if s.Workers < 1 {
		return apperrors.NewInvalidArgument("workers", "must be at least 1, got %d", s.Workers)
	}
	return nil
}

// Mode identifies which execution path produced a Result.
type Mode int

const (
	ModeSequential Mode = iota
	ModeParallel
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeParallel {
		return "parallel"
	}
	return "sequential"
}

// Result is the outcome of a single reduction run.
type Result[T any] struct {
	// Value is the reduced accumulator.
	Value T
	// Elapsed is the wall-clock time of the run, partitioning included.
	Elapsed time.Duration
	// Mode is the execution path that produced the result.
	Mode Mode
	// Workers is the worker count of the spec.
	Workers int
	// Tasks is the number of non-empty partitions that were folded.
	Tasks int
	// MergeOrder lists worker indices in the order their partials were merged.
	MergeOrder []int
}
