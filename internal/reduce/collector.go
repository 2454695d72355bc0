package reduce

import (
	"sync"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/parallel"
)

// Collector is the shared running total of a parallel reduction. Workers
// publish their partial results with Add; a single mutex serializes the
// merges so that only one merge runs at a time, and nothing else is done
// under the lock.
type Collector[T any] struct {
	mu    sync.Mutex
	merge func(a, b T) (T, error)
	total T
	order []int
}

// NewCollector returns a collector seeded with r.Identity().
func NewCollector[T any](r Reducer[T]) *Collector[T] {
	return &Collector[T]{merge: r.Merge, total: r.Identity()}
}

// Add merges partial into the running total. A merge failure or panic is
// returned as a WorkloadError with Index -1 and leaves the total untouched.
func (c *Collector[T]) Add(worker int, partial T) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if p := parallel.WrapPanic(recover()); p != nil {
			err = apperrors.WorkloadError{Worker: worker, Index: -1, Cause: p}
		}
	}()

	next, err := c.merge(c.total, partial)
	if err != nil {
		return apperrors.WorkloadError{Worker: worker, Index: -1, Cause: err}
	}
	c.total = next
	c.order = append(c.order, worker)
	return nil
}

// Value returns the running total. It is only meaningful once every
// publisher has returned from Add.
func (c *Collector[T]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// MergeOrder returns the worker indices in the order they were merged.
func (c *Collector[T]) MergeOrder() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.order...)
}
