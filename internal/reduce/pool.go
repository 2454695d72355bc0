package reduce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/parallel"
	"github.com/agbru/parreduce/internal/partition"
)

// ErrPoolClosed is returned when work is submitted to a closed Pool.
var ErrPoolClosed = errors.New("reduce: pool is closed")

// Pool is a fixed set of worker goroutines that outlives individual
// reductions. It is an explicit resource: the caller creates it with NewPool,
// passes it to Parallel through WithPool, and tears it down with Close.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool of workers goroutines.
func NewPool(workers int) (*Pool, error) {
	if workers < 1 {
		return nil, apperrors.NewInvalidArgument("workers", "pool needs at least 1 worker, got %d", workers)
	}
	p := &Pool{workers: workers, tasks: make(chan func())}
	for range workers {
		p.wg.Go(func() {
			for task := range p.tasks {
				task()
			}
		})
	}
	return p, nil
}

// Workers returns the number of goroutines in the pool.
func (p *Pool) Workers() int { return p.workers }

// Submit hands task to an idle worker, blocking until one is available or
// ctx is done.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for running tasks to finish. It is
// safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// runPartitions submits one task per partition and waits for all submitted
// tasks. Dispatch stops at the first failure or when ctx is done.
func (p *Pool) runPartitions(ctx context.Context, tasks []partition.Partition, run func(partition.Partition) error) error {
	var (
		wg     sync.WaitGroup
		errs   parallel.ErrorCollector
		failed atomic.Bool
	)

	dispatched := 0
	for _, part := range tasks {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := p.Submit(ctx, func() {
			defer wg.Done()
			if failed.Load() {
				return
			}
			if err := run(part); err != nil {
				failed.Store(true)
				errs.SetError(err)
			}
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ErrPoolClosed) {
				errs.SetError(err)
			}
			break
		}
		dispatched++
	}
	wg.Wait()

	if err := errs.Err(); err != nil {
		return err
	}
	if dispatched < len(tasks) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("parallel reduction canceled after %d of %d partitions dispatched: %w", dispatched, len(tasks), err)
		}
	}
	return nil
}
