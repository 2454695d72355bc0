package reduce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/partition"
)

func TestNewPool_InvalidWorkers(t *testing.T) {
	t.Parallel()
	_, err := NewPool(0)
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestPool_ReusedAcrossReductions(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(4)
	require.NoError(t, err)
	defer pool.Close()
	require.Equal(t, 4, pool.Workers())

	for _, policy := range []partition.Policy{partition.Block, partition.Strided} {
		for n := range 50 {
			res, err := Parallel(context.Background(), Spec{TotalItems: n, Workers: 6}, sumReducer(),
				WithPool(pool), WithPolicy(policy))
			require.NoError(t, err)
			require.Equal(t, n*(n-1)/2, res.Value)
		}
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(2)
	require.NoError(t, err)
	pool.Close()
	pool.Close()

	require.ErrorIs(t, pool.Submit(context.Background(), func() {}), ErrPoolClosed)

	_, err = Parallel(context.Background(), Spec{TotalItems: 10, Workers: 2}, sumReducer(), WithPool(pool))
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseWaitsForRunningTasks(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(2)
	require.NoError(t, err)

	var done atomic.Int32
	for range 2 {
		require.NoError(t, pool.Submit(context.Background(), func() {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
		}))
	}
	pool.Close()
	require.Equal(t, int32(2), done.Load())
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()

	release := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = pool.Submit(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestPool_FailureStopsDispatch(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()

	var folded atomic.Int32
	r := Funcs[int]{
		AbsorbFunc: func(acc, i int) (int, error) {
			if i == 0 {
				return 0, apperrors.ErrWorkload
			}
			folded.Add(1)
			return acc, nil
		},
		MergeFunc: func(a, b int) (int, error) { return a + b, nil },
	}
	_, err = Parallel(context.Background(), Spec{TotalItems: 100, Workers: 10}, r, WithPool(pool))
	require.ErrorIs(t, err, apperrors.ErrWorkload)
	// At most the partition handed over while the first was failing runs.
	require.LessOrEqual(t, int(folded.Load()), 10)
}
