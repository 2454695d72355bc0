package workload

import (
	"context"
	"fmt"
	"math"

	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// defaultSeriesEpsilon is the tolerance of the series lab when none is set.
const defaultSeriesEpsilon = 1e-9

// Series sums the Leibniz series 4·Σ(-1)^k/(2k+1), which converges to π.
type Series struct{}

func (Series) Name() string                    { return "series" }
func (Series) Description() string             { return "alternating Leibniz series for pi" }
func (Series) DefaultPolicy() partition.Policy { return partition.Strided }

// Run validates the term count and verifies within the requested tolerance.
func (l Series) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Terms < 1 {
		return Outcome{}, invalid("terms", "must be positive, got %d", p.Terms)
	}
	eps := p.Epsilon
	if eps <= 0 {
		eps = defaultSeriesEpsilon
	}
	return verify(ctx, l, p, job[float64]{
		items:   p.Terms,
		reducer: LeibnizReducer(),
		equal:   reduce.Within(eps),
		format:  formatFloat,
		details: func(v float64) []string {
			return []string{fmt.Sprintf("error vs pi: %.3g", math.Abs(v-math.Pi))}
		},
	}, opts...)
}

// LeibnizReducer absorbs term k as 4·(-1)^k/(2k+1).
func LeibnizReducer() reduce.Funcs[float64] {
	return reduce.Pure(0.0,
		func(acc float64, k int) float64 {
			term := 4 / float64(2*k+1)
			if k%2 == 1 {
				term = -term
			}
			return acc + term
		},
		func(a, b float64) float64 { return a + b })
}
