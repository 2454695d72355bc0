package reduce

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/parreduce/internal/partition"
)

// TestParallelEqualsSequential_PropertyBased checks that for an associative,
// commutative merge the parallel value equals the sequential value for any
// item count, worker count and policy.
func TestParallelEqualsSequential_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ctx := context.Background()
	xorSquares := Pure(uint64(0),
		func(acc uint64, i int) uint64 { return acc ^ uint64(i)*uint64(i) },
		func(a, b uint64) uint64 { return a ^ b })

	for _, policy := range []partition.Policy{partition.Block, partition.Strided} {
		properties.Property(policy.String()+" parallel equals sequential", prop.ForAll(
			func(n, w int) bool {
				spec := Spec{TotalItems: n, Workers: w}
				seq, err := Sequential(ctx, spec, xorSquares)
				if err != nil {
					return false
				}
				par, err := Parallel(ctx, spec, xorSquares, WithPolicy(policy))
				if err != nil {
					return false
				}
				return seq.Value == par.Value && len(par.MergeOrder) == par.Tasks
			},
			gen.IntRange(0, 20000),
			gen.IntRange(1, 64),
		))
	}

	properties.Property("every non-empty partition is merged once", prop.ForAll(
		func(n, w int) bool {
			par, err := Parallel(ctx, Spec{TotalItems: n, Workers: w}, sumReducer(), WithPolicy(partition.Strided))
			if err != nil {
				return false
			}
			seen := make(map[int]bool, len(par.MergeOrder))
			for _, worker := range par.MergeOrder {
				if seen[worker] || worker < 0 || worker >= w {
					return false
				}
				seen[worker] = true
			}
			return len(seen) == min(n, w)
		},
		gen.IntRange(0, 500),
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}
