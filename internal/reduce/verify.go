package reduce

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// unitRoundoff is the relative rounding error of one float64 operation.
const unitRoundoff = 0x1p-53

// Comparison is the outcome of comparing a sequential and a parallel value.
type Comparison struct {
	// Match is true when the values agree under the equality in use.
	Match bool
	// Delta is |seq - par| for floating-point equalities, 0 otherwise.
	Delta float64
	// Epsilon is the tolerance applied, 0 for exact equalities.
	Epsilon float64
}

// Equality decides whether a parallel value agrees with the sequential one.
type Equality[T any] func(seq, par T) Comparison

// Exact compares with ==, for integer and flag accumulators.
func Exact[T comparable]() Equality[T] {
	return func(seq, par T) Comparison { return Comparison{Match: seq == par} }
}

// EqualFunc compares with a caller-supplied predicate, for accumulators that
// are not comparable (slices, maps).
func EqualFunc[T any](eq func(a, b T) bool) Equality[T] {
	return func(seq, par T) Comparison { return Comparison{Match: eq(seq, par)} }
}

// Within accepts float values whose absolute difference is at most eps.
func Within(eps float64) Equality[float64] {
	return func(seq, par float64) Comparison {
		return Comparison{
			Match:   scalar.EqualWithinAbs(seq, par, eps),
			Delta:   math.Abs(seq - par),
			Epsilon: eps,
		}
	}
}

// RoundingTolerance estimates the worst-case difference between two float64
// sums of terms values that were added in different orders:
// terms · u · max(|magnitude|, 1), with u the unit round-off.
func RoundingTolerance(terms int, magnitude float64) float64 {
	return float64(max(terms, 1)) * unitRoundoff * math.Max(math.Abs(magnitude), 1)
}

// RoundingBound is Within with a tolerance derived from the number of
// accumulated terms and the magnitude of the values being compared, so the
// bound grows with the reduction instead of being fixed.
func RoundingBound(terms int) Equality[float64] {
	return func(seq, par float64) Comparison {
		eps := RoundingTolerance(terms, math.Max(math.Abs(seq), math.Abs(par)))
		return Within(eps)(seq, par)
	}
}

// Verdict summarizes a verification.
type Verdict int

const (
	// VerdictMatch means both paths agree.
	VerdictMatch Verdict = iota
	// VerdictToleranceExceeded means the paths disagree beyond the tolerance.
	VerdictToleranceExceeded
)

// String returns a human-readable verdict.
func (v Verdict) String() string {
	if v == VerdictMatch {
		return "match"
	}
	return "tolerance exceeded"
}

// Report pairs the two runs of a verification with their comparison.
type Report[T any] struct {
	Sequential Result[T]
	Parallel   Result[T]
	Verdict    Verdict
	Delta      float64
	Epsilon    float64
}

// Match reports whether the verdict is VerdictMatch.
func (r Report[T]) Match() bool { return r.Verdict == VerdictMatch }

// Speedup returns sequential time over parallel time, or 0 when the parallel
// run was too fast to measure.
func (r Report[T]) Speedup() float64 {
	if r.Parallel.Elapsed <= 0 {
		return 0
	}
	return float64(r.Sequential.Elapsed) / float64(r.Parallel.Elapsed)
}

// Verify runs the sequential and the parallel path on the same inputs and
// compares their values with eq. A disagreement is reported through the
// verdict, never as an error; errors are reserved for invalid specs,
// workload failures and cancellation.
//
// With WithRepeat(n) each path runs n times and the fastest run is kept.
func Verify[T any](ctx context.Context, spec Spec, r Reducer[T], eq Equality[T], opts ...Option) (Report[T], error) {
	s := newSettings(opts)

	seq, err := best(s.repeat, func() (Result[T], error) { return Sequential(ctx, spec, r, opts...) })
	if err != nil {
		return Report[T]{}, err
	}
	par, err := best(s.repeat, func() (Result[T], error) { return Parallel(ctx, spec, r, opts...) })
	if err != nil {
		return Report[T]{}, err
	}

	cmp := eq(seq.Value, par.Value)
	verdict := VerdictMatch
	if !cmp.Match {
		verdict = VerdictToleranceExceeded
	}
	return Report[T]{
		Sequential: seq,
		Parallel:   par,
		Verdict:    verdict,
		Delta:      cmp.Delta,
		Epsilon:    cmp.Epsilon,
	}, nil
}

func best[T any](n int, run func() (Result[T], error)) (Result[T], error) {
	var fastest Result[T]
	for i := range max(n, 1) {
		res, err := run()
		if err != nil {
			return Result[T]{}, err
		}
		if i == 0 || res.Elapsed < fastest.Elapsed {
			fastest = res
		}
	}
	return fastest, nil
}
