package workload

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// Lab is a workload adapter. It validates its parameters, builds the data
// and the Reducer, and verifies the parallel path against the sequential one.
type Lab interface {
	// Name is the identifier used on the command line and in routes.
	Name() string
	// Description is a one-line summary shown by --list.
	Description() string
	// DefaultPolicy is the partitioning policy used when none is requested.
	DefaultPolicy() partition.Policy
	// Run executes both paths and reports the comparison. Invalid parameters
	// are rejected with a ValidationError before the engine is invoked.
	Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error)
}

// Params holds the inputs of every lab. Each lab reads only the fields it
// needs; the rest are ignored.
type Params struct {
	Workers int
	// Policy is "block", "strided", or empty for the lab's default.
	Policy string
	// Seed drives the random data of colmax, diagmax, digits and shoelace.
	Seed uint64
	// Epsilon is the absolute tolerance of float labs. Zero selects a
	// rounding bound derived from the item count.
	Epsilon float64
	// Repeat is the number of runs per path; the fastest is kept.
	Repeat int
	// Verbose adds the generated data to the outcome details when small.
	Verbose bool

	Rows, Cols int // colmax
	Size       int // diagmax

	Func      string  // rect
	A, B      float64 // rect
	Intervals int     // rect, simpson

	Lower     float64 // simpson, the upper limit is 1
	Precision float64 // simpson

	Strings, Length int // digits

	Vertices int // shoelace

	Terms int // series
}

// DefaultParams returns the parameters used when nothing is overridden.
func DefaultParams() Params {
	return Params{
		Workers:   runtime.NumCPU(),
		Seed:      1,
		Repeat:    1,
		Rows:      10,
		Cols:      10,
		Size:      10,
		Func:      "x*x",
		A:         0,
		B:         1,
		Intervals: 100_000,
		Lower:     0.5,
		Precision: 1e-9,
		Strings:   100,
		Length:    64,
		Vertices:  1000,
		Terms:     1_000_000,
	}
}

// Outcome is the type-erased result of a lab run, ready for presentation.
type Outcome struct {
	Lab     string
	Items   int
	Workers int
	Tasks   int
	Policy  partition.Policy

	Sequential     string
	Parallel       string
	SequentialTime time.Duration
	ParallelTime   time.Duration

	Verdict reduce.Verdict
	Delta   float64
	Epsilon float64

	// Details are extra human-readable lines such as missing digits or a
	// reference integral.
	Details []string
}

// Match reports whether both paths agreed.
func (o Outcome) Match() bool { return o.Verdict == reduce.VerdictMatch }

// Speedup returns sequential time over parallel time, or 0 when unmeasurable.
func (o Outcome) Speedup() float64 {
	if o.ParallelTime <= 0 {
		return 0
	}
	return float64(o.SequentialTime) / float64(o.ParallelTime)
}

// job is what a lab hands to verify once its input has been validated.
type job[T any] struct {
	items   int
	reducer reduce.Reducer[T]
	equal   reduce.Equality[T]
	format  func(T) string
	details func(T) []string
}

// verify runs a job through reduce.Verify and erases its type.
func verify[T any](ctx context.Context, l Lab, p Params, j job[T], opts ...reduce.Option) (Outcome, error) {
	policy, err := resolvePolicy(p.Policy, l.DefaultPolicy())
	if err != nil {
		return Outcome{}, err
	}
	opts = append(opts, reduce.WithPolicy(policy), reduce.WithRepeat(p.Repeat))

	report, err := reduce.Verify(ctx, reduce.Spec{TotalItems: j.items, Workers: p.Workers}, j.reducer, j.equal, opts...)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", l.Name(), err)
	}

	out := Outcome{
		Lab:            l.Name(),
		Items:          j.items,
		Workers:        p.Workers,
		Tasks:          report.Parallel.Tasks,
		Policy:         policy,
		Sequential:     j.format(report.Sequential.Value),
		Parallel:       j.format(report.Parallel.Value),
		SequentialTime: report.Sequential.Elapsed,
		ParallelTime:   report.Parallel.Elapsed,
		Verdict:        report.Verdict,
		Delta:          report.Delta,
		Epsilon:        report.Epsilon,
	}
	if j.details != nil {
		out.Details = j.details(report.Sequential.Value)
	}
	return out, nil
}

func resolvePolicy(name string, fallback partition.Policy) (partition.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return fallback, nil
	}
	policy, err := partition.ParsePolicy(name)
	if err != nil {
		return 0, apperrors.ValidationError{Field: "policy", Message: err.Error()}
	}
	return policy, nil
}

// floatEquality picks Within when an explicit tolerance is set and a
// rounding bound over terms otherwise.
func floatEquality(epsilon float64, terms int) reduce.Equality[float64] {
	if epsilon > 0 {
		return reduce.Within(epsilon)
	}
	return reduce.RoundingBound(terms)
}

func invalid(field, format string, a ...any) error {
	return apperrors.ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

func formatFloat(v float64) string { return fmt.Sprintf("%.12g", v) }
