package workload

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// referenceNodes is the Gauss-Legendre node count of the reference integral.
const referenceNodes = 64

// maxSeriesTerms caps the terms of the Simpson integrand series.
const maxSeriesTerms = 1000

// Integrand is one entry of the rect function menu.
type Integrand struct {
	Name string
	F    func(float64) float64
	// NonNegative marks functions only defined for x >= 0.
	NonNegative bool
}

var integrands = []Integrand{
	{Name: "x*x", F: func(x float64) float64 { return x * x }},
	{Name: "sin(x)", F: math.Sin},
	{Name: "cos(x)", F: math.Cos},
	{Name: "exp(x)", F: math.Exp},
	{Name: "sqrt(x)", F: math.Sqrt, NonNegative: true},
	{Name: "1/(1+x*x)", F: func(x float64) float64 { return 1 / (1 + x*x) }},
}

// Integrands returns the rect function menu in presentation order.
func Integrands() []Integrand { return append([]Integrand(nil), integrands...) }

// LookupIntegrand resolves a menu entry by name or by its 1-based number.
func LookupIntegrand(key string) (Integrand, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), " ", "")
	if n, err := strconv.Atoi(key); err == nil {
		if n >= 1 && n <= len(integrands) {
			return integrands[n-1], nil
		}
		return Integrand{}, invalid("func", "menu number must be between 1 and %d, got %d", len(integrands), n)
	}
	for _, f := range integrands {
		if strings.EqualFold(f.Name, key) {
			return f, nil
		}
	}
	names := make([]string, len(integrands))
	for i, f := range integrands {
		names[i] = f.Name
	}
	return Integrand{}, invalid("func", "unknown function %q (available: %s)", key, strings.Join(names, ", "))
}

// Rect integrates a menu function over [a, b] with the right-endpoint
// rectangle rule.
type Rect struct{}

func (Rect) Name() string                    { return "rect" }
func (Rect) Description() string             { return "rectangle-rule integral of a menu function over [a, b]" }
func (Rect) DefaultPolicy() partition.Policy { return partition.Block }

// Run validates the interval, builds the reducer and verifies. The details
// carry a Gauss-Legendre reference value of the same integral.
func (l Rect) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	fn, err := LookupIntegrand(p.Func)
	if err != nil {
		return Outcome{}, err
	}
	if p.Intervals <= 0 {
		return Outcome{}, invalid("intervals", "must be positive, got %d", p.Intervals)
	}
	if p.B <= p.A {
		return Outcome{}, invalid("b", "upper limit %g must be greater than lower limit %g", p.B, p.A)
	}
	if fn.NonNegative && p.A < 0 {
		return Outcome{}, invalid("a", "%s is undefined below 0, got a=%g", fn.Name, p.A)
	}

	ref := quad.Fixed(fn.F, p.A, p.B, referenceNodes, nil, 0)
	return verify(ctx, l, p, job[float64]{
		items:   p.Intervals,
		reducer: RectangleReducer(fn.F, p.A, p.B, p.Intervals),
		equal:   floatEquality(p.Epsilon, p.Intervals),
		format:  formatFloat,
		details: func(v float64) []string {
			return []string{
				fmt.Sprintf("function: %s on [%g, %g]", fn.Name, p.A, p.B),
				fmt.Sprintf("reference (Gauss-Legendre, %d nodes): %s", referenceNodes, formatFloat(ref)),
				fmt.Sprintf("error vs reference: %.3g", math.Abs(v-ref)),
			}
		},
	}, opts...)
}

// RectangleReducer absorbs sample i as f(a+(i+1)h)·h with h = (b-a)/n.
func RectangleReducer(f func(float64) float64, a, b float64, n int) reduce.Funcs[float64] {
	h := (b - a) / float64(n)
	return reduce.Funcs[float64]{
		AbsorbFunc: func(acc float64, i int) (float64, error) {
			x := a + float64(i+1)*h
			y := f(x)
			if math.IsNaN(y) || math.IsInf(y, 0) {
				return 0, fmt.Errorf("non-finite value %g at x=%g", y, x)
			}
			return acc + y*h, nil
		},
		MergeFunc: addFloats,
	}
}

// Simpson integrates a slowly converging series over [lower, 1] with
// Simpson's rule.
type Simpson struct{}

func (Simpson) Name() string                    { return "simpson" }
func (Simpson) Description() string             { return "Simpson integral of a power series over [lower, 1]" }
func (Simpson) DefaultPolicy() partition.Policy { return partition.Block }

// Run validates the parameters, builds the reducer and verifies.
func (l Simpson) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Intervals <= 0 || p.Intervals%2 != 0 {
		return Outcome{}, invalid("intervals", "must be a positive even number, got %d", p.Intervals)
	}
	if p.Lower < 0 {
		return Outcome{}, invalid("lower", "must be non-negative, got %g", p.Lower)
	}
	if p.Lower >= 1 {
		return Outcome{}, invalid("lower", "must be below the upper limit 1, got %g", p.Lower)
	}
	if p.Precision <= 0 {
		return Outcome{}, invalid("precision", "must be positive, got %g", p.Precision)
	}

	return verify(ctx, l, p, job[float64]{
		items:   p.Intervals,
		reducer: SimpsonReducer(p.Lower, 1, p.Intervals, p.Precision),
		equal:   floatEquality(p.Epsilon, 3*p.Intervals),
		format:  formatFloat,
		details: func(float64) []string {
			return []string{fmt.Sprintf("interval: [%g, 1], series precision %g", p.Lower, p.Precision)}
		},
	}, opts...)
}

// SimpsonReducer absorbs interval i as (h/6)·(f(x0) + 4f(mid) + f(x1)),
// where f is SeriesIntegrand at the given precision.
func SimpsonReducer(a, b float64, n int, precision float64) reduce.Funcs[float64] {
	h := (b - a) / float64(n)
	return reduce.Funcs[float64]{
		AbsorbFunc: func(acc float64, i int) (float64, error) {
			x0 := a + float64(i)*h
			x1 := a + float64(i+1)*h
			var sum float64
			for _, pt := range [...]struct{ x, w float64 }{{x0, 1}, {(x0 + x1) / 2, 4}, {x1, 1}} {
				y, err := SeriesIntegrand(pt.x, precision)
				if err != nil {
					return 0, err
				}
				sum += pt.w * y
			}
			return acc + h/6*sum, nil
		},
		MergeFunc: addFloats,
	}
}

// SeriesIntegrand evaluates Σ (-1)^k / ((2k)! · (4k+1)^x · x^(4k+1)),
// stopping at the first term smaller than precision. It is 0 at x = 0 and
// fails when a term is not finite or the series does not settle.
func SeriesIntegrand(x, precision float64) (float64, error) {
	if x == 0 {
		return 0, nil
	}
	var sum float64
	for k := range maxSeriesTerms {
		term := 1 / (math.Gamma(float64(2*k+1)) * math.Pow(float64(4*k+1), x) * math.Pow(x, float64(4*k+1)))
		if k%2 == 1 {
			term = -term
		}
		if math.IsNaN(term) || math.IsInf(term, 0) {
			return 0, fmt.Errorf("series term %d is not finite at x=%g", k, x)
		}
		if math.Abs(term) < precision {
			return sum, nil
		}
		sum += term
	}
	return 0, fmt.Errorf("series did not reach precision %g within %d terms at x=%g", precision, maxSeriesTerms, x)
}

func addFloats(a, b float64) (float64, error) { return a + b, nil }
