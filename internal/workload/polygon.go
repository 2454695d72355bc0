package workload

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// Point is a polygon vertex.
type Point struct{ X, Y float64 }

// Shoelace computes the area of a random simple polygon with the shoelace
// formula.
type Shoelace struct{}

func (Shoelace) Name() string                    { return "shoelace" }
func (Shoelace) Description() string             { return "shoelace area of a random simple polygon" }
func (Shoelace) DefaultPolicy() partition.Policy { return partition.Block }

// Run validates the vertex count, generates the polygon and verifies the
// cross-product sum. Results are shown as areas.
func (l Shoelace) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Vertices < 3 {
		return Outcome{}, invalid("vertices", "a polygon needs at least 3 vertices, got %d", p.Vertices)
	}
	poly := RandomPolygon(newRand(p.Seed), p.Vertices)
	return verify(ctx, l, p, job[float64]{
		items:   len(poly),
		reducer: ShoelaceReducer(poly),
		equal:   floatEquality(p.Epsilon, len(poly)),
		format:  func(cross float64) string { return formatFloat(Area(cross)) },
		details: func(cross float64) []string {
			return []string{fmt.Sprintf("vertices: %d, signed cross sum: %s", len(poly), formatFloat(cross))}
		},
	}, opts...)
}

// ShoelaceReducer absorbs edge i, from vertex i to vertex i+1 (wrapping), as
// the cross product x_i·y_{i+1} - x_{i+1}·y_i. An empty polygon has no edges
// and sums to 0.
func ShoelaceReducer(poly []Point) reduce.Funcs[float64] {
	return reduce.Pure(0.0,
		func(acc float64, i int) float64 {
			a, b := poly[i], poly[(i+1)%len(poly)]
			return acc + a.X*b.Y - b.X*a.Y
		},
		func(a, b float64) float64 { return a + b })
}

// Area converts a shoelace cross sum to the polygon area.
func Area(cross float64) float64 { return math.Abs(cross) / 2 }

// RandomPolygon returns n vertices at random radii around the origin, sorted
// by angle so the polygon is simple and counter-clockwise.
func RandomPolygon(rng *rand.Rand, n int) []Point {
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = rng.Float64() * 2 * math.Pi
	}
	slices.Sort(angles)
	poly := make([]Point, n)
	for i, a := range angles {
		r := 50 + 50*rng.Float64()
		poly[i] = Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return poly
}
