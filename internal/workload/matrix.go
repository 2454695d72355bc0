package workload

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// maxPrintedDim bounds the matrices written to the details in verbose mode.
const maxPrintedDim = 16

// ColMax finds the maximum of every column of a random matrix.
type ColMax struct{}

func (ColMax) Name() string                    { return "colmax" }
func (ColMax) Description() string             { return "maximum of each column of a random matrix" }
func (ColMax) DefaultPolicy() partition.Policy { return partition.Block }

// Run validates the dimensions, generates the matrix and verifies.
func (l ColMax) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Rows < 1 {
		return Outcome{}, invalid("rows", "must be positive, got %d", p.Rows)
	}
	if p.Cols < 1 {
		return Outcome{}, invalid("cols", "must be positive, got %d", p.Cols)
	}
	m := randomMatrix(newRand(p.Seed), p.Rows, p.Cols, 1000)
	j := job[[]int]{
		items:   p.Cols,
		reducer: ColumnMaxReducer(m),
		equal:   reduce.EqualFunc(equalInts),
		format:  formatInts,
	}
	if p.Verbose && p.Rows <= maxPrintedDim && p.Cols <= maxPrintedDim {
		j.details = func([]int) []string { return matrixLines(m) }
	}
	return verify(ctx, l, p, j, opts...)
}

// ColumnMaxReducer absorbs column indices of m into a slice of column
// maxima. Columns no worker has seen stay at math.MinInt.
func ColumnMaxReducer(m [][]int) reduce.Funcs[[]int] {
	cols := 0
	if len(m) > 0 {
		cols = len(m[0])
	}
	return reduce.Funcs[[]int]{
		IdentityFunc: func() []int { return filled(cols, math.MinInt) },
		AbsorbFunc: func(acc []int, col int) ([]int, error) {
			for _, row := range m {
				acc[col] = max(acc[col], row[col])
			}
			return acc, nil
		},
		MergeFunc: mergeMax,
	}
}

// DiagMax finds the maximum of every anti-diagonal of a random square matrix.
type DiagMax struct{}

func (DiagMax) Name() string                    { return "diagmax" }
func (DiagMax) Description() string             { return "maximum of each anti-diagonal of a random square matrix" }
func (DiagMax) DefaultPolicy() partition.Policy { return partition.Strided }

// Run validates the size, generates the matrix and verifies.
func (l DiagMax) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Size < 1 {
		return Outcome{}, invalid("size", "must be positive, got %d", p.Size)
	}
	m := randomMatrix(newRand(p.Seed), p.Size, p.Size, 100)
	j := job[[]int]{
		items:   2*p.Size - 1,
		reducer: DiagonalMaxReducer(m),
		equal:   reduce.EqualFunc(equalInts),
		format:  formatInts,
	}
	if p.Verbose && p.Size <= maxPrintedDim {
		j.details = func([]int) []string { return matrixLines(m) }
	}
	return verify(ctx, l, p, j, opts...)
}

// DiagonalMaxReducer absorbs anti-diagonal indices d of the square matrix m,
// the cells with i+j == d, into a slice of 2n-1 maxima.
func DiagonalMaxReducer(m [][]int) reduce.Funcs[[]int] {
	n := len(m)
	return reduce.Funcs[[]int]{
		IdentityFunc: func() []int { return filled(max(2*n-1, 0), math.MinInt) },
		AbsorbFunc: func(acc []int, d int) ([]int, error) {
			for i := max(0, d-n+1); i <= min(d, n-1); i++ {
				acc[d] = max(acc[d], m[i][d-i])
			}
			return acc, nil
		},
		MergeFunc: mergeMax,
	}
}

// mergeMax takes the element-wise maximum of b into a.
func mergeMax(a, b []int) ([]int, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("accumulator length mismatch: %d != %d", len(a), len(b))
	}
	for i, v := range b {
		a[i] = max(a[i], v)
	}
	return a, nil
}

func equalInts(a, b []int) bool { return slices.Equal(a, b) }

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func formatInts(v []int) string {
	const limit = 12
	parts := make([]string, 0, min(len(v), limit)+1)
	for i, x := range v {
		if i == limit {
			parts = append(parts, fmt.Sprintf("… (%d more)", len(v)-limit))
			break
		}
		parts = append(parts, fmt.Sprint(x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func matrixLines(m [][]int) []string {
	lines := make([]string, 0, len(m)+1)
	lines = append(lines, "matrix:")
	for _, row := range m {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%3d", v)
		}
		lines = append(lines, "  "+strings.Join(cells, " "))
	}
	return lines
}
