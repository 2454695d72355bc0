// Package partition divides an index range [0, N) among a fixed number of
// workers, either as contiguous blocks or as strided (round-robin) sets.
package partition

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/parreduce/internal/errors"
)

// Policy selects how indices are dealt to workers.
type Policy int

const (
	// Block gives worker k the contiguous range [k*⌈N/W⌉, min((k+1)*⌈N/W⌉, N)).
	// Suited to uniform per-item cost.
	Block Policy = iota
	// Strided gives worker k the indices {k, k+W, k+2W, ...} ∩ [0, N).
	// Suited to skewed per-item cost.
	Strided
)

// String returns the policy name accepted by ParsePolicy.
func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case Strided:
		return "strided"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "block":
		return Block, nil
	case "strided", "round-robin":
		return Strided, nil
	default:
		return Block, apperrors.NewInvalidArgument("policy", "unknown partition policy %q (want block or strided)", name)
	}
}

// Partition is the share of [0, TotalItems) owned by one worker: the indices
// Start, Start+Stride, ... strictly below End.
type Partition struct {
	Worker int
	Start  int
	End    int
	Stride int
}

// Len returns the number of indices in the partition.
func (p Partition) Len() int {
	if p.Start >= p.End || p.Stride < 1 {
		return 0
	}
	return (p.End - p.Start + p.Stride - 1) / p.Stride
}

// Empty reports whether the partition owns no index.
func (p Partition) Empty() bool { return p.Len() == 0 }

// Each calls fn for every index of the partition in ascending order, stopping
// at the first error.
func (p Partition) Each(fn func(i int) error) error {
	if p.Stride < 1 {
		return nil
	}
	for i := p.Start; i < p.End; i += p.Stride {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// Indices returns the partition's indices in ascending order.
func (p Partition) Indices() []int {
	out := make([]int, 0, p.Len())
	_ = p.Each(func(i int) error {
		out = append(out, i)
		return nil
	})
	return out
}

// String renders the partition for debug output.
func (p Partition) String() string {
	if p.Stride == 1 {
		return fmt.Sprintf("w%d[%d,%d)", p.Worker, p.Start, p.End)
	}
	return fmt.Sprintf("w%d{%d..%d step %d}", p.Worker, p.Start, p.End, p.Stride)
}

// Split divides [0, totalItems) into exactly workers partitions, ordered by
// ascending Start. Partitions may be empty when workers > totalItems.
//
// It returns an InvalidArgumentError when totalItems < 0 or workers < 1.
func Split(totalItems, workers int, policy Policy) ([]Partition, error) {
	if totalItems < 0 {
		return nil, apperrors.NewInvalidArgument("totalItems", "must be non-negative, got %d", totalItems)
	}
	if workers < 1 {
		return nil, apperrors.NewInvalidArgument("workers", "must be at least 1, got %d", workers)
	}

	parts := make([]Partition, workers)
	switch policy {
	case Block:
		chunk := (totalItems + workers - 1) / workers
		for k := range parts {
			start := min(k*chunk, totalItems)
			end := min(start+chunk, totalItems)
			parts[k] = Partition{Worker: k, Start: start, End: end, Stride: 1}
		}
	case Strided:
		for k := range parts {
			parts[k] = Partition{Worker: k, Start: k, End: totalItems, Stride: workers}
		}
	default:
		return nil, apperrors.NewInvalidArgument("policy", "unsupported partition policy %v", policy)
	}
	return parts, nil
}

// Whole returns the single partition covering [0, totalItems), as used by the
// sequential path.
func Whole(totalItems int) Partition {
	return Partition{Worker: 0, Start: 0, End: totalItems, Stride: 1}
}
