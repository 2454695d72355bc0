package workload

import (
	"context"
	"fmt"
	"strings"

	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
)

// DigitSet records which decimal digits have been seen.
type DigitSet [10]bool

// Digits checks which decimal digits occur in a batch of random strings.
type Digits struct{}

func (Digits) Name() string                    { return "digits" }
func (Digits) Description() string             { return "decimal digits present in random alphanumeric strings" }
func (Digits) DefaultPolicy() partition.Policy { return partition.Strided }

// Run validates the batch shape, generates the strings and verifies.
func (l Digits) Run(ctx context.Context, p Params, opts ...reduce.Option) (Outcome, error) {
	if p.Strings < 1 {
		return Outcome{}, invalid("strings", "must be positive, got %d", p.Strings)
	}
	if p.Length < 1 {
		return Outcome{}, invalid("length", "must be positive, got %d", p.Length)
	}
	texts := randomStrings(newRand(p.Seed), p.Strings, p.Length)
	return verify(ctx, l, p, job[DigitSet]{
		items:   len(texts),
		reducer: DigitReducer(texts),
		equal:   reduce.Exact[DigitSet](),
		format:  func(s DigitSet) string { return s.String() },
		details: func(s DigitSet) []string { return []string{s.Summary()} },
	}, opts...)
}

// DigitReducer absorbs string i of texts into a DigitSet; merge is a union.
func DigitReducer(texts []string) reduce.Funcs[DigitSet] {
	return reduce.Pure(DigitSet{},
		func(acc DigitSet, i int) DigitSet {
			for _, c := range texts[i] {
				if c >= '0' && c <= '9' {
					acc[c-'0'] = true
				}
			}
			return acc
		},
		func(a, b DigitSet) DigitSet {
			for d := range a {
				a[d] = a[d] || b[d]
			}
			return a
		})
}

// Missing returns the digits not in s, ascending.
func (s DigitSet) Missing() []int {
	var out []int
	for d, seen := range s {
		if !seen {
			out = append(out, d)
		}
	}
	return out
}

// String lists the digits present, e.g. "{0 1 5 9}".
func (s DigitSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for d, seen := range s {
		if !seen {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprint(&b, d)
	}
	b.WriteByte('}')
	return b.String()
}

// Summary is the human-readable verdict on digit coverage.
func (s DigitSet) Summary() string {
	missing := s.Missing()
	if len(missing) == 0 {
		return "All digits are present"
	}
	return fmt.Sprintf("Missing digits: %s", strings.Trim(fmt.Sprint(missing), "[]"))
}
