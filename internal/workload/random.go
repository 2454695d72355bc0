package workload

import (
	"math/rand/v2"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// newRand returns a deterministic generator for seed, so both paths and
// repeated runs see the same data.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randomMatrix returns a rows×cols matrix of values in [0, limit).
func randomMatrix(rng *rand.Rand, rows, cols, limit int) [][]int {
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
		for j := range m[i] {
			m[i][j] = rng.IntN(limit)
		}
	}
	return m
}

// randomStrings returns count strings of length characters drawn from
// letters, digits and space.
func randomStrings(rng *rand.Rand, count, length int) []string {
	out := make([]string, count)
	buf := make([]byte, length)
	for i := range out {
		for j := range buf {
			buf[j] = charset[rng.IntN(len(charset))]
		}
		out[i] = string(buf)
	}
	return out
}
