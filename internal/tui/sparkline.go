package tui

import "strings"

// sparkLevels are the block elements of a sparkline, lowest first.
const sparkLevels = "▁▂▃▄▅▆▇█"

// RingBuffer keeps the most recent samples of a series.
type RingBuffer struct {
	data  []float64
	next  int
	count int
}

// NewRingBuffer creates a buffer holding at most capacity samples.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]float64, max(capacity, 1))}
}

// Push appends v, dropping the oldest sample when full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.next] = v
	r.next = (r.next + 1) % len(r.data)
	r.count = min(r.count+1, len(r.data))
}

// Len returns the number of samples held.
func (r *RingBuffer) Len() int { return r.count }

// Last returns the newest sample, or 0 when empty.
func (r *RingBuffer) Last() float64 {
	if r.count == 0 {
		return 0
	}
	return r.data[(r.next-1+len(r.data))%len(r.data)]
}

// Slice returns the samples oldest first.
func (r *RingBuffer) Slice() []float64 {
	out := make([]float64, r.count)
	first := (r.next - r.count + len(r.data)) % len(r.data)
	for i := range out {
		out[i] = r.data[(first+i)%len(r.data)]
	}
	return out
}

// Reset drops every sample.
func (r *RingBuffer) Reset() {
	r.next, r.count = 0, 0
}

// RenderSparkline draws percentages in [0, 100] as block elements. Values
// outside the range are clamped.
func RenderSparkline(values []float64) string {
	levels := []rune(sparkLevels)
	var b strings.Builder
	for _, v := range values {
		v = min(max(v, 0), 100)
		b.WriteRune(levels[int(v/100*float64(len(levels)-1))])
	}
	return b.String()
}
