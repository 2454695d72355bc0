package tui

import (
	"testing"
	"unicode/utf8"
)

func TestRingBuffer_PushAndSlice(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Push(1)
	rb.Push(2)

	got := rb.Slice()
	want := []float64{1, 2}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestRingBuffer_Overflow(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		rb.Push(v)
	}

	got := rb.Slice()
	want := []float64{3, 4, 5}
	if rb.Len() != 3 {
		t.Fatalf("Len = %d, want 3", rb.Len())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}
	if rb.Last() != 5 {
		t.Errorf("Last = %f, want 5", rb.Last())
	}
}

func TestRingBuffer_EmptyAndReset(t *testing.T) {
	rb := NewRingBuffer(0)
	if rb.Last() != 0 || rb.Len() != 0 || len(rb.Slice()) != 0 {
		t.Fatal("expected an empty buffer")
	}
	rb.Push(7)
	rb.Push(8)
	if rb.Last() != 8 {
		t.Errorf("capacity is clamped to 1, Last = %f, want 8", rb.Last())
	}
	rb.Reset()
	if rb.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", rb.Len())
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"empty", nil, ""},
		{"bounds", []float64{0, 100}, "▁█"},
		{"clamped", []float64{-5, 250}, "▁█"},
		{"middle", []float64{50}, "▄"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderSparkline(tt.values)
			if got != tt.want {
				t.Errorf("RenderSparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
			if utf8.RuneCountInString(got) != len(tt.values) {
				t.Errorf("rune count = %d, want %d", utf8.RuneCountInString(got), len(tt.values))
			}
		})
	}
}
