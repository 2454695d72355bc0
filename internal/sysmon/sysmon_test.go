package sysmon

import (
	"runtime"
	"testing"
)

func TestSample_ReturnsValidRanges(t *testing.T) {
	s := Sample()
	if s.CPUPercent < 0 || s.CPUPercent > 100 {
		t.Errorf("CPUPercent out of range: %f", s.CPUPercent)
	}
	if s.MemPercent < 0 || s.MemPercent > 100 {
		t.Errorf("MemPercent out of range: %f", s.MemPercent)
	}
}

func TestSample_MemPercentNonZero(t *testing.T) {
	s := Sample()
	if s.MemPercent == 0 {
		t.Error("expected non-zero MemPercent on a running system")
	}
}

func TestDescribeHost(t *testing.T) {
	h := DescribeHost()
	if h.Logical != runtime.NumCPU() {
		t.Errorf("Logical = %d, want %d", h.Logical, runtime.NumCPU())
	}
	if h.Physical < 0 {
		t.Errorf("Physical = %d, want >= 0", h.Physical)
	}
}

func TestFeatures_NoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Features() {
		if seen[f] {
			t.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
}
