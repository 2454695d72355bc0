package metrics

import "runtime"

// MemorySnapshot is a runtime memory reading taken around a lab run.
type MemorySnapshot struct {
	HeapAlloc    uint64
	HeapSys      uint64
	Sys          uint64
	HeapObjects  uint64
	TotalAlloc   uint64
	NumGC        uint32
	PauseTotalNs uint64
	Goroutines   int
}

// MemoryCollector reads runtime memory statistics. The zero value is ready
// to use.
type MemoryCollector struct{}

// NewMemoryCollector returns a collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot stops the world briefly to read the current statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		HeapObjects:  m.HeapObjects,
		TotalAlloc:   m.TotalAlloc,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		Goroutines:   runtime.NumGoroutine(),
	}
}

// AllocDelta reports what happened between before and s: bytes allocated
// and GC cycles completed. Both counters are monotonic.
func (s MemorySnapshot) AllocDelta(before MemorySnapshot) (allocated uint64, cycles uint32) {
	return s.TotalAlloc - before.TotalAlloc, s.NumGC - before.NumGC
}
