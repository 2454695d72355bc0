package tui

import (
	"time"

	"github.com/agbru/parreduce/internal/orchestration"
)

// Messages sent to the model. Run-scoped messages carry the generation of
// the run that produced them so that updates from a canceled run are
// ignored after a rerun.

// ProgressMsg reports aggregated progress of the labs.
type ProgressMsg struct {
	Generation      uint64
	LabIndex        int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// LabDoneMsg reports a lab that completed, whatever its verdict.
type LabDoneMsg struct {
	Generation uint64
	Result     orchestration.LabResult
}

// LabErrorMsg reports a lab that returned an error.
type LabErrorMsg struct {
	Generation uint64
	Lab        string
	Err        error
	Duration   time.Duration
}

// RunCompleteMsg is sent when every lab of a run has been analyzed.
type RunCompleteMsg struct {
	Generation uint64
	ExitCode   int
}

// ContextCancelledMsg is sent when the session context is done, typically
// on SIGINT.
type ContextCancelledMsg struct {
	Err error
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory sample.
type MemStatsMsg struct {
	HeapAlloc    uint64
	HeapSys      uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// SysStatsMsg carries a host load sample.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}
