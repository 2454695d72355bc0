package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/parreduce/internal/format"
)

// sparkHistory is the number of load samples kept for the sparklines.
const sparkHistory = 60

// MetricsModel shows run progress, runtime memory and host load.
type MetricsModel struct {
	heapAlloc    uint64
	heapSys      uint64
	numGC        uint32
	pauseTotalNs uint64
	numGoroutine int

	progress float64
	eta      time.Duration

	cpu *RingBuffer
	mem *RingBuffer

	width  int
	height int
}

// NewMetricsModel creates an empty panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{cpu: NewRingBuffer(sparkHistory), mem: NewRingBuffer(sparkHistory)}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateMemStats stores a runtime memory sample.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.heapAlloc = msg.HeapAlloc
	m.heapSys = msg.HeapSys
	m.numGC = msg.NumGC
	m.pauseTotalNs = msg.PauseTotalNs
	m.numGoroutine = msg.NumGoroutine
}

// UpdateSysStats appends a host load sample.
func (m *MetricsModel) UpdateSysStats(msg SysStatsMsg) {
	m.cpu.Push(msg.CPUPercent)
	m.mem.Push(msg.MemPercent)
}

// UpdateProgress stores the aggregated progress of the run.
func (m *MetricsModel) UpdateProgress(progress float64, eta time.Duration) {
	m.progress = progress
	m.eta = eta
}

// Reset clears progress and load history.
func (m *MetricsModel) Reset() {
	m.progress, m.eta = 0, 0
	m.cpu.Reset()
	m.mem.Reset()
}

// View renders the panel.
func (m MetricsModel) View() string {
	sparkWidth := max(m.width-16, 4)
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("RUNTIME"))
	fmt.Fprintf(&b, "\n %s %s", dimStyle.Render("Progress:  "),
		accentStyle.Render(format.FormatProgressBarWithETA(m.progress, m.eta, max(m.width-32, 5))))
	fmt.Fprintf(&b, "\n %s %s / %s", dimStyle.Render("Heap:      "),
		accentStyle.Render(format.FormatBytes(m.heapAlloc)), format.FormatBytes(m.heapSys))
	fmt.Fprintf(&b, "\n %s %s", dimStyle.Render("GC:        "),
		accentStyle.Render(fmt.Sprintf("%d (%.1fms)", m.numGC, float64(m.pauseTotalNs)/1e6)))
	fmt.Fprintf(&b, "\n %s %s", dimStyle.Render("Goroutines:"), accentStyle.Render(fmt.Sprint(m.numGoroutine)))
	fmt.Fprintf(&b, "\n %s %5.1f%% %s", dimStyle.Render("CPU:       "), m.cpu.Last(),
		cpuSparkStyle.Render(RenderSparkline(tail(m.cpu.Slice(), sparkWidth))))
	fmt.Fprintf(&b, "\n %s %5.1f%% %s", dimStyle.Render("Memory:    "), m.mem.Last(),
		memSparkStyle.Render(RenderSparkline(tail(m.mem.Slice(), sparkWidth))))
	return panelStyle.Width(max(m.width-2, 0)).Height(max(m.height-2, 0)).Render(b.String())
}

func tail(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
