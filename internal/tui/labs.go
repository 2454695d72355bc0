package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/parreduce/internal/format"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/workload"
)

// LabStatus is the state of one lab row.
type LabStatus int

const (
	StatusPending LabStatus = iota
	StatusRunning
	StatusMatch
	StatusMismatch
	StatusFailed
)

// String returns the label shown in the status column.
func (s LabStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusMatch:
		return "match"
	case StatusMismatch:
		return "mismatch"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

type labRow struct {
	name     string
	status   LabStatus
	progress float64
	speedup  float64
	elapsed  time.Duration
}

// LabsModel is the table of labs with their progress and verdicts.
type LabsModel struct {
	rows   []labRow
	width  int
	height int
}

// NewLabsModel creates one pending row per lab.
func NewLabsModel(labs []workload.Lab) LabsModel {
	rows := make([]labRow, len(labs))
	for i, l := range labs {
		rows[i] = labRow{name: l.Name()}
	}
	return LabsModel{rows: rows}
}

// SetSize updates dimensions.
func (m *LabsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Reset puts every row back to pending.
func (m *LabsModel) Reset() {
	for i := range m.rows {
		m.rows[i] = labRow{name: m.rows[i].name}
	}
}

// UpdateProgress marks lab index as running with the given progress.
func (m *LabsModel) UpdateProgress(index int, value float64) {
	if index < 0 || index >= len(m.rows) {
		return
	}
	r := &m.rows[index]
	if r.status == StatusPending {
		r.status = StatusRunning
	}
	if r.status == StatusRunning {
		r.progress = max(r.progress, min(value, 1))
	}
}

// SetResult records a completed lab.
func (m *LabsModel) SetResult(res orchestration.LabResult) {
	r := m.row(res.Lab)
	if r == nil {
		return
	}
	r.progress = 1
	r.elapsed = res.Duration
	r.speedup = res.Outcome.Speedup()
	if res.Outcome.Match() {
		r.status = StatusMatch
	} else {
		r.status = StatusMismatch
	}
}

// SetFailed records a lab that returned an error.
func (m *LabsModel) SetFailed(lab string, elapsed time.Duration) {
	if r := m.row(lab); r != nil {
		r.status = StatusFailed
		r.elapsed = elapsed
	}
}

// Status returns the status of lab, or StatusPending when unknown.
func (m LabsModel) Status(lab string) LabStatus {
	for _, r := range m.rows {
		if r.name == lab {
			return r.status
		}
	}
	return StatusPending
}

func (m *LabsModel) row(lab string) *labRow {
	for i := range m.rows {
		if m.rows[i].name == lab {
			return &m.rows[i]
		}
	}
	return nil
}

// View renders the table.
func (m LabsModel) View() string {
	barWidth := max(m.width-44, 10)
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("LABS"))
	for _, r := range m.rows {
		speedup := "-"
		if r.speedup > 0 {
			speedup = fmt.Sprintf("%.2fx", r.speedup)
		}
		elapsed := "-"
		if r.elapsed > 0 {
			elapsed = format.FormatExecutionDuration(r.elapsed)
		}
		fmt.Fprintf(&b, "\n %-9s %s %s %7s %9s",
			r.name,
			statusStyle(r.status).Render(fmt.Sprintf("%-9s", r.status)),
			dimStyle.Render(format.ProgressBar(r.progress, barWidth)),
			speedup, elapsed)
	}
	return panelStyle.Width(max(m.width-2, 0)).Height(max(m.height-2, lipgloss.Height(b.String()))).Render(b.String())
}

func statusStyle(s LabStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return accentStyle
	case StatusMatch:
		return successStyle
	case StatusMismatch:
		return warningStyle
	case StatusFailed:
		return errorStyle
	default:
		return dimStyle
	}
}
