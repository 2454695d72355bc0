package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines bounds the event log.
const maxLogLines = 500

// LogsModel is the scrollable event log. It follows new lines until the
// user scrolls away from the bottom.
type LogsModel struct {
	vp     viewport.Model
	lines  []string
	follow bool
	width  int
	height int
}

// NewLogsModel creates an empty log.
func NewLogsModel() LogsModel {
	return LogsModel{vp: viewport.New(0, 0), follow: true}
}

// SetSize updates dimensions; the border and the title take three rows.
func (m *LogsModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.vp.Width = max(w-2, 0)
	m.vp.Height = max(h-3, 1)
	m.refresh()
}

// Add appends a timestamped line.
func (m *LogsModel) Add(line string) {
	m.lines = append(m.lines, dimStyle.Render(time.Now().Format("15:04:05"))+" "+line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.refresh()
}

// Lines returns the number of lines held.
func (m LogsModel) Lines() int { return len(m.lines) }

// Reset drops every line.
func (m *LogsModel) Reset() {
	m.lines = nil
	m.follow = true
	m.refresh()
}

// Update scrolls the log.
func (m *LogsModel) Update(msg tea.KeyMsg) {
	m.vp, _ = m.vp.Update(msg)
	m.follow = m.vp.AtBottom()
}

func (m *LogsModel) refresh() {
	m.vp.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.vp.GotoBottom()
	}
}

// View renders the log panel.
func (m LogsModel) View() string {
	return panelStyle.Width(max(m.width-2, 0)).Render(panelTitleStyle.Render("EVENTS") + "\n" + m.vp.View())
}
