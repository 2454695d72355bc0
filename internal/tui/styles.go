package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/parreduce/internal/ui"
)

// Style variables for the dashboard, rebuilt from the ui palette by
// initStyles.
var (
	panelStyle      lipgloss.Style
	headerStyle     lipgloss.Style
	titleStyle      lipgloss.Style
	dimStyle        lipgloss.Style
	accentStyle     lipgloss.Style
	successStyle    lipgloss.Style
	warningStyle    lipgloss.Style
	errorStyle      lipgloss.Style
	footerKeyStyle  lipgloss.Style
	cpuSparkStyle   lipgloss.Style
	memSparkStyle   lipgloss.Style
	panelTitleStyle lipgloss.Style
)

func init() {
	initStyles()
}

// initStyles rebuilds every style from the current palette. Run calls it
// again after the theme has been chosen.
func initStyles() {
	p := ui.GetCurrentPalette()

	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Dim)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	dimStyle = lipgloss.NewStyle().Foreground(p.Dim)
	accentStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	footerKeyStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	cpuSparkStyle = lipgloss.NewStyle().Foreground(p.Accent)
	memSparkStyle = lipgloss.NewStyle().Foreground(p.Warning)
}
