package ui

import "github.com/charmbracelet/lipgloss"

// ColorReset returns the escape code that clears all formatting.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed returns the error color of the current theme.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen returns the success color of the current theme.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color of the current theme.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue returns the primary color of the current theme.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta returns the info color of the current theme.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan returns the secondary color of the current theme.
func ColorCyan() string { return GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code of the current theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code of the current theme.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// BadgeKind selects the color of a badge.
type BadgeKind int

const (
	BadgeSuccess BadgeKind = iota
	BadgeWarning
	BadgeError
	BadgeInfo
)

// Badge renders text as a short padded label, e.g. " MATCH ". With the
// no-color theme it renders as "[MATCH]" so the label stays visible.
func Badge(text string, kind BadgeKind) string {
	p := GetCurrentPalette()
	if GetCurrentTheme().Name == "none" {
		return "[" + text + "]"
	}
	var bg lipgloss.TerminalColor
	switch kind {
	case BadgeSuccess:
		bg = p.Success
	case BadgeWarning:
		bg = p.Warning
	case BadgeError:
		bg = p.Error
	default:
		bg = p.Accent
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(p.Text).
		Background(bg).
		Render(text)
}
