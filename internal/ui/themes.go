package ui

import (
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme pairs ANSI escape codes for plain terminal output with the lipgloss
// palette used by badges and the dashboard.
type Theme struct {
	Name string

	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Underline string
	Reset     string

	Palette Palette
}

// Palette holds lipgloss colors for styled badges and panels.
type Palette struct {
	Text    lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

func ansi(code string) string { return "\033[38;5;" + code + "m" }

var (
	// DarkTheme suits dark terminal backgrounds. It is the default.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   ansi("39"),
		Secondary: ansi("245"),
		Success:   ansi("82"),
		Warning:   ansi("220"),
		Error:     ansi("196"),
		Info:      ansi("141"),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
		Palette: Palette{
			Text:    lipgloss.Color("#000000"),
			Accent:  lipgloss.Color("#4488FF"),
			Success: lipgloss.Color("#9ece6a"),
			Warning: lipgloss.Color("#FFB347"),
			Error:   lipgloss.Color("#FF4444"),
			Dim:     lipgloss.Color("#666666"),
		},
	}

	// LightTheme uses darker tones that stay readable on light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   ansi("27"),
		Secondary: ansi("240"),
		Success:   ansi("28"),
		Warning:   ansi("130"),
		Error:     ansi("124"),
		Info:      ansi("54"),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
		Palette: Palette{
			Text:    lipgloss.Color("#FFFFFF"),
			Accent:  lipgloss.Color("#1F4FBF"),
			Success: lipgloss.Color("#2E7D32"),
			Warning: lipgloss.Color("#B35C00"),
			Error:   lipgloss.Color("#B00020"),
			Dim:     lipgloss.Color("#8A8A8A"),
		},
	}

	// NoColorTheme emits no escape codes. It is selected by --no-color and
	// by the NO_COLOR environment variable.
	NoColorTheme = Theme{
		Name: "none",
		Palette: Palette{
			Text:    lipgloss.NoColor{},
			Accent:  lipgloss.NoColor{},
			Success: lipgloss.NoColor{},
			Warning: lipgloss.NoColor{},
			Error:   lipgloss.NoColor{},
			Dim:     lipgloss.NoColor{},
		},
	}

	themes = []Theme{DarkTheme, LightTheme, NoColorTheme}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeNames lists the names accepted by --theme.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// LookupTheme returns the theme called name.
func LookupTheme(name string) (Theme, bool) {
	i := slices.IndexFunc(themes, func(t Theme) bool { return t.Name == name })
	if i < 0 {
		return Theme{}, false
	}
	return themes[i], true
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// GetCurrentPalette returns the palette of the active theme.
func GetCurrentPalette() Palette {
	return GetCurrentTheme().Palette
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme called name and reports whether it exists.
// The active theme is unchanged for an unknown name.
func SetTheme(name string) bool {
	t, ok := LookupTheme(name)
	if ok {
		SetCurrentTheme(t)
	}
	return ok
}

// InitTheme activates the named theme unless colors are disabled by noColor
// or by NO_COLOR (https://no-color.org/), which win over the name. An empty
// or unknown name selects DarkTheme.
func InitTheme(name string, noColor bool) {
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if !SetTheme(name) {
		SetCurrentTheme(DarkTheme)
	}
}
