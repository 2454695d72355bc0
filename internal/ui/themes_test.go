package ui

import (
	"strings"
	"testing"
)

func TestSetTheme(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	tests := []struct {
		name string
		ok   bool
		want string
	}{
		{"light", true, "light"},
		{"none", true, "none"},
		{"dark", true, "dark"},
		{"solarized", false, "dark"},
	}
	for _, tt := range tests {
		if ok := SetTheme(tt.name); ok != tt.ok {
			t.Errorf("SetTheme(%q) = %v, want %v", tt.name, ok, tt.ok)
		}
		if got := GetCurrentTheme().Name; got != tt.want {
			t.Errorf("after SetTheme(%q) the theme is %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if strings.Join(names, ",") != "dark,light,none" {
		t.Fatalf("ThemeNames() = %v", names)
	}
	for _, name := range names {
		if th, ok := LookupTheme(name); !ok || th.Name != name {
			t.Errorf("LookupTheme(%q) = %q, %v", name, th.Name, ok)
		}
	}
	if _, ok := LookupTheme("orange"); ok {
		t.Error("LookupTheme accepted an unknown name")
	}
}

func TestInitTheme(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	InitTheme("light", false)
	if GetCurrentTheme().Name != "light" {
		t.Errorf("InitTheme(light) selected %q", GetCurrentTheme().Name)
	}
	if GetCurrentPalette() != LightTheme.Palette {
		t.Error("palette should follow the light theme")
	}

	InitTheme("unknown", false)
	if GetCurrentTheme().Name != "dark" {
		t.Errorf("an unknown name should fall back to dark, got %q", GetCurrentTheme().Name)
	}

	InitTheme("light", true)
	if GetCurrentTheme().Name != "none" {
		t.Fatalf("--no-color should win over --theme")
	}
	if ColorRed() != "" || ColorReset() != "" {
		t.Error("no-color theme must not emit escape codes")
	}
}

func TestInitTheme_NoColorEnv(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	t.Setenv("NO_COLOR", "1")
	InitTheme("dark", false)
	if GetCurrentTheme().Name != "none" {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestColorFunctionsFollowTheme(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	SetCurrentTheme(DarkTheme)
	checks := map[string][2]string{
		"red":       {ColorRed(), DarkTheme.Error},
		"green":     {ColorGreen(), DarkTheme.Success},
		"yellow":    {ColorYellow(), DarkTheme.Warning},
		"blue":      {ColorBlue(), DarkTheme.Primary},
		"magenta":   {ColorMagenta(), DarkTheme.Info},
		"cyan":      {ColorCyan(), DarkTheme.Secondary},
		"bold":      {ColorBold(), DarkTheme.Bold},
		"underline": {ColorUnderline(), DarkTheme.Underline},
		"reset":     {ColorReset(), DarkTheme.Reset},
	}
	for name, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s: got %q, want %q", name, pair[0], pair[1])
		}
	}
}

func TestBadge(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	SetCurrentTheme(NoColorTheme)
	if got := Badge("MATCH", BadgeSuccess); got != "[MATCH]" {
		t.Errorf("no-color badge = %q, want [MATCH]", got)
	}

	SetCurrentTheme(DarkTheme)
	for _, kind := range []BadgeKind{BadgeSuccess, BadgeWarning, BadgeError, BadgeInfo} {
		if got := Badge("MISMATCH", kind); !strings.Contains(got, "MISMATCH") {
			t.Errorf("badge %d = %q, should contain the label", kind, got)
		}
	}
}
