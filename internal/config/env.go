// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the PARREDUCE_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

func intField(field func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			*field(c) = parsed
		}
	}
}

func floatField(field func(*AppConfig) *float64) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*field(c) = parsed
		}
	}
}

func stringField(field func(*AppConfig) *string) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *field(c) = v }
}

func boolField(field func(*AppConfig) *bool) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *field(c) = parseBoolEnv(v, *field(c)) }
}

// envOverrides is the declarative table of all environment variable overrides,
// grouped as numeric, duration, string and bool.
var envOverrides = []envOverride{
	// Numeric overrides
	{"WORKERS", []string{"workers"}, intField(func(c *AppConfig) *int { return &c.Workers })},
	{"SEED", []string{"seed"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}},
	{"EPSILON", []string{"epsilon"}, floatField(func(c *AppConfig) *float64 { return &c.Epsilon })},
	{"REPEAT", []string{"repeat"}, intField(func(c *AppConfig) *int { return &c.Repeat })},
	{"ROWS", []string{"rows"}, intField(func(c *AppConfig) *int { return &c.Rows })},
	{"COLS", []string{"cols"}, intField(func(c *AppConfig) *int { return &c.Cols })},
	{"SIZE", []string{"size"}, intField(func(c *AppConfig) *int { return &c.Size })},
	{"A", []string{"a"}, floatField(func(c *AppConfig) *float64 { return &c.A })},
	{"B", []string{"b"}, floatField(func(c *AppConfig) *float64 { return &c.B })},
	{"INTERVALS", []string{"intervals"}, intField(func(c *AppConfig) *int { return &c.Intervals })},
	{"LOWER", []string{"lower"}, floatField(func(c *AppConfig) *float64 { return &c.Lower })},
	{"PRECISION", []string{"precision"}, floatField(func(c *AppConfig) *float64 { return &c.Precision })},
	{"STRINGS", []string{"strings"}, intField(func(c *AppConfig) *int { return &c.Strings })},
	{"LENGTH", []string{"length"}, intField(func(c *AppConfig) *int { return &c.Length })},
	{"VERTICES", []string{"vertices"}, intField(func(c *AppConfig) *int { return &c.Vertices })},
	{"TERMS", []string{"terms"}, intField(func(c *AppConfig) *int { return &c.Terms })},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	// String overrides
	{"LAB", []string{"lab"}, stringField(func(c *AppConfig) *string { return &c.Lab })},
	{"POLICY", []string{"policy"}, stringField(func(c *AppConfig) *string { return &c.Policy })},
	{"FUNC", []string{"func"}, stringField(func(c *AppConfig) *string { return &c.Func })},
	{"LOG_LEVEL", []string{"log-level"}, stringField(func(c *AppConfig) *string { return &c.LogLevel })},
	{"OUTPUT", []string{"output", "o"}, stringField(func(c *AppConfig) *string { return &c.OutputFile })},
	{"METRICS_FILE", []string{"metrics-file"}, stringField(func(c *AppConfig) *string { return &c.MetricsFile })},
	{"THEME", []string{"theme"}, stringField(func(c *AppConfig) *string { return &c.Theme })},
	{"SERVE", []string{"serve"}, stringField(func(c *AppConfig) *string { return &c.Serve })},

	// Boolean overrides
	{"PERSISTENT_POOL", []string{"persistent-pool"}, boolField(func(c *AppConfig) *bool { return &c.PersistentPool })},
	{"STRICT", []string{"strict"}, boolField(func(c *AppConfig) *bool { return &c.Strict })},
	{"QUIET", []string{"quiet", "q"}, boolField(func(c *AppConfig) *bool { return &c.Quiet })},
	{"VERBOSE", []string{"verbose", "v"}, boolField(func(c *AppConfig) *bool { return &c.Verbose })},
	{"TUI", []string{"tui"}, boolField(func(c *AppConfig) *bool { return &c.TUI })},
	{"NO_COLOR", []string{"no-color"}, boolField(func(c *AppConfig) *bool { return &c.NoColor })},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables (all prefixed with PARREDUCE_):
//   - WORKERS, SEED, EPSILON, REPEAT, TIMEOUT, LAB, POLICY, LOG_LEVEL,
//     the lab parameters (ROWS, COLS, SIZE, FUNC, A, B, INTERVALS, LOWER,
//     PRECISION, STRINGS, LENGTH, VERTICES, TERMS),
//     OUTPUT, METRICS_FILE, SERVE, PERSISTENT_POOL, STRICT, QUIET, VERBOSE,
//     NO_COLOR
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
