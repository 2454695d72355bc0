// Package config parses and validates the command-line configuration.
//
// Values are resolved in priority order: CLI flags, then PARREDUCE_*
// environment variables, then adaptive defaults derived from the host.
package config

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/ui"
	"github.com/agbru/parreduce/internal/workload"
)

// EnvPrefix is prepended to every environment variable the configuration
// reads.
const EnvPrefix = "PARREDUCE_"

// AppConfig holds every option of a parreduce invocation.
type AppConfig struct {
	// Lab is a registered lab name or "all".
	Lab string
	// Workers is the worker count of the parallel path. Zero selects
	// EstimateWorkers.
	Workers int
	// Policy is "default", "block" or "strided".
	Policy  string
	Timeout time.Duration
	Seed    uint64
	// Epsilon is the float tolerance; zero selects a rounding bound.
	Epsilon float64
	Repeat  int

	Rows, Cols int
	Size       int
	Func       string
	A, B       float64
	Intervals  int
	Lower      float64
	Precision  float64
	Strings    int
	Length     int
	Vertices   int
	Terms      int

	PersistentPool bool
	Strict         bool
	Interactive    bool
	TUI            bool
	Quiet          bool
	Verbose        bool
	NoColor        bool
	Theme          string
	LogLevel       string
	OutputFile     string
	MetricsFile    string
	Serve          string
	List           bool

	// labs are the names accepted by --lab besides "all".
	labs []string
}

// ParseConfig parses args into an AppConfig, applies environment overrides
// and adaptive defaults, and validates the result. Usage and parse errors are
// written to errWriter. availableLabs lists the names accepted by --lab.
func ParseConfig(programName string, args []string, errWriter io.Writer, availableLabs []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	d := workload.DefaultParams()
	cfg := AppConfig{labs: availableLabs}

	fs.StringVar(&cfg.Lab, "lab", "all", fmt.Sprintf("Lab to run: %s, or all.", strings.Join(availableLabs, ", ")))
	fs.IntVar(&cfg.Workers, "workers", 0, "Workers of the parallel path (0 = number of CPUs).")
	fs.StringVar(&cfg.Policy, "policy", "default", "Partitioning policy: default, block or strided.")
	fs.DurationVar(&cfg.Timeout, "timeout", 5*time.Minute, "Maximum duration of the whole run.")
	fs.Uint64Var(&cfg.Seed, "seed", d.Seed, "Seed of the random lab inputs.")
	fs.Float64Var(&cfg.Epsilon, "epsilon", 0, "Absolute tolerance of float labs (0 = rounding bound).")
	fs.IntVar(&cfg.Repeat, "repeat", d.Repeat, "Runs per path; the fastest is kept.")

	fs.IntVar(&cfg.Rows, "rows", d.Rows, "colmax: matrix rows.")
	fs.IntVar(&cfg.Cols, "cols", d.Cols, "colmax: matrix columns.")
	fs.IntVar(&cfg.Size, "size", d.Size, "diagmax: square matrix size.")
	fs.StringVar(&cfg.Func, "func", d.Func, "rect: function name or menu number (1-6).")
	fs.Float64Var(&cfg.A, "a", d.A, "rect: lower limit.")
	fs.Float64Var(&cfg.B, "b", d.B, "rect: upper limit.")
	fs.IntVar(&cfg.Intervals, "intervals", d.Intervals, "rect, simpson: number of intervals.")
	fs.Float64Var(&cfg.Lower, "lower", d.Lower, "simpson: lower limit, the upper limit is 1.")
	fs.Float64Var(&cfg.Precision, "precision", d.Precision, "simpson: series truncation precision.")
	fs.IntVar(&cfg.Strings, "strings", d.Strings, "digits: number of strings.")
	fs.IntVar(&cfg.Length, "length", d.Length, "digits: length of each string.")
	fs.IntVar(&cfg.Vertices, "vertices", d.Vertices, "shoelace: polygon vertices.")
	fs.IntVar(&cfg.Terms, "terms", d.Terms, "series: number of terms.")

	fs.BoolVar(&cfg.PersistentPool, "persistent-pool", false, "Reuse one worker pool across labs and repeats.")
	fs.BoolVar(&cfg.Strict, "strict", false, "Exit with a non-zero status when a lab reports a mismatch.")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Prompt for lab parameters on the terminal.")
	fs.BoolVar(&cfg.TUI, "tui", false, "Run the labs in a live terminal dashboard.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the verdict lines.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Print lab details and generated data.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output (NO_COLOR is honored too).")
	fs.StringVar(&cfg.Theme, "theme", "dark", "Color theme: "+strings.Join(ui.ThemeNames(), ", ")+".")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error.")
	fs.StringVar(&cfg.OutputFile, "output", "", "Write a plain-text report to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Shorthand for --output.")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file.")
	fs.StringVar(&cfg.Serve, "serve", "", "Serve labs over HTTP on this address instead of running them.")
	fs.BoolVar(&cfg.List, "list", false, "List the available labs and exit.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		err := apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg, fs)
	cfg = ApplyAdaptiveDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the options that do not belong to a single lab. Lab
// parameters are validated by the labs themselves.
func (c AppConfig) Validate() error {
	lab := strings.ToLower(strings.TrimSpace(c.Lab))
	if lab != "all" && len(c.labs) > 0 && !slices.Contains(c.labs, lab) {
		return apperrors.NewConfigError("unknown lab %q (available: %s, all)", c.Lab, strings.Join(c.labs, ", "))
	}
	if c.Workers < 1 {
		return apperrors.NewConfigError("--workers must be at least 1, got %d", c.Workers)
	}
	switch strings.ToLower(c.Policy) {
	case "default", "block", "strided", "round-robin":
	default:
		return apperrors.NewConfigError("--policy must be default, block or strided, got %q", c.Policy)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("--timeout must be positive, got %s", c.Timeout)
	}
	if c.Epsilon < 0 {
		return apperrors.NewConfigError("--epsilon must not be negative, got %g", c.Epsilon)
	}
	if c.Repeat < 1 {
		return apperrors.NewConfigError("--repeat must be at least 1, got %d", c.Repeat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewConfigError("--log-level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if _, ok := ui.LookupTheme(c.Theme); c.Theme != "" && !ok {
		return apperrors.NewConfigError("--theme must be one of %s, got %q", strings.Join(ui.ThemeNames(), ", "), c.Theme)
	}
	if c.Quiet && c.Interactive {
		return apperrors.NewConfigError("--quiet and --interactive cannot be combined")
	}
	if c.TUI && (c.Quiet || c.Interactive || c.Serve != "") {
		return apperrors.NewConfigError("--tui cannot be combined with --quiet, --interactive or --serve")
	}
	return nil
}

// WithLabs returns a copy of c accepting names for --lab. It is meant for
// configurations built without ParseConfig.
func (c AppConfig) WithLabs(names []string) AppConfig {
	c.labs = names
	return c
}

// Params converts the configuration to lab parameters.
func (c AppConfig) Params() workload.Params {
	policy := c.Policy
	if strings.EqualFold(policy, "default") {
		policy = ""
	}
	return workload.Params{
		Workers:   c.Workers,
		Policy:    policy,
		Seed:      c.Seed,
		Epsilon:   c.Epsilon,
		Repeat:    c.Repeat,
		Verbose:   c.Verbose,
		Rows:      c.Rows,
		Cols:      c.Cols,
		Size:      c.Size,
		Func:      c.Func,
		A:         c.A,
		B:         c.B,
		Intervals: c.Intervals,
		Lower:     c.Lower,
		Precision: c.Precision,
		Strings:   c.Strings,
		Length:    c.Length,
		Vertices:  c.Vertices,
		Terms:     c.Terms,
	}
}
