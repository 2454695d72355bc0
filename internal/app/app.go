// Package app wires the configuration, the lab registry and the output
// layers into a parreduce invocation.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/agbru/parreduce/internal/cli"
	"github.com/agbru/parreduce/internal/config"
	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/reduce"
	"github.com/agbru/parreduce/internal/server"
	"github.com/agbru/parreduce/internal/tui"
	"github.com/agbru/parreduce/internal/ui"
	"github.com/agbru/parreduce/internal/workload"
)

// Application represents the parreduce application instance.
type Application struct {
	Config    config.AppConfig
	Registry  *workload.Registry
	ErrWriter io.Writer
	// In feeds the interactive session.
	In io.Reader
	// RunID identifies this invocation in logs and reports.
	RunID string
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithRegistry sets the labs the application can run.
func WithRegistry(r *workload.Registry) AppOption {
	return func(a *Application) { a.Registry = r }
}

// WithInput sets the reader of the interactive session.
func WithInput(in io.Reader) AppOption {
	return func(a *Application) { a.In = in }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, In: os.Stdin, RunID: uuid.NewString()}
	for _, opt := range opts {
		opt(app)
	}
	if app.Registry == nil {
		app.Registry = workload.Default()
	}

	programName := "parreduce"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, app.Registry.Names())
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.Theme, a.Config.NoColor)

	if a.Config.List {
		cli.PrintLabList(a.Registry.List(), out)
		return apperrors.ExitSuccess
	}

	opts, cleanup, err := a.resources()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	defer cleanup()

	switch {
	case a.Config.Serve != "":
		return a.runServer(ctx, opts, out)
	case a.Config.Interactive:
		return a.runREPL(ctx, opts, out)
	case a.Config.TUI:
		return a.runTUI(ctx, opts)
	default:
		return a.runLabs(ctx, opts, out)
	}
}

// resources builds the logger, the metrics registry and the optional
// persistent pool shared by every lab of the run.
func (a *Application) resources() (orchestration.Options, func(), error) {
	logger := logging.NewLeveledLogger(a.ErrWriter, "parreduce", a.Config.LogLevel).
		With(logging.String("run_id", a.RunID))
	opts := orchestration.Options{Logger: logger, Metrics: metrics.New()}
	if !a.Config.PersistentPool {
		return opts, func() {}, nil
	}
	pool, err := reduce.NewPool(a.Config.Workers)
	if err != nil {
		return opts, nil, err
	}
	opts.Pool = pool
	return opts, pool.Close, nil
}

// runServer serves the labs over HTTP until interrupted.
func (a *Application) runServer(ctx context.Context, opts orchestration.Options, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	srv := server.New(a.Registry, a.Config.Params(), opts, server.Config{
		Addr:     a.Config.Serve,
		Timeout:  a.Config.Timeout,
		Security: server.DefaultSecurityConfig(),
	})
	if !a.Config.Quiet {
		fmt.Fprintf(out, "Serving %d labs on %s%s%s (Ctrl+C to stop).\n",
			len(a.Registry.Names()), ui.ColorCyan(), a.Config.Serve, ui.ColorReset())
	}
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runREPL starts the interactive session.
func (a *Application) runREPL(ctx context.Context, opts orchestration.Options, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	opts.Logger = logging.NewStdLoggerAdapter(log.New(a.ErrWriter, "", log.Ltime)).WithLevel(a.Config.LogLevel)
	repl := cli.NewREPL(a.Registry, a.Config.Params(), cli.REPLConfig{
		Timeout: a.Config.Timeout,
		Options: opts,
		Verbose: a.Config.Verbose,
	})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	return repl.Start(ctx)
}

// runTUI runs the selected labs in the terminal dashboard.
func (a *Application) runTUI(ctx context.Context, opts orchestration.Options) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	labs, err := a.Registry.Select(a.Config.Lab)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return tui.Run(ctx, labs, a.Config.Params(), opts, tui.Config{
		Timeout:  a.Config.Timeout,
		Strict:   a.Config.Strict,
		LogLevel: a.Config.LogLevel,
		RunID:    a.RunID,
		Version:  Version,
	})
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
