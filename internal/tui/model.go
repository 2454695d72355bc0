// Package tui is a terminal dashboard that runs labs and shows their live
// progress, verdicts and the runtime load of the process.
package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/sysmon"
	"github.com/agbru/parreduce/internal/workload"
)

// Layout constants for the dashboard.
const (
	headerHeight       = 1
	footerHeight       = 1
	minBodyHeight      = 8
	LeftPanelPercent   = 62
	SampleInterval     = 500 * time.Millisecond
	metricsPanelHeight = 9
)

// Config holds the run settings of a dashboard session.
type Config struct {
	// Timeout bounds each run; reruns get a fresh timeout.
	Timeout time.Duration
	// Strict turns a mismatch into a failing exit code.
	Strict bool
	// LogLevel filters the lines shown in the events panel.
	LogLevel string
	// RunID tags log lines.
	RunID   string
	Version string
}

// ExecutionState holds the run-related fields of a session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	toRun      []workload.Lab
	generation uint64
	done       bool
	exitCode   int
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	header  HeaderModel
	labs    LabsModel
	logs    LogsModel
	metrics MetricsModel
	footer  FooterModel
	keymap  KeyMap

	ExecutionState

	width  int
	height int

	parentCtx context.Context
	params    workload.Params
	opts      orchestration.Options
	config    Config
	ref       *programRef
	paused    bool
}

// NewModel creates a dashboard for labs. It does not start the run; Init
// does.
func NewModel(parentCtx context.Context, labs []workload.Lab, p workload.Params, opts orchestration.Options, cfg Config) Model {
	keymap := DefaultKeyMap()
	m := Model{
		header:    NewHeaderModel(cfg.Version),
		labs:      NewLabsModel(labs),
		logs:      NewLogsModel(),
		metrics:   NewMetricsModel(),
		footer:    NewFooterModel(keymap),
		keymap:    keymap,
		parentCtx: parentCtx,
		params:    p,
		opts:      opts,
		config:    cfg,
		ref:       &programRef{},
	}
	m.ExecutionState = ExecutionState{toRun: labs, exitCode: apperrors.ExitSuccess}
	m.ctx, m.cancel = m.runContext()
	m.logs.Add(fmt.Sprintf("%d lab(s), %d workers, policy %s", len(labs), p.Workers, policyLabel(p.Policy)))
	return m
}

func (m Model) runContext() (context.Context, context.CancelFunc) {
	if m.config.Timeout > 0 {
		return context.WithTimeout(m.parentCtx, m.config.Timeout)
	}
	return context.WithCancel(m.parentCtx)
}

// Init starts sampling, the first run and the parent context watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startRunCmd(m.ref, m.ctx, m.toRun, m.params, m.opts, m.config.Strict, m.generation),
		watchContextCmd(m.parentCtx),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case ProgressMsg:
		if msg.Generation != m.generation || m.paused {
			return m, nil
		}
		m.labs.UpdateProgress(msg.LabIndex, msg.Value)
		m.metrics.UpdateProgress(msg.AverageProgress, msg.ETA)
		return m, nil

	case LabDoneMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.labs.SetResult(msg.Result)
		o := msg.Result.Outcome
		line := fmt.Sprintf("%s %s: parallel %s in %s, %.2fx", o.Lab, o.Verdict, o.Parallel,
			o.ParallelTime.Round(time.Microsecond), o.Speedup())
		if o.Match() {
			m.logs.Add(successStyle.Render("✓ ") + line)
		} else {
			m.logs.Add(warningStyle.Render("! ") + line + fmt.Sprintf(" (Δ=%.3g)", o.Delta))
		}
		return m, nil

	case LabErrorMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.labs.SetFailed(msg.Lab, msg.Duration)
		m.logs.Add(errorStyle.Render("✗ ") + fmt.Sprintf("%s: %v", msg.Lab, msg.Err))
		m.footer.SetFailed(true)
		return m, nil

	case LogLineMsg:
		m.logs.Add(dimStyle.Render(msg.Line))
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.header.SetDone()
		m.footer.SetDone(true)
		m.metrics.UpdateProgress(1, 0)
		m.logs.Add(fmt.Sprintf("run finished with exit code %d", msg.ExitCode))
		return m, nil

	case ContextCancelledMsg:
		m.cancel()
		m.done = true
		m.header.SetDone()
		m.footer.SetDone(true)
		return m, tea.Quit

	case TickMsg:
		if m.done {
			return m, nil
		}
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(sampleMemStatsCmd(), sampleSysStatsCmd(), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.metrics.UpdateSysStats(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		return m.rerun()

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.logs.Update(msg)
		return m, nil
	}
	return m, nil
}

// rerun cancels the current run and starts a new generation.
func (m Model) rerun() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	m.ctx, m.cancel = m.runContext()

	m.header.Reset()
	m.labs.Reset()
	m.metrics.Reset()
	m.footer.SetDone(false)
	m.footer.SetFailed(false)
	m.footer.SetPaused(false)
	m.done = false
	m.paused = false
	m.exitCode = apperrors.ExitSuccess
	m.logs.Add("rerun requested")

	return m, tea.Batch(
		tickCmd(),
		startRunCmd(m.ref, m.ctx, m.toRun, m.params, m.opts, m.config.Strict, m.generation),
	)
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	left := lipgloss.JoinVertical(lipgloss.Left, m.labs.View(), m.logs.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, m.metrics.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	body := max(m.height-headerHeight-footerHeight, minBodyHeight)
	leftWidth := m.width * LeftPanelPercent / 100
	labsHeight := min(len(m.toRun)+3, body/2)

	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.labs.SetSize(leftWidth, labsHeight)
	m.logs.SetSize(leftWidth, body-labsHeight)
	m.metrics.SetSize(m.width-leftWidth, min(metricsPanelHeight, body))
}

// ExitCode returns the exit code of the last completed run.
func (m Model) ExitCode() int { return m.exitCode }

// Run starts the dashboard on the alternate screen and returns the exit code
// of the last run.
func Run(ctx context.Context, labs []workload.Lab, p workload.Params, opts orchestration.Options, cfg Config) int {
	initStyles()

	ref := &programRef{}
	logger := logging.NewZerologAdapter(zerolog.New(zerolog.ConsoleWriter{
		Out:        logWriter{ref: ref},
		NoColor:    true,
		TimeFormat: "15:04:05",
	}).Level(logging.ParseLevel(cfg.LogLevel)).With().Timestamp().Logger())
	if cfg.RunID != "" {
		logger = logger.With(logging.String("run_id", cfg.RunID))
	}
	opts.Logger = logger

	model := NewModel(ctx, labs, p, opts, cfg)
	model.ref = ref

	prog := tea.NewProgram(model, tea.WithAltScreen())
	ref.SetProgram(prog)

	finalModel, err := prog.Run()
	if err != nil {
		model.cancel()
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// startRunCmd runs the labs through the orchestration layer and reports the
// results through the bridge.
func startRunCmd(ref *programRef, ctx context.Context, labs []workload.Lab, p workload.Params, opts orchestration.Options, strict bool, gen uint64) tea.Cmd {
	return func() tea.Msg {
		reporter := &TUIProgressReporter{ref: ref, generation: gen}
		presenter := &TUIResultPresenter{ref: ref, generation: gen}
		results := orchestration.ExecuteLabs(ctx, labs, p, opts, reporter, io.Discard)
		code := orchestration.AnalyzeResults(results, orchestration.AnalysisOptions{Strict: strict}, presenter, presenter, io.Discard)
		return RunCompleteMsg{Generation: gen, ExitCode: code}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(SampleInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

var memory metrics.MemoryCollector

func sampleMemStatsCmd() tea.Cmd {
	return func() tea.Msg {
		snap := memory.Snapshot()
		return MemStatsMsg{
			HeapAlloc:    snap.HeapAlloc,
			HeapSys:      snap.HeapSys,
			NumGC:        snap.NumGC,
			PauseTotalNs: snap.PauseTotalNs,
			NumGoroutine: snap.Goroutines,
		}
	}
}

func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		s := sysmon.Sample()
		return SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent}
	}
}

// watchContextCmd quits the dashboard when the session context is done.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}

func policyLabel(policy string) string {
	if policy == "" {
		return "default"
	}
	return policy
}
