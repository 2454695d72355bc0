package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/reduce"
	"github.com/agbru/parreduce/internal/workload"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	p := workload.DefaultParams()
	p.Workers = 2
	p.Terms = 1000
	m := NewModel(context.Background(), []workload.Lab{workload.Series{}, workload.ColMax{}}, p, orchestration.Options{}, Config{Timeout: time.Minute})
	t.Cleanup(m.cancel)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ViewAfterResize(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "Initializing...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, want := range []string{"parreduce dashboard", "LABS", "EVENTS", "RUNTIME", "series", "colmax", "RUNNING"} {
		assert.Contains(t, view, want)
	}
}

func TestModel_ProgressAndResults(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, ProgressMsg{LabIndex: 0, Value: 0.4, AverageProgress: 0.2})
	assert.Equal(t, StatusRunning, m.labs.Status("series"))

	m, _ = update(t, m, ProgressMsg{Generation: 7, LabIndex: 1, Value: 0.5})
	assert.Equal(t, StatusPending, m.labs.Status("colmax"), "stale generation must be ignored")

	before := m.logs.Lines()
	m, _ = update(t, m, LabDoneMsg{Result: orchestration.LabResult{
		Lab:     "series",
		Outcome: workload.Outcome{Lab: "series", Verdict: reduce.VerdictMatch, SequentialTime: 2 * time.Millisecond, ParallelTime: time.Millisecond},
	}})
	assert.Equal(t, StatusMatch, m.labs.Status("series"))
	assert.Equal(t, before+1, m.logs.Lines())

	m, _ = update(t, m, LabErrorMsg{Lab: "colmax", Err: errors.New("boom")})
	assert.Equal(t, StatusFailed, m.labs.Status("colmax"))
	assert.Equal(t, "RUNNING", m.footer.Status())

	m, _ = update(t, m, RunCompleteMsg{ExitCode: apperrors.ExitErrorGeneric})
	assert.Equal(t, "FAILED", m.footer.Status())
	assert.Equal(t, apperrors.ExitErrorGeneric, m.ExitCode())

	_, cmd := update(t, m, TickMsg(time.Now()))
	assert.Nil(t, cmd, "sampling stops once the run is done")
}

func TestModel_MismatchStatus(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, LabDoneMsg{Result: orchestration.LabResult{
		Lab:     "series",
		Outcome: workload.Outcome{Lab: "series", Verdict: reduce.VerdictToleranceExceeded, Delta: 0.5},
	}})
	assert.Equal(t, StatusMismatch, m.labs.Status("series"))
}

func TestModel_PauseAndRerun(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runeKey("p"))
	assert.True(t, m.paused)
	assert.Equal(t, "PAUSED", m.footer.Status())

	m, _ = update(t, m, ProgressMsg{LabIndex: 0, Value: 0.5})
	assert.Equal(t, StatusPending, m.labs.Status("series"), "progress is frozen while paused")

	m, _ = update(t, m, RunCompleteMsg{ExitCode: 0})
	oldCtx := m.ctx
	m, cmd := update(t, m, runeKey("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, uint64(1), m.generation)
	assert.False(t, m.done)
	assert.False(t, m.paused)
	assert.Error(t, oldCtx.Err(), "rerun cancels the previous run")
	assert.NoError(t, m.ctx.Err())

	m, _ = update(t, m, RunCompleteMsg{Generation: 0, ExitCode: 3})
	assert.False(t, m.done, "completion of the previous run is ignored")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	m, cmd := update(t, m, runeKey("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())
}

func TestModel_ContextCancelledQuits(t *testing.T) {
	m := newTestModel(t)
	m, cmd := update(t, m, ContextCancelledMsg{Err: context.Canceled})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.done)
}

func TestStartRunCmd(t *testing.T) {
	p := workload.DefaultParams()
	p.Workers = 2
	p.Terms = 1000
	cmd := startRunCmd(&programRef{}, context.Background(), []workload.Lab{workload.Series{}}, p, orchestration.Options{}, false, 4)

	msg, ok := cmd().(RunCompleteMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(4), msg.Generation)
	assert.Equal(t, apperrors.ExitSuccess, msg.ExitCode)
}

func TestLabStatus_String(t *testing.T) {
	names := make([]string, 0, 5)
	for s := StatusPending; s <= StatusFailed; s++ {
		names = append(names, s.String())
	}
	assert.Equal(t, "pending running match mismatch failed", strings.Join(names, " "))
}
