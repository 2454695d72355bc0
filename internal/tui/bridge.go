package tui

import (
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/orchestration"
)

// programRef is a shared reference to the tea.Program. The model is copied
// on every Update, so bridge goroutines reach the program through a pointer.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the program. It is a no-op before SetProgram.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TUIProgressReporter implements orchestration.ProgressReporter by
// forwarding aggregated updates to the program.
type TUIProgressReporter struct {
	ref        *programRef
	generation uint64
}

var _ orchestration.ProgressReporter = (*TUIProgressReporter)(nil)

// DisplayProgress drains progressChan and sends a ProgressMsg per update.
func (t *TUIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numLabs int, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numLabs)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}
	for update := range progressChan {
		ap := agg.Update(update)
		t.ref.Send(ProgressMsg{
			Generation:      t.generation,
			LabIndex:        ap.LabIndex,
			Value:           ap.Value,
			AverageProgress: ap.AverageProgress,
			ETA:             ap.ETA,
		})
	}
}

// TUIResultPresenter implements orchestration.ResultPresenter and
// orchestration.ErrorHandler by sending results to the program.
type TUIResultPresenter struct {
	ref        *programRef
	generation uint64
}

var (
	_ orchestration.ResultPresenter = (*TUIResultPresenter)(nil)
	_ orchestration.ErrorHandler    = (*TUIResultPresenter)(nil)
)

// PresentResult sends a LabDoneMsg.
func (t *TUIResultPresenter) PresentResult(res orchestration.LabResult, _ io.Writer) {
	t.ref.Send(LabDoneMsg{Generation: t.generation, Result: res})
}

// PresentComparisonTable is a no-op: the labs panel is the comparison.
func (t *TUIResultPresenter) PresentComparisonTable([]orchestration.LabResult, io.Writer) {}

// HandleError sends a LabErrorMsg and returns the exit code of err.
func (t *TUIResultPresenter) HandleError(lab string, err error, duration time.Duration, _ io.Writer) int {
	if err != nil {
		t.ref.Send(LabErrorMsg{Generation: t.generation, Lab: lab, Err: err, Duration: duration})
	}
	return apperrors.ExitCodeFor(err)
}

// LogLineMsg carries one line written by the run logger.
type LogLineMsg struct {
	Line string
}

// logWriter turns log output into LogLineMsg so that log lines land in the
// events panel instead of the alternate screen.
type logWriter struct {
	ref *programRef
}

func (w logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.ref.Send(LogLineMsg{Line: line})
		}
	}
	return len(p), nil
}
