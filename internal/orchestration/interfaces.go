package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/parreduce/internal/workload"
)

// LabResult encapsulates the outcome of a single lab run. It is the shared
// domain type between orchestration and presentation layers.
type LabResult struct {
	// Lab is the registered name of the lab.
	Lab string
	// Outcome holds both reduction results and the verdict. It is the zero
	// value if an error occurred.
	Outcome workload.Outcome
	// Duration is the wall-clock time of the whole lab, data generation and
	// both paths included.
	Duration time.Duration
	// Err contains any error that occurred during the run.
	Err error
}

// ProgressUpdate reports the estimated completion of one lab.
type ProgressUpdate struct {
	// LabIndex is the position of the lab in the run.
	LabIndex int
	// Value is in [0, 1]; 1 means the lab has finished.
	Value float64
}

// ProgressReporter defines the interface for displaying run progress.
//
// Implementations handle the visual representation of progress (spinners,
// progress bars, etc.) while the orchestration layer focuses on running the
// labs.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numLabs int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numLabs int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numLabs int, out io.Writer) {
	f(wg, progressChan, numLabs, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting lab outcomes.
type ResultPresenter interface {
	// PresentResult displays the outcome of one successful lab.
	PresentResult(result LabResult, out io.Writer)
	// PresentComparisonTable displays one summary row per lab.
	PresentComparisonTable(results []LabResult, out io.Writer)
}

// ErrorHandler handles lab errors and returns exit codes.
type ErrorHandler interface {
	HandleError(lab string, err error, duration time.Duration, out io.Writer) int
}
