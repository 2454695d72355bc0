package orchestration

import (
	"time"

	"github.com/agbru/parreduce/internal/format"
)

// ProgressAggregator manages multi-lab progress aggregation. It wraps
// format.ProgressWithETA and provides a higher-level API for consuming
// progress updates from a channel.
type ProgressAggregator struct {
	state   *format.ProgressWithETA
	numLabs int
}

// NewProgressAggregator creates a new aggregator for the given number of
// labs. Returns nil if numLabs <= 0.
func NewProgressAggregator(numLabs int) *ProgressAggregator {
	if numLabs <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:   format.NewProgressWithETA(numLabs),
		numLabs: numLabs,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// LabIndex is the index of the lab that sent the update.
	LabIndex int
	// Value is the raw progress value from the update (0.0 to 1.0).
	Value float64
	// AverageProgress is the aggregated average across all labs.
	AverageProgress float64
	// ETA is the estimated time remaining based on smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	avg, eta := a.state.UpdateWithETA(update.LabIndex, update.Value)
	return AggregatedProgress{
		LabIndex:        update.LabIndex,
		Value:           update.Value,
		AverageProgress: avg,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumLabs returns the number of labs being tracked.
func (a *ProgressAggregator) NumLabs() int {
	return a.numLabs
}

// IsMultiLab returns true if tracking more than one lab.
func (a *ProgressAggregator) IsMultiLab() bool {
	return a.numLabs > 1
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
