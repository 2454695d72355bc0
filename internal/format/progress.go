package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxETA caps the estimated remaining time.
const maxETA = 24 * time.Hour

// ProgressState holds the progress of several trackers, one per running lab,
// and computes their average.
type ProgressState struct {
	progresses  []float64
	numTrackers int
}

// NewProgressState returns a state for numTrackers trackers at 0.
func NewProgressState(numTrackers int) *ProgressState {
	return &ProgressState{
		progresses:  make([]float64, numTrackers),
		numTrackers: numTrackers,
	}
}

// Update records value, clamped to [0, 1], for tracker index. Out-of-range
// indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = min(max(value, 0), 1)
	}
}

// CalculateAverage returns the mean progress of all trackers.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numTrackers == 0 {
		return 0.0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numTrackers)
}

// ProgressWithETA extends ProgressState with a smoothed progress rate used
// to estimate the remaining time. UpdateWithETA and ETA are safe for
// concurrent use.
type ProgressWithETA struct {
	*ProgressState
	mu           sync.Mutex
	numTrackers  int
	startTime    time.Time
	progressRate float64 // progress per second
}

// NewProgressWithETA returns a tracker set whose clock starts now.
func NewProgressWithETA(numTrackers int) *ProgressWithETA {
	return &ProgressWithETA{
		ProgressState: NewProgressState(numTrackers),
		numTrackers:   numTrackers,
		startTime:     time.Now(),
	}
}

// UpdateWithETA records value for tracker index and returns the average
// progress together with the estimated remaining time.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Update(index, value)
	progress := p.CalculateAverage()
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 && progress > 0 {
		rate := progress / elapsed
		if p.progressRate == 0 {
			p.progressRate = rate
		} else {
			p.progressRate = 0.7*p.progressRate + 0.3*rate
		}
	}
	return progress, p.eta()
}

// GetETA returns the estimated remaining time, or 0 while no rate is known.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eta()
}

func (p *ProgressWithETA) eta() time.Duration {
	progress := p.CalculateAverage()
	if p.progressRate <= 0 || progress >= 1 {
		return 0
	}
	seconds := (1 - progress) / p.progressRate
	if seconds > maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA renders an estimated remaining time compactly: "45s", "2m30s",
// "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		h, m := int(eta.Hours()), int(eta.Minutes())%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

// ProgressBar renders progress, clamped to [0, 1], as a bar of length cells.
func ProgressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := range length {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

// FormatProgressBarWithETA renders "[bar]  42.0% ETA: 3s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), min(max(progress, 0), 1)*100, FormatETA(eta))
}
