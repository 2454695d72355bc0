package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration renders a reduction time in the largest unit that
// keeps it above one: "750ns", "42µs", "12ms". Durations of a second or more
// are rounded to the millisecond.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(time.Millisecond).String()
	}
}
