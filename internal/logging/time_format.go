package logging

import "time"

const (
	// consoleClockLayout prefixes console lines.
	consoleClockLayout = "15:04:05.000"
	// valueTimestampLayout renders time-valued attributes.
	valueTimestampLayout = "2006-01-02 15:04:05"
	// jsonTimestampLayout is RFC 3339 in UTC with millisecond precision.
	jsonTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

func formatClock(ts time.Time) string {
	if ts.IsZero() {
		return "--:--:--.---"
	}
	return ts.In(time.Local).Format(consoleClockLayout)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(valueTimestampLayout)
}

// durationSeconds reports d in seconds rounded to the millisecond.
func durationSeconds(d time.Duration) float64 {
	return d.Round(time.Millisecond).Seconds()
}
