package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// String renders the timestamp in the ISO-8601 form persisted by the stores
func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339Nano)
}

// Clock returns the current time. Analytic components take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}
