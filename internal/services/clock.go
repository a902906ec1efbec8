package services

import "time"

// Clock abstracts "now" so payment timestamps and cycle boundaries are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Today truncates a clock reading to midnight local time, the boundary
// used for loan cycles and due-date comparisons.
func Today(c Clock) time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
