// Package helper contains test helpers shared across packages.
package helper

import (
	"time"
)

// FixedTime returns a stable UTC instant for arranging test data.
func FixedTime() time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock function that always answers FixedTime.
func FixedClock() func() time.Time {
	return FixedTime
}
