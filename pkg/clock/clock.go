// Package clock abstracts the wall clock so time-driven logic (reservation
// windows, expiry sweeps) can be tested without sleeping.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns a Clock backed by time.Now in UTC.
func System() Clock {
	return systemClock{}
}
