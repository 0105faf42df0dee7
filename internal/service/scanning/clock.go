package scanning

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and schedules session timeouts.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
