package modules

import "time"

// Timer is a handle to a deferred call.
type Timer interface {
	// Stop prevents the call from firing. It returns false if the call
	// already fired or was stopped before.
	Stop() bool
}

// Timers schedules deferred calls.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemTimers struct{}

func (systemTimers) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemTimers schedules deferred calls with the runtime timers. Each call
// runs in its own goroutine.
var SystemTimers Timers = systemTimers{}
