package chip8

import "time"

// Timer converts variable time deltas into a periodic fired signal.
type Timer struct {
	accumulated time.Duration
	period      time.Duration
}

// NewTimer returns a zeroed timer that fires once per period.
func NewTimer(period time.Duration) Timer {
	return Timer{period: period}
}

// Check adds delta to the accumulated time and reports whether the period
// elapsed. A fired timer restarts from zero, any excess time is dropped.
func (t *Timer) Check(delta time.Duration) bool {
	t.accumulated += delta
	if t.accumulated >= t.period {
		t.accumulated = 0
		return true
	}
	return false
}

// Period returns the configured period of the timer.
func (t *Timer) Period() time.Duration {
	return t.period
}

func (t *Timer) reset() {
	t.accumulated = 0
}
