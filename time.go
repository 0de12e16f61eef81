package sdfsandbox

import (
	"time"
)

// Time is the frame clock. Dt is the wall time between the last two ticks.
type Time struct {
	Time time.Time
	Dt   time.Duration
}

func NewTime() *Time {
	return &Time{Time: time.Now()}
}

func (t *Time) Tick() time.Duration {
	return t.TickAt(time.Now())
}

// TickAt advances the clock to now. Going backwards yields a zero Dt.
func (t *Time) TickAt(now time.Time) time.Duration {
	t.Dt = now.Sub(t.Time)
	if t.Dt < 0 {
		t.Dt = 0
	}
	t.Time = now
	return t.Dt
}

// Seconds returns Dt in seconds.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}
