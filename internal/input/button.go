package input

import "time"

// Button turns raw contact transitions into completed presses. A press is
// recognized once, on release, so holding the button down does not repeat.
// Transitions inside the refractory window of the last accepted one are
// contact bounce and are ignored.
type Button struct {
	refractory time.Duration
	down       bool
	last       time.Time
}

// NewButton creates a debouncer with the given refractory window.
func NewButton(refractory time.Duration) *Button {
	return &Button{refractory: refractory}
}

// Edge feeds one hardware transition. rising is the physical line level
// change; with a pull-up and switch-to-ground wiring, finger down is a
// falling edge and release is rising. It returns true when a completed
// press is recognized.
func (b *Button) Edge(rising bool, at time.Time) bool {
	if !b.last.IsZero() && at.Sub(b.last) < b.refractory {
		return false
	}
	b.last = at

	if !rising {
		b.down = true
		return false
	}
	// Rising without a preceding accepted press-down is a stray release
	// (boot with the button held, or noise); swallow it.
	if !b.down {
		return false
	}
	b.down = false
	return true
}
