package input

import "time"

// EventKind classifies what a Toggle observed.
type EventKind int

const (
	// Confirmed means the switch was held in its new position for the full
	// hold window; the intent should now be acted on.
	Confirmed EventKind = iota
	// Cancelled means the switch reverted before the window elapsed; the
	// pending intent is discarded.
	Cancelled
)

func (k EventKind) String() string {
	if k == Confirmed {
		return "confirmed"
	}
	return "cancelled"
}

// Event is the outcome of one pending switch change.
type Event struct {
	Kind EventKind
	// Position is the target position the change was about (true = ON).
	Position bool
}

// Toggle tracks one panel switch and turns a held position change into a
// single confirmed intent. A flip arms the machine; the new position must
// then be observed continuously for the hold window before Confirmed fires.
// Any sample back at the accepted position cancels the pending change.
//
// The first sample only establishes the baseline, so the switch position at
// boot never triggers a relay write by itself.
type Toggle struct {
	hold time.Duration

	baselined    bool
	accepted     bool // position the operator last confirmed (or boot baseline)
	armed        bool
	pending      bool // target position while armed
	pendingSince time.Time
}

// NewToggle creates a machine requiring the given continuous hold.
func NewToggle(hold time.Duration) *Toggle {
	return &Toggle{hold: hold}
}

// Update feeds one sampled position. It returns at most one event, and
// Confirmed is returned exactly once per completed hold.
func (t *Toggle) Update(position bool, now time.Time) (Event, bool) {
	if !t.baselined {
		t.baselined = true
		t.accepted = position
		return Event{}, false
	}

	if !t.armed {
		if position != t.accepted {
			t.armed = true
			t.pending = position
			t.pendingSince = now
		}
		return Event{}, false
	}

	if position != t.pending {
		t.armed = false
		return Event{Kind: Cancelled, Position: t.pending}, true
	}

	if now.Sub(t.pendingSince) >= t.hold {
		t.armed = false
		t.accepted = position
		return Event{Kind: Confirmed, Position: position}, true
	}

	return Event{}, false
}

// Position returns the last accepted switch position.
func (t *Toggle) Position() bool {
	return t.accepted
}

// Baselined reports whether the boot position has been observed yet.
func (t *Toggle) Baselined() bool {
	return t.baselined
}

// Pending reports the armed target position and how much hold time remains.
func (t *Toggle) Pending(now time.Time) (target bool, remaining time.Duration, armed bool) {
	if !t.armed {
		return false, 0, false
	}
	remaining = t.hold - now.Sub(t.pendingSince)
	if remaining < 0 {
		remaining = 0
	}
	return t.pending, remaining, true
}
