package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ms maps millisecond offsets onto timestamps, for bounce-scale scenarios.
func ms(n int) time.Time {
	return start.Add(time.Duration(n) * time.Millisecond)
}

func TestButtonPressRecognizedOnRelease(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	assert.False(t, b.Edge(false, ms(0)), "finger down is not yet a press")
	assert.True(t, b.Edge(true, ms(400)), "release completes the press")
}

func TestButtonHeldFiresOnce(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	b.Edge(false, ms(0))
	assert.True(t, b.Edge(true, ms(5000)), "release after a long hold is one press")
	assert.False(t, b.Edge(true, ms(10000)), "no second press without a new press-down")
}

func TestButtonIgnoresContactBounce(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	// Bounce after finger down: the brief release must not register.
	b.Edge(false, ms(0))
	assert.False(t, b.Edge(true, ms(5)))
	assert.False(t, b.Edge(false, ms(12)))

	// Real release later is the one press.
	assert.True(t, b.Edge(true, ms(600)))

	// Bounce after release must not re-trigger.
	assert.False(t, b.Edge(false, ms(608)))
	assert.False(t, b.Edge(true, ms(615)))
}

func TestButtonTooShortTapIsSwallowed(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	b.Edge(false, ms(0))
	assert.False(t, b.Edge(true, ms(80)), "tap shorter than the refractory window")
}

func TestButtonStrayReleaseIgnored(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	// Booted with the button already held: the first edge seen is a release.
	assert.False(t, b.Edge(true, ms(0)))
	// A normal cycle afterwards works.
	b.Edge(false, ms(500))
	assert.True(t, b.Edge(true, ms(900)))
}

func TestButtonRepeatedPresses(t *testing.T) {
	b := NewButton(250 * time.Millisecond)

	presses := 0
	for i := 0; i < 4; i++ {
		base := i * 1000
		b.Edge(false, ms(base))
		if b.Edge(true, ms(base+400)) {
			presses++
		}
	}
	assert.Equal(t, 4, presses)
}
