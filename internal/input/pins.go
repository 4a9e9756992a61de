// Package input turns the operator panel, two toggle switches and one push
// button, into debounced intents for the control loop.
//
// Toggle switches are level-sampled once per tick and fed through a
// hold-to-confirm machine, so a knocked switch never fires a relay. The push
// button is edge-driven: raw edges from the GPIO event handler run through a
// software debouncer that recognizes one press per release, with a refractory
// window absorbing contact chatter.
package input

// Pins reads the operator panel hardware. The real implementation uses the
// Linux GPIO character device; the fake allows testing without hardware.
type Pins interface {
	// ReadToggles returns the logical positions of the generator and
	// multiplus switches (true = ON position).
	ReadToggles() (generator, multiplus bool, err error)

	// Presses delivers one element per debounced button press. The
	// channel is buffered; the control loop drains it once per tick.
	Presses() <-chan struct{}

	// Close releases the GPIO lines.
	Close() error
}

// DrainPresses empties the press channel without blocking and reports how
// many presses arrived since the previous drain.
func DrainPresses(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}
