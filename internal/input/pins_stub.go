//go:build !linux

package input

import (
	"errors"
	"time"
)

// PinConfig names the GPIO lines of the operator panel (BCM numbering).
type PinConfig struct {
	Chip      string
	Generator int
	Multiplus int
	Button    int
	Debounce  time.Duration
}

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(PinConfig) (*RealPins, error) {
	return nil, errors.New("input: not supported on this platform (requires Linux)")
}

func (p *RealPins) ReadToggles() (bool, bool, error) {
	return false, false, errors.New("input: not supported")
}

func (p *RealPins) Presses() <-chan struct{} {
	return nil
}

func (p *RealPins) Close() error {
	return nil
}
