// Package display drives the installation's SH1106 OLED panel over I2C.
// The real driver needs hardware; the fake records frames for tests.
package display

import "github.com/hbraak/solar-display/internal/screen"

// Device shows rendered frames.
type Device interface {
	// Show pushes one full frame to the panel.
	Show(f *screen.Frame) error

	// Close blanks the panel and releases the bus.
	Close() error
}
