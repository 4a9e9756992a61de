//go:build linux

package input

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// pressBuffer bounds how many unhandled presses may queue between ticks.
// Extra presses beyond that are dropped, which at a 1 s tick means someone
// is hammering the button anyway.
const pressBuffer = 8

// PinConfig names the GPIO lines of the operator panel (BCM numbering).
type PinConfig struct {
	Chip      string
	Generator int
	Multiplus int
	Button    int
	// Debounce is the refractory window of the button debouncer.
	Debounce time.Duration
}

// RealPins reads the panel from actual hardware using the Linux GPIO
// character device. All three lines are wired switch-to-ground, so they are
// requested with pull-ups and read active-low.
type RealPins struct {
	chip      *gpiocdev.Chip
	generator *gpiocdev.Line
	multiplus *gpiocdev.Line
	button    *gpiocdev.Line
	presses   chan struct{}
}

// NewRealPins requests the panel lines. The button line is registered for
// both edges; completed presses land on the press channel.
func NewRealPins(cfg PinConfig) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	generator, err := chip.RequestLine(cfg.Generator, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request generator switch pin %d: %w", cfg.Generator, err)
	}

	multiplus, err := chip.RequestLine(cfg.Multiplus, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		generator.Close()
		chip.Close()
		return nil, fmt.Errorf("request multiplus switch pin %d: %w", cfg.Multiplus, err)
	}

	presses := make(chan struct{}, pressBuffer)
	debouncer := NewButton(cfg.Debounce)
	button, err := chip.RequestLine(cfg.Button,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		// The handler runs on the line's event goroutine; the debouncer
		// is only ever touched there. Event timestamps are kernel
		// monotonic, only their differences matter.
		gpiocdev.WithEventHandler(func(ev gpiocdev.LineEvent) {
			rising := ev.Type == gpiocdev.LineEventRisingEdge
			if !debouncer.Edge(rising, time.Unix(0, int64(ev.Timestamp))) {
				return
			}
			select {
			case presses <- struct{}{}:
			default:
			}
		}))
	if err != nil {
		multiplus.Close()
		generator.Close()
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", cfg.Button, err)
	}

	return &RealPins{
		chip:      chip,
		generator: generator,
		multiplus: multiplus,
		button:    button,
		presses:   presses,
	}, nil
}

// ReadToggles returns the logical switch positions.
// Raw values are inverted: the line reads 0 when the switch is in ON.
func (p *RealPins) ReadToggles() (bool, bool, error) {
	genRaw, err := p.generator.Value()
	if err != nil {
		return false, false, fmt.Errorf("read generator switch: %w", err)
	}
	mpRaw, err := p.multiplus.Value()
	if err != nil {
		return false, false, fmt.Errorf("read multiplus switch: %w", err)
	}
	return genRaw == 0, mpRaw == 0, nil
}

func (p *RealPins) Presses() <-chan struct{} {
	return p.presses
}

// Close releases the panel lines. Pins are reconfigured to input with
// pull-down (matching Pi boot defaults) before closing so a reboot never
// inherits surprise pull state.
func (p *RealPins) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{p.generator, p.multiplus, p.button} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
