package display

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/hbraak/solar-display/internal/screen"
)

// SH1106 RAM is 132 columns wide; 128 wide panels sit centered, so column
// addressing starts at 2.
const (
	pageCount    = screen.Height / 8
	columnOffset = 2

	ctrlCommand = 0x00
	ctrlData    = 0x40
)

var initSequence = []byte{
	0xAE,       // display off
	0xD5, 0x80, // clock divide
	0xA8, 0x3F, // multiplex 64
	0xD3, 0x00, // display offset 0
	0x40,       // start line 0
	0xAD, 0x8B, // charge pump on
	0xA1,       // segment remap
	0xC8,       // COM scan reversed
	0xDA, 0x12, // COM pins alternating
	0x81, 0x80, // contrast
	0xD9, 0x22, // precharge
	0xDB, 0x35, // VCOM deselect
	0xA4,       // follow RAM
	0xA6,       // normal polarity
	0xAF,       // display on
}

// SH1106 is the production Device. Rotation 2 flips the panel 180 degrees in
// software during packing, matching an upside-down case mount.
type SH1106 struct {
	bus       i2c.BusCloser
	dev       *i2c.Dev
	rotate180 bool
}

// NewSH1106 opens the bus, initializes the controller and blanks the panel.
// Pass busName "" for the first available I2C bus.
func NewSH1106(busName string, addr uint16, rotation int) (*SH1106, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	d := &SH1106{
		bus:       bus,
		dev:       &i2c.Dev{Bus: bus, Addr: addr},
		rotate180: rotation == 2,
	}
	if err := d.command(initSequence...); err != nil {
		bus.Close()
		return nil, fmt.Errorf("init sh1106 at %#x: %w", addr, err)
	}
	if err := d.Show(screen.NewFrame()); err != nil {
		bus.Close()
		return nil, fmt.Errorf("blank sh1106 at %#x: %w", addr, err)
	}
	return d, nil
}

// Show pushes the frame page by page.
func (d *SH1106) Show(f *screen.Frame) error {
	buf := pack(f, d.rotate180)
	for page := 0; page < pageCount; page++ {
		if err := d.command(
			0xB0|byte(page),
			columnOffset&0x0F,
			0x10|columnOffset>>4,
		); err != nil {
			return fmt.Errorf("address page %d: %w", page, err)
		}
		row := buf[page*screen.Width : (page+1)*screen.Width]
		if err := d.dev.Tx(append([]byte{ctrlData}, row...), nil); err != nil {
			return fmt.Errorf("write page %d: %w", page, err)
		}
	}
	return nil
}

// Close switches the panel off and releases the bus.
func (d *SH1106) Close() error {
	cmdErr := d.command(0xAE)
	busErr := d.bus.Close()
	if cmdErr != nil {
		return cmdErr
	}
	return busErr
}

func (d *SH1106) command(cmds ...byte) error {
	return d.dev.Tx(append([]byte{ctrlCommand}, cmds...), nil)
}

// pack converts a frame to page order: pageCount pages of Width bytes, each
// byte one column of 8 vertical pixels, LSB topmost.
func pack(f *screen.Frame, rotate180 bool) []byte {
	buf := make([]byte, screen.Width*pageCount)
	for page := 0; page < pageCount; page++ {
		for x := 0; x < screen.Width; x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				sx, sy := x, page*8+bit
				if rotate180 {
					sx = screen.Width - 1 - sx
					sy = screen.Height - 1 - sy
				}
				if f.On(sx, sy) {
					b |= 1 << bit
				}
			}
			buf[page*screen.Width+x] = b
		}
	}
	return buf
}
