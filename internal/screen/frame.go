// Package screen renders telemetry into 128x64 monochrome frames. Rendering
// is pure: a View goes in, a Frame comes out, and nothing here touches
// hardware or the clock.
package screen

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Panel geometry.
const (
	Width  = 128
	Height = 64
)

// Face7x13 metrics; inside the border the panel fits 17 columns and 5
// baselines.
const (
	glyphWidth = 7
	lineHeight = 13
	textInset  = 2
)

var face = basicfont.Face7x13

// Baseline returns the pixel baseline of text line n (0 based, 5 lines).
func Baseline(n int) int {
	return 11 + n*lineHeight
}

// Frame is a monochrome pixel buffer. The zero value is all dark. It
// implements draw.Image so the x/image font machinery can draw into it.
type Frame struct {
	pix [Height][Width]bool
}

func NewFrame() *Frame {
	return &Frame{}
}

func (f *Frame) ColorModel() color.Model {
	return color.GrayModel
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

func (f *Frame) At(x, y int) color.Color {
	if f.On(x, y) {
		return color.Gray{Y: 0xff}
	}
	return color.Gray{Y: 0x00}
}

func (f *Frame) Set(x, y int, c color.Color) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	f.pix[y][x] = color.GrayModel.Convert(c).(color.Gray).Y >= 0x80
}

// On reports whether the pixel is lit. Out-of-bounds pixels are dark.
func (f *Frame) On(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f.pix[y][x]
}

// Text draws s with its baseline at y, clipped at the frame edges.
func (f *Frame) Text(x, y int, s string) {
	d := font.Drawer{
		Dst:  f,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// TextRight draws s right-aligned, inset from the frame border.
func (f *Frame) TextRight(y int, s string) {
	f.Text(Width-textInset-textWidth(s), y, s)
}

// TextCenter draws s horizontally centered.
func (f *Frame) TextCenter(y int, s string) {
	f.Text((Width-textWidth(s))/2, y, s)
}

// ClearRect darkens a rectangle, typically to place an overlay.
func (f *Frame) ClearRect(x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			if x >= 0 && x < Width && y >= 0 && y < Height {
				f.pix[y][x] = false
			}
		}
	}
}

// Box draws a one-pixel rectangle outline.
func (f *Frame) Box(x0, y0, w, h int) {
	for x := x0; x < x0+w; x++ {
		f.Set(x, y0, color.White)
		f.Set(x, y0+h-1, color.White)
	}
	for y := y0; y < y0+h; y++ {
		f.Set(x0, y, color.White)
		f.Set(x0+w-1, y, color.White)
	}
}

// LitPixels counts lit pixels, mostly useful to tests.
func (f *Frame) LitPixels() int {
	n := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f.pix[y][x] {
				n++
			}
		}
	}
	return n
}

func textWidth(s string) int {
	return len(s) * glyphWidth
}

// fit truncates s so it fits the panel width inside the border.
func fit(s string) string {
	max := (Width - 2*textInset) / glyphWidth
	if len(s) > max {
		return s[:max]
	}
	return s
}
