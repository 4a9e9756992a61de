package display

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbraak/solar-display/internal/screen"
)

func TestPackPageOrder(t *testing.T) {
	f := screen.NewFrame()
	f.Set(0, 0, color.White)   // page 0, column 0, bit 0
	f.Set(0, 7, color.White)   // page 0, column 0, bit 7
	f.Set(127, 9, color.White) // page 1, column 127, bit 1

	buf := pack(f, false)

	require.Len(t, buf, screen.Width*pageCount)
	assert.Equal(t, byte(0b1000_0001), buf[0])
	assert.Equal(t, byte(0b0000_0010), buf[screen.Width+127])
	assert.Equal(t, byte(0), buf[1])
}

func TestPackRotated(t *testing.T) {
	f := screen.NewFrame()
	f.Set(0, 0, color.White)

	buf := pack(f, true)

	// Top-left lands bottom-right when the panel hangs upside down.
	assert.Equal(t, byte(0b1000_0000), buf[(pageCount-1)*screen.Width+screen.Width-1])
	assert.Equal(t, byte(0), buf[0])
}

func TestFakeDisplayRecordsFrames(t *testing.T) {
	d := NewFakeDisplay()
	f := screen.NewFrame()

	require.NoError(t, d.Show(f))
	require.NoError(t, d.Show(f))

	assert.Equal(t, 2, d.Frames)
	assert.Same(t, f, d.Last)

	require.NoError(t, d.Close())
	assert.True(t, d.Closed)
}
