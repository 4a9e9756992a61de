package display

import "github.com/hbraak/solar-display/internal/screen"

// FakeDisplay records shown frames for tests.
type FakeDisplay struct {
	// Frames counts Show calls; Last is the most recent frame.
	Frames int
	Last   *screen.Frame

	// ShowErr, if set, is returned by Show.
	ShowErr error

	// Closed tracks if Close was called.
	Closed bool
}

func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

func (f *FakeDisplay) Show(fr *screen.Frame) error {
	if f.ShowErr != nil {
		return f.ShowErr
	}
	f.Frames++
	f.Last = fr
	return nil
}

func (f *FakeDisplay) Close() error {
	f.Closed = true
	return nil
}
