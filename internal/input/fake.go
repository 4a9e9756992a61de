package input

// FakePins is a test double with settable switch positions and an injectable
// press channel.
type FakePins struct {
	// Generator and Multiplus are the positions ReadToggles returns.
	Generator bool
	Multiplus bool

	// ReadErr, if set, is returned by ReadToggles.
	ReadErr error

	// Closed tracks if Close was called.
	Closed bool

	presses chan struct{}
}

func NewFakePins() *FakePins {
	return &FakePins{presses: make(chan struct{}, 8)}
}

func (f *FakePins) ReadToggles() (bool, bool, error) {
	if f.ReadErr != nil {
		return false, false, f.ReadErr
	}
	return f.Generator, f.Multiplus, nil
}

func (f *FakePins) Presses() <-chan struct{} {
	return f.presses
}

// Press queues one debounced button press, as the GPIO event handler would.
func (f *FakePins) Press() {
	f.presses <- struct{}{}
}

func (f *FakePins) Close() error {
	f.Closed = true
	return nil
}
