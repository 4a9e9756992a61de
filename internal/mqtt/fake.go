package mqtt

import "github.com/hbraak/solar-display/internal/victron"

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Telemetry contains all published snapshots.
	Telemetry []*victron.Snapshot

	// RelayEvents contains all published relay events.
	RelayEvents []RelayEvent

	// SystemEvents contains all published system events.
	SystemEvents []SystemEvent

	// PublishError, if set, is returned by every publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishTelemetry(snap *victron.Snapshot) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Telemetry = append(f.Telemetry, snap)
	return nil
}

func (f *FakePublisher) PublishRelay(event RelayEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.RelayEvents = append(f.RelayEvents, event)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}
