package victron

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbraak/solar-display/internal/logger"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLink(t *testing.T) (*Link, *FakeTransport, *fakeClock) {
	t.Helper()
	transport := NewFakeTransport()
	clock := &fakeClock{t: time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)}
	units := Units{Chargers: []uint8{238, 239}, BMS: 225}
	link := NewLink(transport, units, time.Minute, logger.Nop(), clock.Now)
	return link, transport, clock
}

func TestAcquireSnapshot(t *testing.T) {
	link, transport, clock := newTestLink(t)

	snap, err := link.AcquireSnapshot()
	require.NoError(t, err)

	assert.Equal(t, 3170.0, snap.PVPowerW)
	assert.Equal(t, 87.0, snap.BatterySoC)
	assert.InDelta(t, 7.4, snap.YieldTodayKWh, 1e-9)
	assert.Equal(t, clock.Now(), snap.TakenAt)
	assert.Equal(t, Connected, link.State())
	assert.Equal(t, 1, transport.Opens)
}

func TestAcquireIsAllOrNothing(t *testing.T) {
	link, transport, _ := newTestLink(t)
	transport.Unset(225, regBatterySoH)

	snap, err := link.AcquireSnapshot()

	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, Disconnected, link.State())
	assert.Equal(t, 1, transport.Closes, "failed poll must drop the session")
}

func TestAcquireAbortsBatchOnFirstFailure(t *testing.T) {
	link, transport, _ := newTestLink(t)
	transport.Unset(SystemUnit, regPVPower)

	_, err := link.AcquireSnapshot()

	require.Error(t, err)
	assert.Len(t, transport.Reads, 1, "no further registers after a failed read")
}

func TestAcquireRebuildsSessionAfterFailure(t *testing.T) {
	link, transport, _ := newTestLink(t)
	transport.ReadErr = errors.New("i/o timeout")

	_, err := link.AcquireSnapshot()
	require.Error(t, err)
	assert.Equal(t, Disconnected, link.State())

	transport.ReadErr = nil
	snap, err := link.AcquireSnapshot()
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, Connected, link.State())
	assert.Equal(t, 2, transport.Opens, "recovery opens a fresh session")
}

func TestAcquireSurvivesUnreachableDevice(t *testing.T) {
	link, transport, clock := newTestLink(t)
	transport.OpenErr = errors.New("connect: no route to host")

	for i := 0; i < 3; i++ {
		snap, err := link.AcquireSnapshot()
		require.Error(t, err)
		assert.Nil(t, snap)
		assert.Equal(t, Disconnected, link.State())
		clock.Advance(time.Second)
	}

	transport.OpenErr = nil
	_, err := link.AcquireSnapshot()
	require.NoError(t, err)
	assert.Equal(t, Connected, link.State())
}

func TestDecodeFailureDropsSession(t *testing.T) {
	link, transport, _ := newTestLink(t)
	transport.Set(SystemUnit, regBatteryBlock, 512, 88, 450, 105, 1)

	snap, err := link.AcquireSnapshot()

	require.ErrorIs(t, err, ErrImplausible)
	assert.Nil(t, snap)
	assert.Equal(t, Disconnected, link.State())
	assert.Equal(t, 1, transport.Closes)
}

func TestWatchdogForcesStale(t *testing.T) {
	link, transport, clock := newTestLink(t)

	_, err := link.AcquireSnapshot()
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	assert.Equal(t, Connected, link.State())

	clock.Advance(2 * time.Second)
	assert.Equal(t, Stale, link.State())
	assert.Equal(t, 1, transport.Closes, "stale link drops its session")

	// Stays stale until a poll succeeds again.
	assert.Equal(t, Stale, link.State())

	_, err = link.AcquireSnapshot()
	require.NoError(t, err)
	assert.Equal(t, Connected, link.State())
	assert.Equal(t, 2, transport.Opens)
}

func TestWriteRelay(t *testing.T) {
	link, transport, _ := newTestLink(t)

	require.NoError(t, link.WriteRelay(RelayGenerator, true))

	require.Len(t, transport.Writes, 1)
	assert.Equal(t, FakeWrite{Unit: SystemUnit, Addr: 3500, Value: 1}, transport.Writes[0])

	snap, err := link.AcquireSnapshot()
	require.NoError(t, err)
	assert.Equal(t, RelayOn, snap.Generator)
}

func TestWriteRelayOpensSessionOnDemand(t *testing.T) {
	link, transport, _ := newTestLink(t)

	require.NoError(t, link.WriteRelay(RelayMultiplus, false))
	assert.Equal(t, 1, transport.Opens)
	assert.Equal(t, Connected, link.State())
}

func TestWriteRelayFailureIsNotRetried(t *testing.T) {
	link, transport, _ := newTestLink(t)
	transport.WriteErr = errors.New("broken pipe")

	err := link.WriteRelay(RelayGenerator, true)

	require.Error(t, err)
	assert.Empty(t, transport.Writes)
	assert.Equal(t, Disconnected, link.State())
}

func TestWriteRelayKeepsWatchdogFed(t *testing.T) {
	link, _, clock := newTestLink(t)

	_, err := link.AcquireSnapshot()
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	require.NoError(t, link.WriteRelay(RelayGenerator, true))

	clock.Advance(45 * time.Second)
	assert.Equal(t, Connected, link.State(), "write success counts as device contact")
}

func TestCloseIsIdempotent(t *testing.T) {
	link, transport, _ := newTestLink(t)

	_, err := link.AcquireSnapshot()
	require.NoError(t, err)

	require.NoError(t, link.Close())
	require.NoError(t, link.Close())
	assert.Equal(t, 1, transport.Closes)
	assert.Equal(t, Disconnected, link.State())
}
