package victron

import (
	"fmt"
	"time"

	"github.com/hbraak/solar-display/internal/logger"
)

// Units names the Modbus unit ids that carry telemetry beyond the system
// unit: the solar chargers contributing to today's yield and the BMS that
// reports state of health.
type Units struct {
	Chargers []uint8
	BMS      uint8
}

// Link owns the session to the GX device. It is not safe for concurrent use;
// the control loop is its only caller.
type Link struct {
	transport Transport
	units     Units
	watchdog  time.Duration
	log       *logger.Logger
	now       func() time.Time

	opened      bool
	state       ConnectionState
	lastSuccess time.Time
}

// NewLink wraps a transport. The watchdog interval bounds how long the link
// may sit in Connected without a successful transaction before State forces
// it to Stale.
func NewLink(t Transport, units Units, watchdog time.Duration, log *logger.Logger, now func() time.Time) *Link {
	return &Link{
		transport: t,
		units:     units,
		watchdog:  watchdog,
		log:       log,
		now:       now,
		state:     Disconnected,
	}
}

// AcquireSnapshot performs the full register batch and returns one complete
// snapshot, or an error and no snapshot at all. Any failure, transport or
// decode alike, tears the session down; the next call builds a fresh one.
func (l *Link) AcquireSnapshot() (*Snapshot, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	raw, err := l.readBatch()
	if err != nil {
		l.markFailure()
		return nil, err
	}
	now := l.now()
	snap, err := decodeSnapshot(raw, now)
	if err != nil {
		l.markFailure()
		l.log.Warnw("rejected telemetry batch", "err", err)
		return nil, err
	}
	l.state = Connected
	l.lastSuccess = now
	return snap, nil
}

// WriteRelay switches one relay. The write is attempted exactly once; callers
// surface failures to the operator instead of retrying.
func (l *Link) WriteRelay(relay Relay, on bool) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	if err := l.transport.WriteRegister(SystemUnit, relay.WriteAddress(), relayWord(on)); err != nil {
		l.markFailure()
		return fmt.Errorf("switching %s relay: %w", relay, err)
	}
	l.state = Connected
	l.lastSuccess = l.now()
	return nil
}

// State reports link health, applying the silence watchdog: a link that has
// been Connected without a successful transaction for longer than the
// watchdog interval is forced to Stale and its session is dropped so the
// next poll reconnects from scratch.
func (l *Link) State() ConnectionState {
	if l.state == Connected && l.now().Sub(l.lastSuccess) > l.watchdog {
		l.log.Warnw("watchdog expired, dropping device link",
			"last_success", l.lastSuccess.Format(time.RFC3339))
		l.dropSession()
		l.state = Stale
	}
	return l.state
}

// LastSuccess reports when the most recent transaction completed.
func (l *Link) LastSuccess() time.Time {
	return l.lastSuccess
}

// Close releases the session. The link stays usable; the next call reopens.
func (l *Link) Close() error {
	if !l.opened {
		return nil
	}
	l.opened = false
	l.state = Disconnected
	return l.transport.Close()
}

func (l *Link) ensureOpen() error {
	if l.opened {
		return nil
	}
	l.state = Connecting
	if err := l.transport.Open(); err != nil {
		l.state = Disconnected
		return fmt.Errorf("opening device link: %w", err)
	}
	l.opened = true
	return nil
}

func (l *Link) markFailure() {
	l.dropSession()
	l.state = Disconnected
}

func (l *Link) dropSession() {
	if !l.opened {
		return
	}
	_ = l.transport.Close()
	l.opened = false
}

// readBatch collects every register of one poll cycle. The first failed read
// aborts the batch.
func (l *Link) readBatch() (rawBatch, error) {
	var raw rawBatch
	var err error

	if raw.pv, err = l.readOne(SystemUnit, regPVPower); err != nil {
		return raw, err
	}
	if raw.battery, err = l.transport.ReadInputRegisters(SystemUnit, regBatteryBlock, battBlockLen); err != nil {
		return raw, fmt.Errorf("battery block: %w", err)
	}
	if raw.acLoad, err = l.transport.ReadInputRegisters(SystemUnit, regACLoadBlock, acBlockLen); err != nil {
		return raw, fmt.Errorf("ac load block: %w", err)
	}
	if raw.mpRelay, err = l.readOne(SystemUnit, regMultiplusRelay); err != nil {
		return raw, err
	}
	if raw.genRelay, err = l.readOne(SystemUnit, regGeneratorRelay); err != nil {
		return raw, err
	}
	if raw.soh, err = l.readOne(l.units.BMS, regBatterySoH); err != nil {
		return raw, err
	}
	raw.yields = make([]uint16, 0, len(l.units.Chargers))
	for _, unit := range l.units.Chargers {
		word, err := l.readOne(unit, regYieldToday)
		if err != nil {
			return raw, err
		}
		raw.yields = append(raw.yields, word)
	}
	return raw, nil
}

func (l *Link) readOne(unit uint8, addr uint16) (uint16, error) {
	words, err := l.transport.ReadInputRegisters(unit, addr, 1)
	if err != nil {
		return 0, fmt.Errorf("unit %d register %d: %w", unit, addr, err)
	}
	if len(words) != 1 {
		return 0, fmt.Errorf("unit %d register %d: expected 1 word, got %d", unit, addr, len(words))
	}
	return words[0], nil
}
