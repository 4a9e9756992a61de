package victron

import "time"

// ConnectionState describes the health of the device link as observed by the
// control loop. It only ever moves on poll boundaries.
type ConnectionState int

const (
	// Disconnected means no TCP session is established.
	Disconnected ConnectionState = iota
	// Connecting means a session is being established right now.
	Connecting
	// Connected means the last poll completed successfully.
	Connected
	// Stale means the session looks alive but reads have stopped
	// succeeding for longer than the watchdog interval.
	Stale
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// BatteryState mirrors the device's battery state word.
type BatteryState int

const (
	BatteryIdle        BatteryState = 0
	BatteryCharging    BatteryState = 1
	BatteryDischarging BatteryState = 2
)

func (s BatteryState) String() string {
	switch s {
	case BatteryCharging:
		return "charging"
	case BatteryDischarging:
		return "discharging"
	default:
		return "idle"
	}
}

// RelayState is a decoded relay word.
type RelayState bool

const (
	RelayOn  RelayState = true
	RelayOff RelayState = false
)

func (s RelayState) String() string {
	if s == RelayOn {
		return "ON"
	}
	return "OFF"
}

// Snapshot is one complete, consistent telemetry reading. A snapshot is only
// ever fully populated: if any register of the batch fails to read or decode,
// no snapshot is produced at all.
type Snapshot struct {
	PVPowerW       float64
	BatterySoC     float64
	BatteryPowerW  float64
	BatteryState   BatteryState
	BatteryVoltage float64
	BatterySoH     float64
	ACLoadW        [3]float64
	YieldTodayKWh  float64
	Generator      RelayState
	Multiplus      RelayState

	// TakenAt is the control-loop time at which the batch completed.
	TakenAt time.Time
}

// ACLoadTotalW sums the three phase loads.
func (s *Snapshot) ACLoadTotalW() float64 {
	return s.ACLoadW[0] + s.ACLoadW[1] + s.ACLoadW[2]
}

// Age reports how old the snapshot is at the given instant.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}

// Relay returns the decoded state of the given relay.
func (s *Snapshot) Relay(r Relay) RelayState {
	if r == RelayGenerator {
		return s.Generator
	}
	return s.Multiplus
}
