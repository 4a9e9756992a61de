package victron

import (
	"errors"
	"fmt"
	"time"
)

// ErrImplausible marks a register batch that read fine but decoded to a value
// the device cannot legitimately report. Callers treat it like any other
// failed poll; the distinct sentinel exists so it can be logged apart from
// transport trouble.
var ErrImplausible = errors.New("implausible register value")

// rawBatch holds the words of one poll cycle before decoding.
type rawBatch struct {
	pv       uint16
	battery  []uint16 // regBatteryBlock .. +battBlockLen
	acLoad   []uint16 // regACLoadBlock .. +acBlockLen
	mpRelay  uint16
	genRelay uint16
	soh      uint16
	yields   []uint16 // one word per configured charger unit
}

// signedWord applies the device's convention for negative quantities: words
// above the cutoff wrap downward from 65536.
func signedWord(raw uint16) int {
	if raw > signedWordCutoff {
		return int(raw) - 0x10000
	}
	return int(raw)
}

// scaled converts a register word to engineering units.
func scaled(raw uint16, divisor float64) float64 {
	return float64(signedWord(raw)) / divisor
}

func implausible(field string, got any) error {
	return fmt.Errorf("%w: %s = %v", ErrImplausible, field, got)
}

// decodeSnapshot turns a raw batch into a Snapshot, rejecting values outside
// the device's plausible ranges. It never partially populates: the first bad
// field fails the whole batch.
func decodeSnapshot(raw rawBatch, takenAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: takenAt}

	snap.PVPowerW = scaled(raw.pv, 1)
	if snap.PVPowerW < 0 {
		return nil, implausible("pv power", snap.PVPowerW)
	}

	if len(raw.battery) != int(battBlockLen) {
		return nil, implausible("battery block length", len(raw.battery))
	}
	snap.BatteryVoltage = scaled(raw.battery[offBatteryVoltage], 10)
	snap.BatteryPowerW = scaled(raw.battery[offBatteryPower], 1)
	snap.BatterySoC = scaled(raw.battery[offBatterySoC], 1)
	if snap.BatterySoC < 0 || snap.BatterySoC > 100 {
		return nil, implausible("state of charge", snap.BatterySoC)
	}
	switch state := raw.battery[offBatteryState]; state {
	case 0, 1, 2:
		snap.BatteryState = BatteryState(state)
	default:
		return nil, implausible("battery state", state)
	}

	if len(raw.acLoad) != int(acBlockLen) {
		return nil, implausible("ac load block length", len(raw.acLoad))
	}
	for i, w := range raw.acLoad {
		snap.ACLoadW[i] = scaled(w, 1)
	}

	var err error
	if snap.Multiplus, err = decodeRelay(raw.mpRelay); err != nil {
		return nil, fmt.Errorf("multiplus %w", err)
	}
	if snap.Generator, err = decodeRelay(raw.genRelay); err != nil {
		return nil, fmt.Errorf("generator %w", err)
	}

	snap.BatterySoH = scaled(raw.soh, 10)
	if snap.BatterySoH < 0 || snap.BatterySoH > 100 {
		return nil, implausible("state of health", snap.BatterySoH)
	}

	for _, w := range raw.yields {
		y := scaled(w, 10)
		if y < 0 {
			return nil, implausible("yield", y)
		}
		snap.YieldTodayKWh += y
	}

	return snap, nil
}

func decodeRelay(raw uint16) (RelayState, error) {
	switch raw {
	case 0:
		return RelayOff, nil
	case 1:
		return RelayOn, nil
	default:
		return RelayOff, implausible("relay word", raw)
	}
}

// relayWord encodes a desired relay state for a register write.
func relayWord(on bool) uint16 {
	if on {
		return 1
	}
	return 0
}
