// Package victron maintains the Modbus TCP link to a Victron GX device and
// decodes its register map into telemetry snapshots.
//
// The link is deliberately lazy: a failed poll tears the connection down and
// the next poll rebuilds it, so retry pressure is bounded by the controller's
// own cadence. A watchdog forces a rebuild when reads stop succeeding even
// though the transport reports no error.
package victron

const (
	// SystemUnit is the Modbus unit id of the GX system service.
	SystemUnit uint8 = 100

	// ProbeRegister is readable on every GX unit (start of the serial
	// number block); discovery uses it to identify a device on the subnet.
	ProbeRegister uint16 = 800

	// --- Input registers, system unit ---

	regPVPower uint16 = 850 // W

	// Battery block, read as one span of 5 registers.
	regBatteryBlock    uint16 = 840
	battBlockLen       uint16 = 5
	offBatteryVoltage         = 0 // 840, 0.1 V
	offBatteryPower           = 2 // 842, W, signed (charge positive)
	offBatterySoC             = 3 // 843, %
	offBatteryState           = 4 // 844, 0=idle 1=charging 2=discharging

	// AC output loads L1..L3, one span of 3 registers, W each.
	regACLoadBlock uint16 = 817
	acBlockLen     uint16 = 3

	// Relay state words, 0 or 1.
	regMultiplusRelay uint16 = 807
	regGeneratorRelay uint16 = 3500

	// State of health, BMS unit, 0.1 %.
	regBatterySoH uint16 = 304

	// Per-charger yield today, read once per configured charger unit, 0.1 kWh.
	regYieldToday uint16 = 784
)

// Register words above this value read as negative (device convention for
// signed quantities; not plain two's complement at 32768).
const signedWordCutoff = 60000

// Relay identifies one of the two controllable GX relays.
type Relay uint8

const (
	// RelayMultiplus switches the Multiplus II inverter/charger.
	RelayMultiplus Relay = iota
	// RelayGenerator switches the generator start contact.
	RelayGenerator
)

// WriteAddress returns the holding-register address for switching the relay.
func (r Relay) WriteAddress() uint16 {
	if r == RelayGenerator {
		return regGeneratorRelay
	}
	return regMultiplusRelay
}

func (r Relay) String() string {
	switch r {
	case RelayMultiplus:
		return "multiplus"
	case RelayGenerator:
		return "generator"
	default:
		return "relay?"
	}
}
