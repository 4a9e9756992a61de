// Package mqtt publishes telemetry and relay events to a broker, with
// abstraction for testing. Publishing is best-effort: a dead broker must
// never stall the control loop.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/hbraak/solar-display/internal/victron"
)

// Topics.
const (
	TopicTelemetry = "solar/display/telemetry"
	TopicRelay     = "solar/display/relay"
	TopicSystem    = "solar/display/system"
)

// Publisher sends installation events to MQTT.
type Publisher interface {
	// PublishTelemetry sends one snapshot. Skipped snapshots are fine;
	// the next one supersedes them.
	PublishTelemetry(snap *victron.Snapshot) error

	// PublishRelay sends a relay switch audit event.
	PublishRelay(event RelayEvent) error

	// PublishSystem sends a lifecycle event (startup, shutdown).
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// RelayEvent records one attempted relay switch.
type RelayEvent struct {
	ID        string // unique per attempt
	Timestamp time.Time
	Relay     victron.Relay
	Target    bool
	OK        bool
	Error     string
}

// SystemEvent is a lifecycle event such as STARTUP or SHUTDOWN.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string // e.g. "SIGTERM" on shutdown
}

// TelemetryPayload is the wire format on TopicTelemetry.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

type TelemetryInner struct {
	Timestamp      string     `json:"timestamp"`
	PVPowerW       float64    `json:"pv_power_w"`
	BatterySoC     float64    `json:"battery_soc"`
	BatteryPowerW  float64    `json:"battery_power_w"`
	BatteryState   string     `json:"battery_state"`
	BatteryVoltage float64    `json:"battery_voltage"`
	BatterySoH     float64    `json:"battery_soh"`
	ACLoadW        [3]float64 `json:"ac_load_w"`
	ACLoadTotalW   float64    `json:"ac_load_total_w"`
	YieldTodayKWh  float64    `json:"yield_today_kwh"`
	Generator      string     `json:"generator"`
	Multiplus      string     `json:"multiplus"`
}

// FormatTelemetry creates the JSON payload for a snapshot.
func FormatTelemetry(snap *victron.Snapshot) ([]byte, error) {
	payload := TelemetryPayload{
		Telemetry: TelemetryInner{
			Timestamp:      snap.TakenAt.UTC().Format(time.RFC3339),
			PVPowerW:       snap.PVPowerW,
			BatterySoC:     snap.BatterySoC,
			BatteryPowerW:  snap.BatteryPowerW,
			BatteryState:   snap.BatteryState.String(),
			BatteryVoltage: snap.BatteryVoltage,
			BatterySoH:     snap.BatterySoH,
			ACLoadW:        snap.ACLoadW,
			ACLoadTotalW:   snap.ACLoadTotalW(),
			YieldTodayKWh:  snap.YieldTodayKWh,
			Generator:      snap.Generator.String(),
			Multiplus:      snap.Multiplus.String(),
		},
	}
	return json.Marshal(payload)
}

// RelayPayload is the wire format on TopicRelay.
type RelayPayload struct {
	Relay RelayInner `json:"relay"`
}

type RelayInner struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Relay     string `json:"relay"`
	Target    string `json:"target"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// FormatRelay creates the JSON payload for a relay event.
func FormatRelay(event RelayEvent) ([]byte, error) {
	target := "OFF"
	if event.Target {
		target = "ON"
	}
	payload := RelayPayload{
		Relay: RelayInner{
			ID:        event.ID,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Relay:     event.Relay.String(),
			Target:    target,
			OK:        event.OK,
			Error:     event.Error,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the wire format on TopicSystem.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher is used when no broker is configured; every publish succeeds
// by doing nothing.
type NopPublisher struct{}

func (NopPublisher) PublishTelemetry(*victron.Snapshot) error { return nil }
func (NopPublisher) PublishRelay(RelayEvent) error            { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error          { return nil }
func (NopPublisher) Close() error                             { return nil }
