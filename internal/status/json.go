package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Link          string         `json:"link"`
	Screen        int            `json:"screen"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Telemetry     *TelemetryJSON `json:"telemetry,omitempty"`
	Forecast      *ForecastJSON  `json:"forecast,omitempty"`
	Counts        CountsJSON     `json:"counts"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// TelemetryJSON is the JSON representation of the last good snapshot.
type TelemetryJSON struct {
	TakenAt        string  `json:"taken_at"`
	AgeSeconds     int64   `json:"age_seconds"`
	PVPowerW       float64 `json:"pv_power_w"`
	BatterySoC     float64 `json:"battery_soc"`
	BatteryPowerW  float64 `json:"battery_power_w"`
	BatteryState   string  `json:"battery_state"`
	BatteryVoltage float64 `json:"battery_voltage"`
	BatterySoH     float64 `json:"battery_soh"`
	ACLoadTotalW   float64 `json:"ac_load_total_w"`
	YieldTodayKWh  float64 `json:"yield_today_kwh"`
	Generator      string  `json:"generator"`
	Multiplus      string  `json:"multiplus"`
}

// ForecastJSON is the JSON representation of the sunshine forecast.
type ForecastJSON struct {
	TodayHours    float64 `json:"today_hours"`
	TomorrowHours float64 `json:"tomorrow_hours"`
	DayAfterHours float64 `json:"day_after_hours"`
	FetchedAt     string  `json:"fetched_at"`
	Stale         bool    `json:"stale"`
}

// CountsJSON is the JSON representation of loop counters.
type CountsJSON struct {
	Polls         int `json:"polls"`
	PollFailures  int `json:"poll_failures"`
	Presses       int `json:"presses"`
	Confirms      int `json:"confirms"`
	Cancels       int `json:"cancels"`
	RelayWrites   int `json:"relay_writes"`
	RelayFailures int `json:"relay_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceHost string `json:"device_host"`
	DevicePort int    `json:"device_port"`
	PollMs     int64  `json:"poll_ms"`
	WatchdogMs int64  `json:"watchdog_ms"`
	Broker     string `json:"broker,omitempty"`
	HTTPAddr   string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Link:          snap.Link.String(),
		Screen:        snap.Screen,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Polls:         snap.Counts.Polls,
			PollFailures:  snap.Counts.PollFailures,
			Presses:       snap.Counts.Presses,
			Confirms:      snap.Counts.Confirms,
			Cancels:       snap.Counts.Cancels,
			RelayWrites:   snap.Counts.RelayWrites,
			RelayFailures: snap.Counts.RelayFailures,
		},
		Config: ConfigJSON{
			DeviceHost: snap.Config.DeviceHost,
			DevicePort: snap.Config.DevicePort,
			PollMs:     snap.Config.PollInterval.Milliseconds(),
			WatchdogMs: snap.Config.Watchdog.Milliseconds(),
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}

	if tele := snap.Telemetry; tele != nil {
		age, _ := snap.TelemetryAge()
		inner.Telemetry = &TelemetryJSON{
			TakenAt:        tele.TakenAt.UTC().Format(time.RFC3339),
			AgeSeconds:     int64(age.Truncate(time.Second).Seconds()),
			PVPowerW:       tele.PVPowerW,
			BatterySoC:     tele.BatterySoC,
			BatteryPowerW:  tele.BatteryPowerW,
			BatteryState:   tele.BatteryState.String(),
			BatteryVoltage: tele.BatteryVoltage,
			BatterySoH:     tele.BatterySoH,
			ACLoadTotalW:   tele.ACLoadTotalW(),
			YieldTodayKWh:  tele.YieldTodayKWh,
			Generator:      tele.Generator.String(),
			Multiplus:      tele.Multiplus.String(),
		}
	}

	if fc := snap.Forecast; fc != nil {
		inner.Forecast = &ForecastJSON{
			TodayHours:    fc.Today,
			TomorrowHours: fc.Tomorrow,
			DayAfterHours: fc.DayAfter,
			FetchedAt:     fc.FetchedAt.UTC().Format(time.RFC3339),
			Stale:         fc.Stale,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
