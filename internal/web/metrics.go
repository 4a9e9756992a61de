package web

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hbraak/solar-display/internal/status"
	"github.com/hbraak/solar-display/internal/victron"
)

// Collector implements prometheus.Collector over the status tracker.
// Telemetry metrics are only emitted while a snapshot is held; the
// link and loop metrics are always present.
type Collector struct {
	tracker *status.Tracker

	linkUp         *prometheus.Desc
	info           *prometheus.Desc
	pvPower        *prometheus.Desc
	batterySoC     *prometheus.Desc
	batteryPower   *prometheus.Desc
	batteryVoltage *prometheus.Desc
	batterySoH     *prometheus.Desc
	charging       *prometheus.Desc
	discharging    *prometheus.Desc
	acLoad         *prometheus.Desc
	yieldToday     *prometheus.Desc
	relayOn        *prometheus.Desc
	telemetryAge   *prometheus.Desc
	forecastHours  *prometheus.Desc
	polls          *prometheus.Desc
	pollFailures   *prometheus.Desc
	presses        *prometheus.Desc
	confirms       *prometheus.Desc
	cancels        *prometheus.Desc
	relayWrites    *prometheus.Desc
	relayFailures  *prometheus.Desc
	screen         *prometheus.Desc
	mqttConnected  *prometheus.Desc
	uptime         *prometheus.Desc
}

// NewCollector creates a collector reading from the given tracker.
func NewCollector(tracker *status.Tracker) *Collector {
	return &Collector{
		tracker: tracker,
		linkUp: prometheus.NewDesc(
			"solar_display_link_up",
			"Whether the Modbus link to the GX device is connected (1=yes, 0=no)",
			nil, nil,
		),
		info: prometheus.NewDesc(
			"solar_display_info",
			"Display daemon information",
			[]string{"device_host", "link"},
			nil,
		),
		pvPower: prometheus.NewDesc(
			"solar_display_pv_power_watts",
			"Current PV array output in watts",
			nil, nil,
		),
		batterySoC: prometheus.NewDesc(
			"solar_display_battery_soc_percent",
			"Battery state of charge in percent",
			nil, nil,
		),
		batteryPower: prometheus.NewDesc(
			"solar_display_battery_power_watts",
			"Battery power in watts (positive=charging, negative=discharging)",
			nil, nil,
		),
		batteryVoltage: prometheus.NewDesc(
			"solar_display_battery_voltage_volts",
			"Battery voltage in volts",
			nil, nil,
		),
		batterySoH: prometheus.NewDesc(
			"solar_display_battery_soh_percent",
			"Battery state of health in percent",
			nil, nil,
		),
		charging: prometheus.NewDesc(
			"solar_display_battery_charging",
			"Battery is currently charging (1=yes, 0=no)",
			nil, nil,
		),
		discharging: prometheus.NewDesc(
			"solar_display_battery_discharging",
			"Battery is currently discharging (1=yes, 0=no)",
			nil, nil,
		),
		acLoad: prometheus.NewDesc(
			"solar_display_ac_load_watts",
			"AC load in watts",
			[]string{"phase"},
			nil,
		),
		yieldToday: prometheus.NewDesc(
			"solar_display_yield_today_kwh",
			"Solar yield today in kilowatt-hours",
			nil, nil,
		),
		relayOn: prometheus.NewDesc(
			"solar_display_relay_on",
			"Relay position (1=on, 0=off)",
			[]string{"relay"},
			nil,
		),
		telemetryAge: prometheus.NewDesc(
			"solar_display_telemetry_age_seconds",
			"Age of the last good telemetry snapshot in seconds",
			nil, nil,
		),
		forecastHours: prometheus.NewDesc(
			"solar_display_forecast_sun_hours",
			"Forecast sunshine hours",
			[]string{"day"},
			nil,
		),
		polls: prometheus.NewDesc(
			"solar_display_polls_total",
			"Total telemetry poll attempts",
			nil, nil,
		),
		pollFailures: prometheus.NewDesc(
			"solar_display_poll_failures_total",
			"Total failed telemetry polls",
			nil, nil,
		),
		presses: prometheus.NewDesc(
			"solar_display_button_presses_total",
			"Total screen button presses",
			nil, nil,
		),
		confirms: prometheus.NewDesc(
			"solar_display_switch_confirms_total",
			"Total confirmed switch changes",
			nil, nil,
		),
		cancels: prometheus.NewDesc(
			"solar_display_switch_cancels_total",
			"Total cancelled switch changes",
			nil, nil,
		),
		relayWrites: prometheus.NewDesc(
			"solar_display_relay_writes_total",
			"Total relay write commands sent",
			nil, nil,
		),
		relayFailures: prometheus.NewDesc(
			"solar_display_relay_write_failures_total",
			"Total failed relay write commands",
			nil, nil,
		),
		screen: prometheus.NewDesc(
			"solar_display_screen",
			"Currently displayed screen index",
			nil, nil,
		),
		mqttConnected: prometheus.NewDesc(
			"solar_display_mqtt_connected",
			"Whether the MQTT broker is connected (1=yes, 0=no)",
			nil, nil,
		),
		uptime: prometheus.NewDesc(
			"solar_display_uptime_seconds",
			"Daemon uptime in seconds",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.linkUp
	ch <- c.info
	ch <- c.pvPower
	ch <- c.batterySoC
	ch <- c.batteryPower
	ch <- c.batteryVoltage
	ch <- c.batterySoH
	ch <- c.charging
	ch <- c.discharging
	ch <- c.acLoad
	ch <- c.yieldToday
	ch <- c.relayOn
	ch <- c.telemetryAge
	ch <- c.forecastHours
	ch <- c.polls
	ch <- c.pollFailures
	ch <- c.presses
	ch <- c.confirms
	ch <- c.cancels
	ch <- c.relayWrites
	ch <- c.relayFailures
	ch <- c.screen
	ch <- c.mqttConnected
	ch <- c.uptime
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.linkUp, prometheus.GaugeValue,
		boolValue(snap.Link == victron.Connected))
	ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1,
		snap.Config.DeviceHost, snap.Link.String())

	ch <- prometheus.MustNewConstMetric(c.polls, prometheus.CounterValue, float64(snap.Counts.Polls))
	ch <- prometheus.MustNewConstMetric(c.pollFailures, prometheus.CounterValue, float64(snap.Counts.PollFailures))
	ch <- prometheus.MustNewConstMetric(c.presses, prometheus.CounterValue, float64(snap.Counts.Presses))
	ch <- prometheus.MustNewConstMetric(c.confirms, prometheus.CounterValue, float64(snap.Counts.Confirms))
	ch <- prometheus.MustNewConstMetric(c.cancels, prometheus.CounterValue, float64(snap.Counts.Cancels))
	ch <- prometheus.MustNewConstMetric(c.relayWrites, prometheus.CounterValue, float64(snap.Counts.RelayWrites))
	ch <- prometheus.MustNewConstMetric(c.relayFailures, prometheus.CounterValue, float64(snap.Counts.RelayFailures))

	ch <- prometheus.MustNewConstMetric(c.screen, prometheus.GaugeValue, float64(snap.Screen))
	ch <- prometheus.MustNewConstMetric(c.mqttConnected, prometheus.GaugeValue, boolValue(snap.MQTTConnected))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, snap.Uptime().Seconds())

	if tele := snap.Telemetry; tele != nil {
		age, _ := snap.TelemetryAge()
		ch <- prometheus.MustNewConstMetric(c.telemetryAge, prometheus.GaugeValue, age.Seconds())
		ch <- prometheus.MustNewConstMetric(c.pvPower, prometheus.GaugeValue, tele.PVPowerW)
		ch <- prometheus.MustNewConstMetric(c.batterySoC, prometheus.GaugeValue, tele.BatterySoC)
		ch <- prometheus.MustNewConstMetric(c.batteryPower, prometheus.GaugeValue, tele.BatteryPowerW)
		ch <- prometheus.MustNewConstMetric(c.batteryVoltage, prometheus.GaugeValue, tele.BatteryVoltage)
		ch <- prometheus.MustNewConstMetric(c.batterySoH, prometheus.GaugeValue, tele.BatterySoH)
		ch <- prometheus.MustNewConstMetric(c.charging, prometheus.GaugeValue,
			boolValue(tele.BatteryState == victron.BatteryCharging))
		ch <- prometheus.MustNewConstMetric(c.discharging, prometheus.GaugeValue,
			boolValue(tele.BatteryState == victron.BatteryDischarging))
		for i, w := range tele.ACLoadW {
			ch <- prometheus.MustNewConstMetric(c.acLoad, prometheus.GaugeValue, w, phaseLabel(i))
		}
		ch <- prometheus.MustNewConstMetric(c.acLoad, prometheus.GaugeValue, tele.ACLoadTotalW(), "total")
		ch <- prometheus.MustNewConstMetric(c.yieldToday, prometheus.GaugeValue, tele.YieldTodayKWh)
		ch <- prometheus.MustNewConstMetric(c.relayOn, prometheus.GaugeValue,
			boolValue(bool(tele.Generator)), victron.RelayGenerator.String())
		ch <- prometheus.MustNewConstMetric(c.relayOn, prometheus.GaugeValue,
			boolValue(bool(tele.Multiplus)), victron.RelayMultiplus.String())
	}

	if fc := snap.Forecast; fc != nil {
		ch <- prometheus.MustNewConstMetric(c.forecastHours, prometheus.GaugeValue, fc.Today, "today")
		ch <- prometheus.MustNewConstMetric(c.forecastHours, prometheus.GaugeValue, fc.Tomorrow, "tomorrow")
		ch <- prometheus.MustNewConstMetric(c.forecastHours, prometheus.GaugeValue, fc.DayAfter, "day_after")
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func phaseLabel(i int) string {
	return [...]string{"l1", "l2", "l3"}[i]
}
