package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hbraak/solar-display/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"seconds": func(d time.Duration) string {
		return fmt.Sprintf("%.0fs", d.Seconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Solar Display</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.stale { color: orange; }
.disconnected, .connecting { color: red; }
</style>
</head>
<body>
<h1>Solar Display</h1>

<h2>Link</h2>
<table>
<tr><th>Device</th><td>{{.Config.DeviceHost}}:{{.Config.DevicePort}}</td></tr>
<tr><th>State</th><td class="{{.Link}}">{{.Link}}</td></tr>
{{if .HasTelemetry}}<tr><th>Telemetry Age</th><td>{{seconds .TelemetryAge}}</td></tr>{{end}}
</table>

<h2>Telemetry</h2>
{{if .HasTelemetry}}{{with .Telemetry}}
<table>
<tr><th>PV Power</th><td>{{printf "%.0f" .PVPowerW}} W</td></tr>
<tr><th>Battery SoC</th><td>{{printf "%.1f" .BatterySoC}} %</td></tr>
<tr><th>Battery Power</th><td>{{printf "%+.0f" .BatteryPowerW}} W ({{.BatteryState}})</td></tr>
<tr><th>Battery Voltage</th><td>{{printf "%.1f" .BatteryVoltage}} V</td></tr>
<tr><th>Battery SoH</th><td>{{printf "%.1f" .BatterySoH}} %</td></tr>
<tr><th>AC Load</th><td>{{printf "%.0f" .ACLoadTotalW}} W</td></tr>
<tr><th>Yield Today</th><td>{{printf "%.1f" .YieldTodayKWh}} kWh</td></tr>
<tr><th>Generator</th><td class="{{if .Generator}}on{{else}}off{{end}}">{{.Generator}}</td></tr>
<tr><th>Multiplus</th><td class="{{if .Multiplus}}on{{else}}off{{end}}">{{.Multiplus}}</td></tr>
</table>
{{end}}{{else}}
<p>No telemetry yet.</p>
{{end}}

<h2>Forecast</h2>
{{if .Forecast}}{{with .Forecast}}
<table>
<tr><th>Today</th><td>{{printf "%.1f" .Today}} h sun</td></tr>
<tr><th>Tomorrow</th><td>{{printf "%.1f" .Tomorrow}} h sun</td></tr>
<tr><th>Day After</th><td>{{printf "%.1f" .DayAfter}} h sun</td></tr>
<tr><th>Fetched</th><td>{{.FetchedAt.UTC.Format "2006-01-02T15:04:05Z"}}{{if .Stale}} <span class="stale">(stale)</span>{{end}}</td></tr>
</table>
{{end}}{{else}}
<p>No forecast cached.</p>
{{end}}

<h2>Counters</h2>
<table>
<tr><th>Polls</th><td>{{.Counts.Polls}} ({{.Counts.PollFailures}} failed)</td></tr>
<tr><th>Button Presses</th><td>{{.Counts.Presses}}</td></tr>
<tr><th>Switch Confirms</th><td>{{.Counts.Confirms}} ({{.Counts.Cancels}} cancelled)</td></tr>
<tr><th>Relay Writes</th><td>{{.Counts.RelayWrites}} ({{.Counts.RelayFailures}} failed)</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Screen</th><td>{{.Screen}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollInterval}}</td></tr>
<tr><th>Watchdog</th><td>{{.Config.Watchdog}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .Config.Broker}} ({{.Config.Broker}}){{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Templates cannot call two-value methods, so age and uptime are
	// computed here.
	age, hasTelemetry := snap.TelemetryAge()
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		TelemetryAge time.Duration
		HasTelemetry bool
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		TelemetryAge: age,
		HasTelemetry: hasTelemetry,
	}
	indexTmpl.Execute(w, data)
}
