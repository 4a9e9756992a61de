package screen

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hbraak/solar-display/internal/forecast"
	"github.com/hbraak/solar-display/internal/victron"
)

// ScreenCount is how many operator screens the push button cycles through.
const ScreenCount = 4

// Screen indices, in button order.
const (
	ScreenOverview = iota
	ScreenPV
	ScreenBattery
	ScreenSun
)

// Overlay geometry: the bottom band used for prompts and notices.
const (
	overlayTop      = 40
	overlayBaseline = 56
)

// Prompt is a pending hold-to-confirm switch change.
type Prompt struct {
	Relay     victron.Relay
	Target    bool
	Remaining time.Duration
}

// View is everything one tick of rendering depends on. Snapshot and Forecast
// are the last good readings and may be nil.
type View struct {
	Cursor   int
	Link     victron.ConnectionState
	Snapshot *victron.Snapshot
	Forecast *forecast.Hours
	Prompt   *Prompt
	Notice   string
	Now      time.Time
}

// Renderer composes frames. maxAge bounds how old a snapshot may get before
// its numbers degrade to placeholders.
type Renderer struct {
	maxAge time.Duration
}

func NewRenderer(maxAge time.Duration) *Renderer {
	return &Renderer{maxAge: maxAge}
}

// Render draws the screen selected by the view's cursor. Every screen gets
// the one-pixel frame border the panel has always carried.
func (r *Renderer) Render(v View) *Frame {
	f := NewFrame()
	f.Box(0, 0, Width, Height)
	for _, ln := range r.compose(v) {
		text := fit(ln.text)
		y := Baseline(ln.row)
		switch ln.align {
		case alignRight:
			f.TextRight(y, text)
		case alignCenter:
			f.TextCenter(y, text)
		default:
			f.Text(textInset, y, text)
		}
	}
	if text := r.overlayText(v); text != "" {
		f.ClearRect(0, overlayTop, Width, Height-overlayTop)
		f.Box(0, overlayTop, Width, Height-overlayTop)
		f.TextCenter(overlayBaseline, fit(text))
	}
	return f
}

// RenderMessage builds a frame of up to three centered lines, used for boot
// and discovery progress before the control loop owns the panel.
func RenderMessage(lines ...string) *Frame {
	f := NewFrame()
	f.Box(0, 0, Width, Height)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	baselines := [][]int{nil, {36}, {28, 44}, {20, 36, 52}}
	for i, s := range lines {
		f.TextCenter(baselines[len(lines)][i], fit(s))
	}
	return f
}

type align int

const (
	alignLeft align = iota
	alignRight
	alignCenter
)

// line is one positioned string; rows map through Baseline.
type line struct {
	row   int
	align align
	text  string
}

// degraded reports whether telemetry numbers must be replaced by
// placeholders: no snapshot yet, or the retained one aged past the bound.
// Link trouble alone does not blank the panel; the header tag carries it
// while the held numbers stay up.
func (r *Renderer) degraded(v View) bool {
	return v.Snapshot == nil || v.Snapshot.Age(v.Now) > r.maxAge
}

// linkTag is the header-corner indicator. Empty when telemetry is live.
func (r *Renderer) linkTag(v View) string {
	switch {
	case v.Link == victron.Stale:
		return "STALE"
	case v.Link != victron.Connected || v.Snapshot == nil:
		return "NO LINK"
	case v.Snapshot.Age(v.Now) > r.maxAge:
		return "STALE"
	default:
		return ""
	}
}

func (r *Renderer) compose(v View) []line {
	switch v.Cursor {
	case ScreenPV:
		return r.pvLines(v)
	case ScreenBattery:
		return r.batteryLines(v)
	case ScreenSun:
		return r.sunLines(v)
	default:
		return r.overviewLines(v)
	}
}

func (r *Renderer) header(v View, title string) []line {
	ls := []line{{0, alignLeft, title}}
	if tag := r.linkTag(v); tag != "" {
		ls = append(ls, line{0, alignRight, tag})
	}
	return ls
}

func (r *Renderer) overviewLines(v View) []line {
	degraded := r.degraded(v)
	snap := v.Snapshot
	if snap == nil {
		snap = &victron.Snapshot{}
	}

	battery := "--"
	relays := "GEN --  MP --"
	if !degraded {
		battery = fmt.Sprintf("%.0f%% %+.0fW", snap.BatterySoC, snap.BatteryPowerW)
		relays = fmt.Sprintf("GEN %s  MP %s", snap.Generator, snap.Multiplus)
	}

	return append(r.header(v, "SOLAR"),
		line{1, alignLeft, "PV"},
		line{1, alignRight, value(degraded, "%.0f W", snap.PVPowerW)},
		line{2, alignLeft, "BATT"},
		line{2, alignRight, battery},
		line{3, alignLeft, "LOAD"},
		line{3, alignRight, value(degraded, "%.0f W", snap.ACLoadTotalW())},
		line{4, alignLeft, relays},
	)
}

func (r *Renderer) batteryLines(v View) []line {
	degraded := r.degraded(v)
	snap := v.Snapshot
	if snap == nil {
		snap = &victron.Snapshot{}
	}

	state := "--"
	if !degraded {
		state = strings.ToUpper(snap.BatteryState.String())
	}

	return append(r.header(v, "BATTERY"),
		line{1, alignLeft, "SOC"},
		line{1, alignRight, value(degraded, "%.1f%%", snap.BatterySoC)},
		line{2, alignLeft, state},
		line{2, alignRight, value(degraded, "%+.0f W", snap.BatteryPowerW)},
		line{3, alignLeft, "LOAD"},
		line{3, alignRight, value(degraded, "%.0f W", snap.ACLoadTotalW())},
		line{4, alignLeft, "SOH"},
		line{4, alignRight, value(degraded, "%.1f%%", snap.BatterySoH)},
	)
}

// pvLines is the production detail screen: array output plus the day's yield.
func (r *Renderer) pvLines(v View) []line {
	degraded := r.degraded(v)
	snap := v.Snapshot
	if snap == nil {
		snap = &victron.Snapshot{}
	}

	return append(r.header(v, "PV"),
		line{1, alignLeft, "POWER"},
		line{1, alignRight, value(degraded, "%.0f W", snap.PVPowerW)},
		line{2, alignLeft, "YIELD"},
		line{2, alignRight, value(degraded, "%.1f kWh", snap.YieldTodayKWh)},
	)
}

// sunLines is link-independent: the forecast cache has its own freshness.
func (r *Renderer) sunLines(v View) []line {
	ls := []line{{0, alignLeft, "SUN"}}
	if v.Forecast == nil {
		return append(ls, line{2, alignCenter, "NO FORECAST"})
	}

	stamp := v.Forecast.FetchedAt.Format("01-02 15:04")
	footer := "AS OF " + stamp
	if v.Forecast.Stale {
		footer = "OLD " + stamp
	}

	return append(ls,
		line{1, alignLeft, "TODAY"},
		line{1, alignRight, fmt.Sprintf("%.1f h", v.Forecast.Today)},
		line{2, alignLeft, "TOMORROW"},
		line{2, alignRight, fmt.Sprintf("%.1f h", v.Forecast.Tomorrow)},
		line{3, alignLeft, "DAY+2"},
		line{3, alignRight, fmt.Sprintf("%.1f h", v.Forecast.DayAfter)},
		line{4, alignCenter, footer},
	)
}

// overlayText picks what the bottom band shows; a live prompt wins over a
// notice.
func (r *Renderer) overlayText(v View) string {
	if v.Prompt != nil {
		secs := int(math.Ceil(v.Prompt.Remaining.Seconds()))
		return fmt.Sprintf("%s %s IN %ds", RelayLabel(v.Prompt.Relay), onOff(v.Prompt.Target), secs)
	}
	return v.Notice
}

// RelayLabel is the short panel name of a relay, as shown on screen.
func RelayLabel(r victron.Relay) string {
	if r == victron.RelayGenerator {
		return "GEN"
	}
	return "MP"
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func value(degraded bool, format string, v float64) string {
	if degraded {
		return "--"
	}
	return fmt.Sprintf(format, v)
}
