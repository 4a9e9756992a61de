package screen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbraak/solar-display/internal/forecast"
	"github.com/hbraak/solar-display/internal/victron"
)

var renderNow = time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)

func sunnySnapshot(takenAt time.Time) *victron.Snapshot {
	return &victron.Snapshot{
		PVPowerW:       3170,
		BatterySoC:     87,
		BatteryPowerW:  450,
		BatteryState:   victron.BatteryCharging,
		BatteryVoltage: 51.2,
		BatterySoH:     99.8,
		ACLoadW:        [3]float64{300, 150, 220},
		YieldTodayKWh:  7.4,
		Generator:      victron.RelayOff,
		Multiplus:      victron.RelayOn,
		TakenAt:        takenAt,
	}
}

func liveView(cursor int) View {
	return View{
		Cursor:   cursor,
		Link:     victron.Connected,
		Snapshot: sunnySnapshot(renderNow),
		Now:      renderNow,
	}
}

func texts(ls []line) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.text)
	}
	return out
}

func TestOverviewShowsLiveTelemetry(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	got := texts(r.compose(liveView(ScreenOverview)))

	assert.Contains(t, got, "SOLAR")
	assert.Contains(t, got, "3170 W")
	assert.Contains(t, got, "87% +450W")
	assert.Contains(t, got, "670 W")
	assert.Contains(t, got, "GEN OFF  MP ON")
	assert.NotContains(t, got, "NO LINK")
	assert.NotContains(t, got, "--")
}

func TestPVScreen(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	got := texts(r.compose(liveView(ScreenPV)))

	assert.Contains(t, got, "PV")
	assert.Contains(t, got, "3170 W")
	assert.Contains(t, got, "7.4 kWh")
}

func TestBatteryScreen(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	got := texts(r.compose(liveView(ScreenBattery)))

	assert.Contains(t, got, "BATTERY")
	assert.Contains(t, got, "87.0%")
	assert.Contains(t, got, "CHARGING")
	assert.Contains(t, got, "+450 W")
	assert.Contains(t, got, "670 W")
	assert.Contains(t, got, "99.8%")
}

// The button walks overview, PV detail, battery, sunshine, in that order.
func TestButtonOrderOfScreens(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	titles := make([]string, 0, ScreenCount)
	for cursor := 0; cursor < ScreenCount; cursor++ {
		titles = append(titles, r.compose(liveView(cursor))[0].text)
	}

	assert.Equal(t, []string{"SOLAR", "PV", "BATTERY", "SUN"}, titles)
}

func TestTelemetryScreensDegradeWithoutSnapshot(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	for cursor := ScreenOverview; cursor <= ScreenBattery; cursor++ {
		got := texts(r.compose(View{Cursor: cursor, Link: victron.Disconnected, Now: renderNow}))
		assert.Contains(t, got, "NO LINK", "cursor %d", cursor)
		assert.Contains(t, got, "--", "cursor %d", cursor)
	}
}

// A dropped link must not blank a snapshot that is still inside the age
// bound; the held numbers stay up with the header tag flagging the outage.
func TestLinkDownKeepsRetainedNumbers(t *testing.T) {
	r := NewRenderer(15 * time.Second)
	v := liveView(ScreenOverview)
	v.Snapshot = sunnySnapshot(renderNow.Add(-2 * time.Second))
	v.Link = victron.Disconnected

	got := texts(r.compose(v))

	assert.Contains(t, got, "NO LINK")
	assert.Contains(t, got, "3170 W")
	assert.NotContains(t, got, "--")
}

func TestOldSnapshotShowsStale(t *testing.T) {
	r := NewRenderer(5 * time.Second)
	v := liveView(ScreenOverview)
	v.Snapshot = sunnySnapshot(renderNow.Add(-10 * time.Second))

	got := texts(r.compose(v))

	assert.Contains(t, got, "STALE")
	assert.Contains(t, got, "--")
}

func TestWatchdogStaleTag(t *testing.T) {
	r := NewRenderer(time.Hour)
	v := liveView(ScreenOverview)
	v.Link = victron.Stale

	got := texts(r.compose(v))

	assert.Contains(t, got, "STALE")
	assert.Contains(t, got, "3170 W", "held numbers keep showing under the tag")
}

func TestSunScreen(t *testing.T) {
	r := NewRenderer(5 * time.Second)
	v := liveView(ScreenSun)
	v.Forecast = &forecast.Hours{
		Today:     9.5,
		Tomorrow:  7.0,
		DayAfter:  2.5,
		FetchedAt: time.Date(2025, 6, 21, 12, 30, 0, 0, time.UTC),
	}

	got := texts(r.compose(v))

	assert.Contains(t, got, "SUN")
	assert.Contains(t, got, "9.5 h")
	assert.Contains(t, got, "7.0 h")
	assert.Contains(t, got, "2.5 h")
	assert.Contains(t, got, "AS OF 06-21 12:30")
}

func TestSunScreenIgnoresLinkState(t *testing.T) {
	r := NewRenderer(5 * time.Second)
	v := View{Cursor: ScreenSun, Link: victron.Disconnected, Now: renderNow,
		Forecast: &forecast.Hours{Today: 1, FetchedAt: renderNow}}

	got := texts(r.compose(v))

	assert.NotContains(t, got, "NO LINK")
}

func TestSunScreenStaleAndMissingForecast(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	v := liveView(ScreenSun)
	v.Forecast = &forecast.Hours{Today: 9.5, Stale: true,
		FetchedAt: time.Date(2025, 6, 20, 6, 0, 0, 0, time.UTC)}
	assert.Contains(t, texts(r.compose(v)), "OLD 06-20 06:00")

	v.Forecast = nil
	assert.Contains(t, texts(r.compose(v)), "NO FORECAST")
}

func TestOverlayPromptCountdown(t *testing.T) {
	r := NewRenderer(5 * time.Second)
	v := liveView(ScreenOverview)
	v.Prompt = &Prompt{Relay: victron.RelayGenerator, Target: true, Remaining: 3 * time.Second}

	assert.Equal(t, "GEN ON IN 3s", r.overlayText(v))

	v.Prompt.Remaining = 2500 * time.Millisecond
	assert.Equal(t, "GEN ON IN 3s", r.overlayText(v), "countdown rounds up")

	v.Prompt = &Prompt{Relay: victron.RelayMultiplus, Target: false, Remaining: 5 * time.Second}
	assert.Equal(t, "MP OFF IN 5s", r.overlayText(v))
}

func TestOverlayPromptBeatsNotice(t *testing.T) {
	r := NewRenderer(5 * time.Second)
	v := liveView(ScreenOverview)
	v.Notice = "GEN WRITE FAILED"

	assert.Equal(t, "GEN WRITE FAILED", r.overlayText(v))

	v.Prompt = &Prompt{Relay: victron.RelayGenerator, Target: true, Remaining: time.Second}
	assert.Equal(t, "GEN ON IN 1s", r.overlayText(v))
}

func TestRenderDrawsPixels(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	f := r.Render(liveView(ScreenOverview))
	require.Greater(t, f.LitPixels(), 100)

	// The overlay band draws its box outline.
	v := liveView(ScreenOverview)
	v.Prompt = &Prompt{Relay: victron.RelayGenerator, Target: true, Remaining: time.Second}
	f = r.Render(v)
	assert.True(t, f.On(0, overlayTop))
	assert.True(t, f.On(Width-1, Height-1))
}

// Every screen carries the one-pixel frame border.
func TestRenderDrawsFrameBorder(t *testing.T) {
	r := NewRenderer(5 * time.Second)

	for cursor := 0; cursor < ScreenCount; cursor++ {
		f := r.Render(liveView(cursor))
		assert.True(t, f.On(0, 0), "cursor %d", cursor)
		assert.True(t, f.On(Width-1, 0), "cursor %d", cursor)
		assert.True(t, f.On(0, Height-1), "cursor %d", cursor)
		assert.True(t, f.On(Width-1, Height-1), "cursor %d", cursor)
		assert.True(t, f.On(Width/2, 0), "cursor %d", cursor)
		assert.True(t, f.On(0, Height/2), "cursor %d", cursor)
	}
}

func TestRenderMessage(t *testing.T) {
	f := RenderMessage("SEARCHING DEVICE", "192.168.1.0/24")
	assert.Greater(t, f.LitPixels(), 50)
	assert.True(t, f.On(0, 0))
	assert.True(t, f.On(Width-1, Height-1))
}

func TestFitTruncatesLongLines(t *testing.T) {
	long := "THIS LINE IS FAR TOO LONG FOR THE PANEL"
	assert.LessOrEqual(t, len(fit(long))*glyphWidth, Width)
}
