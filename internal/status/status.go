// Package status provides a thread-safe status tracker for the display
// daemon. The control loop writes it once per tick; HTTP handlers and the
// metrics collector read it.
package status

import (
	"sync"
	"time"

	"github.com/hbraak/solar-display/internal/forecast"
	"github.com/hbraak/solar-display/internal/victron"
)

// Config contains daemon configuration for display on the status page.
type Config struct {
	DeviceHost   string
	DevicePort   int
	PollInterval time.Duration
	Watchdog     time.Duration
	Broker       string
	HTTPAddr     string
}

// Counts accumulates loop activity since startup.
type Counts struct {
	Polls         int
	PollFailures  int
	Presses       int
	Confirms      int
	Cancels       int
	RelayWrites   int
	RelayFailures int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Link          victron.ConnectionState
	Telemetry     *victron.Snapshot
	Forecast      *forecast.Hours
	Screen        int
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TelemetryAge returns how old the last good snapshot is, or false when
// there has never been one.
func (s Snapshot) TelemetryAge() (time.Duration, bool) {
	if s.Telemetry == nil {
		return 0, false
	}
	return s.Now.Sub(s.Telemetry.TakenAt), true
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateTick records the loop state. Called once per tick.
func (t *Tracker) UpdateTick(link victron.ConnectionState, telemetry *victron.Snapshot,
	fc *forecast.Hours, screen int, counts Counts) {
	t.mu.Lock()
	t.snap.Link = link
	t.snap.Telemetry = telemetry
	t.snap.Forecast = fc
	t.snap.Screen = screen
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the broker connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetDeviceHost records the discovered or configured device address.
func (t *Tracker) SetDeviceHost(host string) {
	t.mu.Lock()
	t.snap.Config.DeviceHost = host
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
