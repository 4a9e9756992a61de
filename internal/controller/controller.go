// Package controller runs the control loop: one goroutine that polls the
// device link, drains operator input, advances the screen and confirmation
// state machines, and pushes frames to the display. Nothing in here may
// stop the loop; keeping the display alive is the availability guarantee.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hbraak/solar-display/internal/display"
	"github.com/hbraak/solar-display/internal/forecast"
	"github.com/hbraak/solar-display/internal/input"
	"github.com/hbraak/solar-display/internal/logger"
	"github.com/hbraak/solar-display/internal/mqtt"
	"github.com/hbraak/solar-display/internal/screen"
	"github.com/hbraak/solar-display/internal/status"
	"github.com/hbraak/solar-display/internal/victron"
)

// Config holds the loop's tunables.
type Config struct {
	// ConfirmHold is how long a flipped switch must be held before the
	// relay is written.
	ConfirmHold time.Duration
	// IdleResetTicks is how many press-less ticks return the display to
	// the overview screen.
	IdleResetTicks int
	// ForecastRefreshTicks is the cache re-read cadence.
	ForecastRefreshTicks int
	// NoticeTicks is how long a transient notice stays on screen.
	NoticeTicks int
}

// Deps are the devices and sinks the loop drives.
type Deps struct {
	Link       *victron.Link
	Pins       input.Pins
	Display    display.Device
	Renderer   *screen.Renderer
	Forecasts  *forecast.Store
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
}

// Controller owns all mutable loop state. Not safe for concurrent use;
// Run is its only driver.
type Controller struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
	now  func() time.Time

	generator *input.Toggle
	multiplus *input.Toggle

	held        *victron.Snapshot
	sun         *forecast.Hours
	cursor      int
	idleTicks   int
	notice      string
	noticeLeft  int
	ticks       int
	counts      status.Counts
	pollFailing bool
}

// New wires a controller. The clock is injectable for tests.
func New(deps Deps, cfg Config, log *logger.Logger, now func() time.Time) *Controller {
	return &Controller{
		deps:      deps,
		cfg:       cfg,
		log:       log,
		now:       now,
		generator: input.NewToggle(cfg.ConfirmHold),
		multiplus: input.NewToggle(cfg.ConfirmHold),
	}
}

// Run executes one tick per tick-channel delivery until the context is
// canceled. It returns nil on clean shutdown.
func (c *Controller) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			c.Tick(c.now())
		}
	}
}

// Tick runs one full loop iteration at the given instant.
func (c *Controller) Tick(now time.Time) {
	c.ticks++
	c.expireNotice()

	c.poll()
	link := c.deps.Link.State()

	c.handlePresses()
	c.handleToggles(now)
	c.refreshForecast(now)

	frame := c.deps.Renderer.Render(screen.View{
		Cursor:   c.cursor,
		Link:     link,
		Snapshot: c.held,
		Forecast: c.sun,
		Prompt:   c.prompt(now),
		Notice:   c.notice,
		Now:      now,
	})
	if err := c.deps.Display.Show(frame); err != nil {
		c.log.Warnw("display write failed", "err", err)
	}

	c.deps.Tracker.UpdateTick(link, c.held, c.sun, c.cursor, c.counts)
	if c.deps.MQTTStatus != nil {
		c.deps.Tracker.SetMQTTConnected(c.deps.MQTTStatus.IsConnected())
	}
}

// poll acquires one snapshot. Failures keep whatever snapshot is already
// held; the renderer degrades by age and link state instead.
func (c *Controller) poll() {
	c.counts.Polls++
	snap, err := c.deps.Link.AcquireSnapshot()
	if err != nil {
		c.counts.PollFailures++
		if !c.pollFailing {
			c.log.Warnw("telemetry poll failed", "err", err)
			c.pollFailing = true
		}
		return
	}
	if c.pollFailing {
		c.log.Infow("telemetry restored")
		c.pollFailing = false
	}
	c.held = snap
	if err := c.deps.Publisher.PublishTelemetry(snap); err != nil {
		c.log.Warnw("telemetry publish failed", "err", err)
	}
}

func (c *Controller) handlePresses() {
	presses := input.DrainPresses(c.deps.Pins.Presses())
	if presses == 0 {
		c.idleTicks++
		if c.idleTicks >= c.cfg.IdleResetTicks {
			c.cursor = screen.ScreenOverview
		}
		return
	}
	c.counts.Presses += presses
	c.cursor = (c.cursor + presses) % screen.ScreenCount
	c.idleTicks = 0
}

func (c *Controller) handleToggles(now time.Time) {
	gen, mp, err := c.deps.Pins.ReadToggles()
	if err != nil {
		c.log.Warnw("switch read failed", "err", err)
		return
	}
	c.applyToggle(c.generator, victron.RelayGenerator, gen, now)
	c.applyToggle(c.multiplus, victron.RelayMultiplus, mp, now)
}

func (c *Controller) applyToggle(t *input.Toggle, relay victron.Relay, position bool, now time.Time) {
	evt, ok := t.Update(position, now)
	if !ok {
		return
	}
	switch evt.Kind {
	case input.Confirmed:
		c.counts.Confirms++
		c.writeRelay(relay, evt.Position, now)
	case input.Cancelled:
		c.counts.Cancels++
		c.log.Infow("switch change cancelled",
			"relay", relay.String(), "target", victron.RelayState(evt.Position).String())
		c.setNotice(screen.RelayLabel(relay) + " NOT SWITCHED")
	}
}

// writeRelay issues the single write a confirmed hold earns. Failures are
// surfaced once on screen and in the relay event; there is no retry.
func (c *Controller) writeRelay(relay victron.Relay, on bool, now time.Time) {
	c.counts.RelayWrites++
	target := victron.RelayState(on)
	evt := mqtt.RelayEvent{
		ID:        uuid.NewString(),
		Timestamp: now,
		Relay:     relay,
		Target:    on,
		OK:        true,
	}

	if err := c.deps.Link.WriteRelay(relay, on); err != nil {
		c.counts.RelayFailures++
		evt.OK = false
		evt.Error = err.Error()
		c.log.Errorw("relay write failed",
			"relay", relay.String(), "target", target.String(), "err", err)
		c.setNotice(screen.RelayLabel(relay) + " WRITE FAILED")
	} else {
		c.log.Infow("relay written", "relay", relay.String(), "target", target.String())
		c.setNotice(fmt.Sprintf("%s SWITCHED %s", screen.RelayLabel(relay), target))
	}

	if err := c.deps.Publisher.PublishRelay(evt); err != nil {
		c.log.Warnw("relay event publish failed", "err", err)
	}
}

func (c *Controller) refreshForecast(now time.Time) {
	due := c.ticks == 1 ||
		(c.cfg.ForecastRefreshTicks > 0 && c.ticks%c.cfg.ForecastRefreshTicks == 0)
	if !due {
		return
	}
	sun, err := c.deps.Forecasts.Read(now)
	if err != nil {
		if !errors.Is(err, forecast.ErrUnavailable) {
			c.log.Warnw("forecast cache read failed", "err", err)
		}
		c.sun = nil
		return
	}
	c.sun = sun
}

// prompt reports the toggle currently inside its confirmation window.
// When both switches are held at once the generator, as the heavier
// action, takes the band.
func (c *Controller) prompt(now time.Time) *screen.Prompt {
	if target, remaining, armed := c.generator.Pending(now); armed {
		return &screen.Prompt{Relay: victron.RelayGenerator, Target: target, Remaining: remaining}
	}
	if target, remaining, armed := c.multiplus.Pending(now); armed {
		return &screen.Prompt{Relay: victron.RelayMultiplus, Target: target, Remaining: remaining}
	}
	return nil
}

func (c *Controller) setNotice(text string) {
	c.notice = text
	c.noticeLeft = c.cfg.NoticeTicks
}

// expireNotice ages the transient notice at the top of the tick, so a
// notice set during tick N is visible for the full NoticeTicks frames.
func (c *Controller) expireNotice() {
	if c.noticeLeft == 0 {
		return
	}
	c.noticeLeft--
	if c.noticeLeft == 0 {
		c.notice = ""
	}
}
