// Command solar-display drives the front panel of an off-grid solar
// installation: it polls a Victron GX device over Modbus TCP, renders
// telemetry on an SH1106 OLED and executes the panel's relay switches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/hbraak/solar-display/internal/config"
	"github.com/hbraak/solar-display/internal/controller"
	"github.com/hbraak/solar-display/internal/discovery"
	"github.com/hbraak/solar-display/internal/display"
	"github.com/hbraak/solar-display/internal/forecast"
	"github.com/hbraak/solar-display/internal/input"
	"github.com/hbraak/solar-display/internal/logger"
	"github.com/hbraak/solar-display/internal/mqtt"
	"github.com/hbraak/solar-display/internal/screen"
	"github.com/hbraak/solar-display/internal/status"
	"github.com/hbraak/solar-display/internal/victron"
	"github.com/hbraak/solar-display/internal/web"
)

// noticeTicks is how many refresh cycles a transient notice ("GEN SWITCHED
// ON") stays on screen. Three seconds at the default poll interval.
const noticeTicks = 3

// probeTimeout bounds a single discovery probe. Short on purpose: a GX
// device on the local segment answers in single-digit milliseconds.
const probeTimeout = 300 * time.Millisecond

// discoveryTimeout bounds the whole subnet sweep.
const discoveryTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Get(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init i2c host: %w", err)
	}

	disp, err := display.NewSH1106(strconv.Itoa(cfg.I2CBus), cfg.I2CAddress, cfg.DisplayRotation)
	if err != nil {
		return fmt.Errorf("open display: %w", err)
	}
	defer disp.Close()

	if err := disp.Show(screen.RenderMessage("SOLAR DISPLAY", "STARTING")); err != nil {
		log.Warnw("boot screen", "error", err)
	}

	deviceHost := cfg.DeviceHost
	if deviceHost == "" {
		deviceHost, err = discoverDevice(cfg, disp, log)
		if err != nil {
			return err
		}
	}

	pins, err := input.NewRealPins(input.PinConfig{
		Chip:      cfg.GPIOChip,
		Generator: cfg.PinGenerator,
		Multiplus: cfg.PinMultiplus,
		Button:    cfg.PinButton,
		Debounce:  cfg.ButtonDebounce,
	})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer pins.Close()

	transport, err := victron.NewModbusTransport(deviceHost, cfg.DevicePort, cfg.ModbusTimeout)
	if err != nil {
		return fmt.Errorf("init modbus transport: %w", err)
	}
	link := victron.NewLink(transport, victron.Units{
		Chargers: cfg.ChargerUnits,
		BMS:      cfg.BMSUnit,
	}, cfg.WatchdogInterval, log, time.Now)
	defer link.Close()

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTTBroker != "" {
		rp, err := mqtt.NewRealPublisher(cfg.MQTTBroker, log)
		if err != nil {
			return fmt.Errorf("init mqtt publisher: %w", err)
		}
		defer rp.Close()
		publisher = rp
		mqttStatus = rp
	} else {
		log.Infow("mqtt publishing disabled, no broker configured")
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceHost:   deviceHost,
		DevicePort:   cfg.DevicePort,
		PollInterval: cfg.PollInterval,
		Watchdog:     cfg.WatchdogInterval,
		Broker:       cfg.MQTTBroker,
		HTTPAddr:     cfg.HTTPAddr,
	})

	startup := mqtt.SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnw("publish startup event", "error", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	ctrl := controller.New(controller.Deps{
		Link:       link,
		Pins:       pins,
		Display:    disp,
		Renderer:   screen.NewRenderer(cfg.SnapshotMaxAge),
		Forecasts:  forecast.NewStore(cfg.ForecastDir, cfg.ForecastMaxAge),
		Publisher:  publisher,
		MQTTStatus: mqttStatus,
		Tracker:    tracker,
	}, controller.Config{
		ConfirmHold:          cfg.ConfirmHold,
		IdleResetTicks:       cfg.IdleResetTicks,
		ForecastRefreshTicks: cfg.ForecastRefreshTicks,
		NoticeTicks:          noticeTicks,
	}, log, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// The name travels over a buffered channel so the SHUTDOWN event can be
	// published from here, after Run has returned and before the deferred
	// publisher Close runs.
	sigName := make(chan string, 1)
	go func() {
		s := <-sigCh
		log.Infow("received signal, shutting down", "signal", sigString(s))
		sigName <- sigString(s)
		cancel()
	}()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	log.Infow("started",
		"device", fmt.Sprintf("%s:%d", deviceHost, cfg.DevicePort),
		"poll", cfg.PollInterval,
		"confirm_hold", cfg.ConfirmHold,
		"broker", cfg.MQTTBroker,
	)

	if err := ctrl.Run(ctx, ticker.C); err != nil {
		return err
	}

	reason := ""
	select {
	case reason = <-sigName:
	default:
	}
	shutdown := mqtt.SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: reason}
	if err := publisher.PublishSystem(shutdown); err != nil {
		log.Warnw("publish shutdown event", "error", err)
	}
	return nil
}

// discoverDevice sweeps the local /24 for a Modbus responder, shows the
// sweep's progress on the panel and persists the first hit back to the
// config file so the next start connects directly.
func discoverDevice(cfg *config.Config, disp display.Device, log *logger.Logger) (string, error) {
	log.Infow("no device host configured, scanning subnet")

	probe := discovery.NewModbusProbe(cfg.DevicePort, probeTimeout)
	scanner := discovery.New(probe, log, discovery.WithProgress(func(h string) {
		if err := disp.Show(screen.RenderMessage("SEARCHING FOR GX", h)); err != nil {
			log.Debugw("progress screen", "error", err)
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()

	found, err := scanner.Find(ctx)
	if err != nil {
		if errors.Is(err, discovery.ErrNotFound) || errors.Is(err, context.DeadlineExceeded) {
			if showErr := disp.Show(screen.RenderMessage("NO DEVICE FOUND", "CHECK NETWORK")); showErr != nil {
				log.Warnw("error screen", "error", showErr)
			}
		}
		return "", fmt.Errorf("discover device: %w", err)
	}

	if err := cfg.SaveDeviceHost(found); err != nil {
		// A scan on every boot is tolerable; a dead panel is not.
		log.Warnw("persist device host", "error", err)
	}
	return found, nil
}

// sigString names the shutdown signal for the SHUTDOWN event payload.
func sigString(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
