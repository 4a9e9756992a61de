// Package config loads and persists the controller configuration file.
//
// The file is JSON, created with defaults on first run. The discovered
// device address is written back through SaveDeviceHost so discovery only
// ever runs once per installation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default file name, looked up next to the binary's working directory
// unless an explicit path is given.
const DefaultPath = "config.json"

// Config is the parsed, validated configuration.
type Config struct {
	DeviceHost string
	DevicePort int

	// Informative only: consumed by the out-of-process forecast collaborator.
	Latitude  float64
	Longitude float64

	DisplayRotation int // 0 or 2 (180°)
	I2CBus          int
	I2CAddress      uint16

	PollInterval     time.Duration
	ModbusTimeout    time.Duration
	WatchdogInterval time.Duration
	SnapshotMaxAge   time.Duration
	ConfirmHold      time.Duration
	ButtonDebounce   time.Duration
	IdleResetTicks   int

	ChargerUnits []uint8
	BMSUnit      uint8

	ForecastDir          string
	ForecastMaxAge       time.Duration
	ForecastRefreshTicks int

	GPIOChip     string
	PinGenerator int
	PinMultiplus int
	PinButton    int

	HTTPAddr   string
	MQTTBroker string
	LogLevel   string

	v    *viper.Viper
	path string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device_host", "")
	v.SetDefault("device_port", 502)
	v.SetDefault("latitude", 0.0)
	v.SetDefault("longitude", 0.0)
	v.SetDefault("display_rotation", 2)
	v.SetDefault("i2c_bus", 1)
	v.SetDefault("i2c_address", "0x3C")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("modbus_timeout", "5s")
	v.SetDefault("watchdog_interval", "60s")
	v.SetDefault("snapshot_max_age", "15s")
	v.SetDefault("confirm_hold", "5s")
	v.SetDefault("button_debounce", "250ms")
	v.SetDefault("idle_reset_ticks", 10)
	v.SetDefault("charger_units", []int{238, 239, 226, 224, 223})
	v.SetDefault("bms_unit", 225)
	v.SetDefault("forecast_dir", "")
	v.SetDefault("forecast_max_age", "12h")
	v.SetDefault("forecast_refresh_ticks", 300)
	v.SetDefault("gpio_chip", "gpiochip0")
	v.SetDefault("pin_generator", 17)
	v.SetDefault("pin_multiplus", 27)
	v.SetDefault("pin_button", 24)
	v.SetDefault("http_addr", ":9090")
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("log_level", "info")
}

// Load reads the config file at path, creating it with defaults if absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// First run: materialize the defaults so the operator has a file
		// to edit and discovery has somewhere to persist the host.
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default config %s: %w", path, err)
		}
	}

	return parse(v, path)
}

func parse(v *viper.Viper, path string) (*Config, error) {
	addr, err := ParseI2CAddress(v.GetString("i2c_address"))
	if err != nil {
		return nil, err
	}

	rotation := v.GetInt("display_rotation")
	if rotation != 0 && rotation != 2 {
		return nil, fmt.Errorf("display_rotation must be 0 or 2, got %d", rotation)
	}

	port := v.GetInt("device_port")
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("device_port out of range: %d", port)
	}

	poll := v.GetDuration("poll_interval")
	if poll <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %v", poll)
	}

	units, err := toUnitIDs(v.GetIntSlice("charger_units"))
	if err != nil {
		return nil, fmt.Errorf("charger_units: %w", err)
	}

	bms := v.GetInt("bms_unit")
	if bms < 1 || bms > 255 {
		return nil, fmt.Errorf("bms_unit out of range: %d", bms)
	}

	dir := v.GetString("forecast_dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home for forecast_dir: %w", err)
		}
		dir = home
	}

	cfg := &Config{
		DeviceHost:           v.GetString("device_host"),
		DevicePort:           port,
		Latitude:             v.GetFloat64("latitude"),
		Longitude:            v.GetFloat64("longitude"),
		DisplayRotation:      rotation,
		I2CBus:               v.GetInt("i2c_bus"),
		I2CAddress:           addr,
		PollInterval:         poll,
		ModbusTimeout:        v.GetDuration("modbus_timeout"),
		WatchdogInterval:     v.GetDuration("watchdog_interval"),
		SnapshotMaxAge:       v.GetDuration("snapshot_max_age"),
		ConfirmHold:          v.GetDuration("confirm_hold"),
		ButtonDebounce:       v.GetDuration("button_debounce"),
		IdleResetTicks:       v.GetInt("idle_reset_ticks"),
		ChargerUnits:         units,
		BMSUnit:              uint8(bms),
		ForecastDir:          filepath.Clean(dir),
		ForecastMaxAge:       v.GetDuration("forecast_max_age"),
		ForecastRefreshTicks: v.GetInt("forecast_refresh_ticks"),
		GPIOChip:             v.GetString("gpio_chip"),
		PinGenerator:         v.GetInt("pin_generator"),
		PinMultiplus:         v.GetInt("pin_multiplus"),
		PinButton:            v.GetInt("pin_button"),
		HTTPAddr:             v.GetString("http_addr"),
		MQTTBroker:           v.GetString("mqtt_broker"),
		LogLevel:             v.GetString("log_level"),
		v:                    v,
		path:                 path,
	}
	return cfg, nil
}

// SaveDeviceHost records the discovered device address in the config file
// so the subnet scan does not run again on the next start.
func (c *Config) SaveDeviceHost(host string) error {
	c.DeviceHost = host
	c.v.Set("device_host", host)
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("persist device_host: %w", err)
	}
	return nil
}

// ParseI2CAddress parses a "0x3C"-style hex string (a bare "3C" also works).
func ParseI2CAddress(s string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("i2c_address is empty")
	}
	n, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("i2c_address %q: %w", s, err)
	}
	if n == 0 || n > 0x7F {
		return 0, fmt.Errorf("i2c_address %q outside 7-bit range", s)
	}
	return uint16(n), nil
}

func toUnitIDs(raw []int) ([]uint8, error) {
	units := make([]uint8, 0, len(raw))
	for _, u := range raw {
		if u < 1 || u > 255 {
			return nil, fmt.Errorf("unit id out of range: %d", u)
		}
		units = append(units, uint8(u))
	}
	return units, nil
}
