package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	// The defaults must have been materialized on disk.
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	assert.Equal(t, "", cfg.DeviceHost)
	assert.Equal(t, 502, cfg.DevicePort)
	assert.Equal(t, 2, cfg.DisplayRotation)
	assert.Equal(t, 1, cfg.I2CBus)
	assert.Equal(t, uint16(0x3C), cfg.I2CAddress)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.ModbusTimeout)
	assert.Equal(t, 60*time.Second, cfg.WatchdogInterval)
	assert.Equal(t, 5*time.Second, cfg.ConfirmHold)
	assert.Equal(t, 250*time.Millisecond, cfg.ButtonDebounce)
	assert.Equal(t, 10, cfg.IdleResetTicks)
	assert.Equal(t, []uint8{238, 239, 226, 224, 223}, cfg.ChargerUnits)
	assert.Equal(t, uint8(225), cfg.BMSUnit)
	assert.Equal(t, "gpiochip0", cfg.GPIOChip)
	assert.Equal(t, 17, cfg.PinGenerator)
	assert.Equal(t, 27, cfg.PinMultiplus)
	assert.Equal(t, 24, cfg.PinButton)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "", cfg.MQTTBroker)
	assert.NotEmpty(t, cfg.ForecastDir, "forecast_dir should fall back to $HOME")
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "device_host": "192.168.1.65",
  "device_port": 1502,
  "display_rotation": 0,
  "i2c_address": "0x3D",
  "poll_interval": "2s",
  "charger_units": [238, 239],
  "mqtt_broker": "tcp://broker.local:1883"
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.65", cfg.DeviceHost)
	assert.Equal(t, 1502, cfg.DevicePort)
	assert.Equal(t, 0, cfg.DisplayRotation)
	assert.Equal(t, uint16(0x3D), cfg.I2CAddress)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, []uint8{238, 239}, cfg.ChargerUnits)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTTBroker)

	// Unset keys still carry defaults.
	assert.Equal(t, 60*time.Second, cfg.WatchdogInterval)
	assert.Equal(t, 10, cfg.IdleResetTicks)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad rotation", `{"display_rotation": 1}`},
		{"bad port", `{"device_port": 0}`},
		{"bad i2c address", `{"i2c_address": "zz"}`},
		{"i2c address out of range", `{"i2c_address": "0x90"}`},
		{"zero poll interval", `{"poll_interval": "0s"}`},
		{"charger unit out of range", `{"charger_units": [238, 300]}`},
		{"bms unit out of range", `{"bms_unit": 0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveDeviceHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.SaveDeviceHost("192.168.1.100"))
	assert.Equal(t, "192.168.1.100", cfg.DeviceHost)

	// Reload from disk and confirm persistence.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.100", reloaded.DeviceHost)
}

func TestParseI2CAddress(t *testing.T) {
	cases := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"0x3C", 0x3C, false},
		{"0x3d", 0x3D, false},
		{"3C", 0x3C, false},
		{" 0x3C ", 0x3C, false},
		{"", 0, true},
		{"0x", 0, true},
		{"0x80", 0, true},
		{"nope", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseI2CAddress(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
