package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/baconcape/accel"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baconcape.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "/dev/i2c-2", cfg.Accelerometer.Bus)
	assert.Equal(t, "P9_14", cfg.LEDs.Green)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
accelerometer:
  bus: mcp2221:0
  address_select: 1
  sensitivity: 8g
  high_pass_filter: true
  output_data_rate: 50hz
  settle_delay: 2ms
  mode_policy: direct
eeprom:
  address: 0x51
logger:
  level: debug
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "mcp2221:0", cfg.Accelerometer.Bus)
	assert.Equal(t, byte(1), cfg.Accelerometer.AddressSelect)
	assert.Equal(t, 2*time.Millisecond, cfg.Accelerometer.SettleDelay)
	assert.Equal(t, byte(0x51), cfg.EEPROM.Address)
	assert.Equal(t, "/dev/i2c-2", cfg.EEPROM.Bus, "unset keys keep defaults")
	assert.True(t, UsesBridge(cfg.Accelerometer.Bus))
	assert.False(t, UsesBridge(cfg.EEPROM.Bus))

	opts, err := cfg.Accelerometer.Options()
	require.NoError(t, err)
	var o accel.MMA8452QOpts
	for _, opt := range opts {
		opt(&o)
	}
	assert.Equal(t, accel.MMA8452QOpts{
		Device:      "mcp2221:0",
		Address:     0x1D,
		ODR:         accel.ODR50Hz,
		DataConfig:  accel.DataConfig{Sensitivity: accel.Sensitivity8G, HighPassFilter: true},
		SettleDelay: 2 * time.Millisecond,
		ModePolicy:  accel.ModeDirect,
	}, o)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACONCAPE_ACCEL_BUS", "/dev/i2c-1")
	t.Setenv("BACONCAPE_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-1", cfg.Accelerometer.Bus)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
accelerometer:
  address_select: 2
  sensitivity: 16g
  output_data_rate: 3hz
  mode_policy: lazy
eeprom:
  address: 0x60
leds:
  red: ""
logger:
  level: trace
`)

	_, err := Load(path)

	require.Error(t, err)
	for _, msg := range []string{
		"accelerometer.address_select",
		"accelerometer.sensitivity",
		"accelerometer.output_data_rate",
		"accelerometer.mode_policy",
		"eeprom.address",
		"leds.red is required",
		"logger.level",
	} {
		assert.Contains(t, err.Error(), msg)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "accelerometer: [")

	_, err := Load(path)

	assert.ErrorContains(t, err, "parse config")
}
