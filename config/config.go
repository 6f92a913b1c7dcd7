// Package config describes how the cape is wired to the board and how the
// accelerometer is configured. It is loaded from YAML; a missing file yields
// the stock cape layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/baconcape/accel"
	"github.com/mklimuk/baconcape/adapter"
	"github.com/mklimuk/baconcape/adc"
	"github.com/mklimuk/baconcape/display"
	"github.com/mklimuk/baconcape/gpio"
	"github.com/mklimuk/baconcape/i2c"
	eeprom "github.com/mklimuk/baconcape/memory/24lc256"
)

const envPrefix = "BACONCAPE_"

type Config struct {
	Accelerometer AccelConfig   `yaml:"accelerometer"`
	EEPROM        EEPROMConfig  `yaml:"eeprom"`
	LEDs          LEDConfig     `yaml:"leds"`
	Button        PinConfig     `yaml:"button"`
	Slider        PinConfig     `yaml:"slider"`
	Display       DisplayConfig `yaml:"display"`
	Logger        LoggerConfig  `yaml:"logger"`
}

type AccelConfig struct {
	// Bus is an I2C character device or an MCP2221 bridge path ("mcp2221[:n]").
	Bus            string        `yaml:"bus"`
	AddressSelect  byte          `yaml:"address_select"`
	Sensitivity    string        `yaml:"sensitivity"`
	HighPassFilter bool          `yaml:"high_pass_filter"`
	OutputDataRate string        `yaml:"output_data_rate"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ModePolicy     string        `yaml:"mode_policy"`
	VerifyMode     bool          `yaml:"verify_mode"`
}

type EEPROMConfig struct {
	Bus        string        `yaml:"bus"`
	Address    byte          `yaml:"address"`
	WriteCycle time.Duration `yaml:"write_cycle"`
}

type LEDConfig struct {
	Green string `yaml:"green"`
	Blue  string `yaml:"blue"`
	Red   string `yaml:"red"`
}

type PinConfig struct {
	Pin string `yaml:"pin"`
}

type DisplayConfig struct {
	ClearPin string `yaml:"clear_pin"`
	SPIBus   int    `yaml:"spi_bus"`
	SPIChip  int    `yaml:"spi_chip"`
	MaxSpeed int64  `yaml:"max_speed"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the stock bacon cape layout on a BeagleBone Black.
func Defaults() *Config {
	return &Config{
		Accelerometer: AccelConfig{
			Bus:            i2c.DefaultDevice,
			Sensitivity:    accel.Sensitivity2G.String(),
			OutputDataRate: accel.ODR800Hz.String(),
			SettleDelay:    10 * time.Millisecond,
			ModePolicy:     accel.ModeBracketed.String(),
		},
		EEPROM: EEPROMConfig{
			Bus:        i2c.DefaultDevice,
			Address:    eeprom.BaseAddress,
			WriteCycle: 5 * time.Millisecond,
		},
		LEDs: LEDConfig{
			Green: gpio.PinLEDGreen,
			Blue:  gpio.PinLEDBlue,
			Red:   gpio.PinLEDRed,
		},
		Button: PinConfig{Pin: gpio.PinButton},
		Slider: PinConfig{Pin: adc.PinSlider},
		Display: DisplayConfig{
			ClearPin: display.PinClear,
			SPIBus:   display.SPIBus,
			SPIChip:  display.SPIChip,
			MaxSpeed: display.SPIMaxSpeed,
		},
		Logger: LoggerConfig{Level: "info"},
	}
}

// DefaultPath is where the CLI looks for a config file when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "baconcape.yaml"
	}
	return filepath.Join(dir, "baconcape.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides lets the bus and log level be switched without editing the file.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envPrefix + "ACCEL_BUS"); v != "" {
		cfg.Accelerometer.Bus = v
	}
	if v := os.Getenv(envPrefix + "EEPROM_BUS"); v != "" {
		cfg.EEPROM.Bus = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Accelerometer.Bus == "" {
		errs = append(errs, errors.New("accelerometer.bus is required"))
	}
	if c.Accelerometer.AddressSelect > 1 {
		errs = append(errs, fmt.Errorf("accelerometer.address_select must be 0 or 1, got %d", c.Accelerometer.AddressSelect))
	}
	if _, err := accel.ParseSensitivity(c.Accelerometer.Sensitivity); err != nil {
		errs = append(errs, fmt.Errorf("accelerometer.sensitivity: %w", err))
	}
	if _, err := accel.ParseOutputDataRate(c.Accelerometer.OutputDataRate); err != nil {
		errs = append(errs, fmt.Errorf("accelerometer.output_data_rate: %w", err))
	}
	if _, err := parseModePolicy(c.Accelerometer.ModePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Accelerometer.SettleDelay < 0 {
		errs = append(errs, errors.New("accelerometer.settle_delay must not be negative"))
	}
	if c.EEPROM.Bus == "" {
		errs = append(errs, errors.New("eeprom.bus is required"))
	}
	if c.EEPROM.Address&^0x07 != eeprom.BaseAddress {
		errs = append(errs, fmt.Errorf("eeprom.address %#x is outside 0x50..0x57", c.EEPROM.Address))
	}
	for name, pin := range map[string]string{
		"leds.green":        c.LEDs.Green,
		"leds.blue":         c.LEDs.Blue,
		"leds.red":          c.LEDs.Red,
		"button.pin":        c.Button.Pin,
		"slider.pin":        c.Slider.Pin,
		"display.clear_pin": c.Display.ClearPin,
	} {
		if pin == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	if c.Display.MaxSpeed <= 0 {
		errs = append(errs, errors.New("display.max_speed must be positive"))
	}
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logger.level %q is not one of debug, info, warn, error", c.Logger.Level))
	}
	return errors.Join(errs...)
}

// Options turns the accelerometer section into driver options.
func (c AccelConfig) Options() ([]accel.MMA8452QOpt, error) {
	sens, err := accel.ParseSensitivity(c.Sensitivity)
	if err != nil {
		return nil, err
	}
	odr, err := accel.ParseOutputDataRate(c.OutputDataRate)
	if err != nil {
		return nil, err
	}
	policy, err := parseModePolicy(c.ModePolicy)
	if err != nil {
		return nil, err
	}
	return []accel.MMA8452QOpt{
		accel.WithDevice(c.Bus),
		accel.WithAddressSelect(c.AddressSelect),
		accel.WithSensitivity(sens),
		accel.WithHighPassFilter(c.HighPassFilter),
		accel.WithOutputDataRate(odr),
		accel.WithSettleDelay(c.SettleDelay),
		accel.WithModePolicy(policy),
		accel.WithModeVerification(c.VerifyMode),
	}, nil
}

// UsesBridge reports whether bus points at the MCP2221 USB bridge.
func UsesBridge(bus string) bool {
	return strings.HasPrefix(bus, adapter.PathPrefix)
}

func parseModePolicy(s string) (accel.ModePolicy, error) {
	switch strings.ToLower(s) {
	case "", accel.ModeBracketed.String():
		return accel.ModeBracketed, nil
	case accel.ModeDirect.String():
		return accel.ModeDirect, nil
	}
	return 0, fmt.Errorf("accelerometer.mode_policy %q is not one of bracketed, direct", s)
}
