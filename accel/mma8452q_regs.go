package accel

import (
	"fmt"
	"strings"
)

// MMA8452Q register map (datasheet section 6).
const (
	regStatus     byte = 0x00
	regOutXMSB    byte = 0x01
	regOutXLSB    byte = 0x02
	regOutYMSB    byte = 0x03
	regOutYLSB    byte = 0x04
	regOutZMSB    byte = 0x05
	regOutZLSB    byte = 0x06
	regSysMod     byte = 0x0B
	regIntSource  byte = 0x0C
	regWhoAmI     byte = 0x0D
	regXYZDataCfg byte = 0x0E
	regCtrl1      byte = 0x2A
)

// STATUS (0x00)
const (
	statusXAvailable   = 0b00000001
	statusYAvailable   = 0b00000010
	statusZAvailable   = 0b00000100
	statusXYZReady     = 0b00001000
	statusXOverwrite   = 0b00010000
	statusYOverwrite   = 0b00100000
	statusZOverwrite   = 0b01000000
	statusXYZOverwrite = 0b10000000
)

// INT_SOURCE (0x0C)
const (
	intSrcDataReady         = 0b00000001
	intSrcFreefallMotion    = 0b00000100
	intSrcPulse             = 0b00001000
	intSrcLandscapePortrait = 0b00010000
	intSrcTransient         = 0b00100000
	intSrcAutoSleepWake     = 0b10000000
)

// XYZ_DATA_CFG (0x0E)
const (
	dataCfgFS0    = 0b00000001
	dataCfgFS1    = 0b00000010
	dataCfgFSMask = dataCfgFS0 | dataCfgFS1
	dataCfgHPF    = 0b00010000
)

// CTRL_REG1 (0x2A) and SYSMOD (0x0B)
const (
	ctrl1Active   = 0b00000001
	ctrl1ODRMask  = 0b00111000
	ctrl1ODRShift = 3
	sysModMask    = 0b00000011
)

const (
	identityValue = 0x2A
	// BaseAddress is the 7-bit address with SA0 low; SA0 high selects 0x1D.
	BaseAddress = 0x1C
)

// Sensitivity selects the full-scale range.
type Sensitivity byte

const (
	Sensitivity2G Sensitivity = iota
	Sensitivity4G
	Sensitivity8G
)

func (s Sensitivity) Valid() bool {
	return s <= Sensitivity8G
}

// ScaleFactor is the full-scale magnitude in g.
func (s Sensitivity) ScaleFactor() float64 {
	switch s {
	case Sensitivity4G:
		return 4
	case Sensitivity8G:
		return 8
	default:
		return 2
	}
}

func (s Sensitivity) String() string {
	switch s {
	case Sensitivity2G:
		return "2g"
	case Sensitivity4G:
		return "4g"
	case Sensitivity8G:
		return "8g"
	default:
		return fmt.Sprintf("invalid(%d)", byte(s))
	}
}

func (s Sensitivity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2g", "2":
		return Sensitivity2G, nil
	case "4g", "4":
		return Sensitivity4G, nil
	case "8g", "8":
		return Sensitivity8G, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSensitivity, s)
}

// OutputDataRate is the 3-bit DR field of CTRL_REG1.
type OutputDataRate byte

const (
	ODR800Hz OutputDataRate = iota
	ODR400Hz
	ODR200Hz
	ODR100Hz
	ODR50Hz
	ODR12_5Hz
	ODR6_25Hz
	ODR1_56Hz
)

var odrNames = [...]string{"800hz", "400hz", "200hz", "100hz", "50hz", "12.5hz", "6.25hz", "1.56hz"}

var odrHertz = [...]float64{800, 400, 200, 100, 50, 12.5, 6.25, 1.5625}

func (o OutputDataRate) Valid() bool {
	return o <= ODR1_56Hz
}

func (o OutputDataRate) String() string {
	if !o.Valid() {
		return fmt.Sprintf("invalid(%d)", byte(o))
	}
	return odrNames[o]
}

// Hertz is the nominal sample frequency.
func (o OutputDataRate) Hertz() float64 {
	if !o.Valid() {
		return 0
	}
	return odrHertz[o]
}

func (o OutputDataRate) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

func ParseOutputDataRate(s string) (OutputDataRate, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(norm, "hz") {
		norm += "hz"
	}
	for i, name := range odrNames {
		if name == norm {
			return OutputDataRate(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown output data rate %q", ErrInvalidConfig, s)
}

// Mode is the operating mode last commanded to (or confirmed by) the device.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeStandby
	ModeActive
)

func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeActive:
		return "active"
	default:
		return "unknown"
	}
}

// SystemMode is the SYSMOD register content.
type SystemMode byte

const (
	SystemStandby SystemMode = 0b00
	SystemWake    SystemMode = 0b01
	SystemSleep   SystemMode = 0b10
)

func (m SystemMode) String() string {
	switch m {
	case SystemStandby:
		return "standby"
	case SystemWake:
		return "wake"
	case SystemSleep:
		return "sleep"
	default:
		return "invalid"
	}
}

func parseSystemMode(b byte) SystemMode {
	return SystemMode(b & sysModMask)
}

// Status is the parsed STATUS register.
type Status struct {
	XAvailable   bool
	YAvailable   bool
	ZAvailable   bool
	XYZReady     bool
	XOverwrite   bool
	YOverwrite   bool
	ZOverwrite   bool
	XYZOverwrite bool
}

func parseStatus(b byte) Status {
	return Status{
		XAvailable:   b&statusXAvailable != 0,
		YAvailable:   b&statusYAvailable != 0,
		ZAvailable:   b&statusZAvailable != 0,
		XYZReady:     b&statusXYZReady != 0,
		XOverwrite:   b&statusXOverwrite != 0,
		YOverwrite:   b&statusYOverwrite != 0,
		ZOverwrite:   b&statusZOverwrite != 0,
		XYZOverwrite: b&statusXYZOverwrite != 0,
	}
}

// InterruptSource is the parsed INT_SOURCE register.
type InterruptSource struct {
	DataReady         bool `yaml:"data_ready"`
	FreefallMotion    bool `yaml:"freefall_motion"`
	Pulse             bool `yaml:"pulse"`
	LandscapePortrait bool `yaml:"landscape_portrait"`
	Transient         bool `yaml:"transient"`
	AutoSleepWake     bool `yaml:"autosleep_wake"`
}

func parseInterruptSource(b byte) InterruptSource {
	return InterruptSource{
		DataReady:         b&intSrcDataReady != 0,
		FreefallMotion:    b&intSrcFreefallMotion != 0,
		Pulse:             b&intSrcPulse != 0,
		LandscapePortrait: b&intSrcLandscapePortrait != 0,
		Transient:         b&intSrcTransient != 0,
		AutoSleepWake:     b&intSrcAutoSleepWake != 0,
	}
}

// DataConfig is the XYZ_DATA_CFG register: full-scale range and high-pass output.
type DataConfig struct {
	Sensitivity    Sensitivity `yaml:"sensitivity"`
	HighPassFilter bool        `yaml:"high_pass_filter"`
}

// Encode composes the register byte. FS value 0b11 is reserved and rejected.
func (c DataConfig) Encode() (byte, error) {
	if !c.Sensitivity.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSensitivity, c.Sensitivity)
	}
	value := byte(c.Sensitivity) & dataCfgFSMask
	if c.HighPassFilter {
		value |= dataCfgHPF
	}
	return value, nil
}

// ParseDataConfig decodes an XYZ_DATA_CFG byte. A reserved FS field yields an
// invalid Sensitivity that callers can detect with Valid.
func ParseDataConfig(b byte) DataConfig {
	return DataConfig{
		Sensitivity:    Sensitivity(b & dataCfgFSMask),
		HighPassFilter: b&dataCfgHPF != 0,
	}
}
