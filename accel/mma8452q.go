package accel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/baconcape"
)

// DefaultDevice is the I2C bus the cape wires the accelerometer to.
const DefaultDevice = "/dev/i2c-2"

var (
	ErrNotConfigured      = errors.New("mma8452q: not configured")
	ErrAlreadyConfigured  = errors.New("mma8452q: already configured")
	ErrDeviceOpen         = errors.New("mma8452q: could not open i2c device")
	ErrBusBind            = errors.New("mma8452q: could not bind i2c address")
	ErrIdentityMismatch   = errors.New("mma8452q: identity mismatch")
	ErrRegisterWrite      = errors.New("mma8452q: register write failed")
	ErrIO                 = errors.New("mma8452q: bus transfer failed")
	ErrNotReady           = errors.New("mma8452q: no new sample available")
	ErrInvalidSensitivity = errors.New("mma8452q: invalid sensitivity")
	ErrInvalidConfig      = errors.New("mma8452q: invalid configuration")
	ErrModeMismatch       = errors.New("mma8452q: device did not confirm active mode")
)

// ModePolicy controls standby/active switching around register reads.
type ModePolicy int

const (
	// ModeBracketed puts the device in standby before every register access and
	// back to active afterwards.
	ModeBracketed ModePolicy = iota
	// ModeDirect reads registers without touching the mode. Configuration writes
	// are still done in standby since the device ignores them while active.
	ModeDirect
)

func (p ModePolicy) String() string {
	if p == ModeDirect {
		return "direct"
	}
	return "bracketed"
}

type MMA8452QOpts struct {
	Device      string
	Address     byte
	ODR         OutputDataRate
	DataConfig  DataConfig
	SettleDelay time.Duration
	ModePolicy  ModePolicy
	VerifyMode  bool
}

type MMA8452QOpt func(*MMA8452QOpts)

func WithDevice(path string) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.Device = path
	}
}

func WithAddress(address byte) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.Address = address
	}
}

// WithAddressSelect sets the address from the SA0 strap (0 gives 0x1C, 1 gives 0x1D).
func WithAddressSelect(sa0 byte) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.Address = BaseAddress | (sa0 & 0x01)
	}
}

func WithOutputDataRate(odr OutputDataRate) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.ODR = odr
	}
}

func WithSensitivity(s Sensitivity) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.DataConfig.Sensitivity = s
	}
}

func WithHighPassFilter(enabled bool) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.DataConfig.HighPassFilter = enabled
	}
}

// WithSettleDelay sets the wait between selecting a register and reading it.
func WithSettleDelay(delay time.Duration) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.SettleDelay = delay
	}
}

func WithModePolicy(p ModePolicy) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.ModePolicy = p
	}
}

// WithModeVerification makes every switch to active read SYSMOD back and fail with
// ErrModeMismatch when the device still reports standby.
func WithModeVerification(enabled bool) MMA8452QOpt {
	return func(o *MMA8452QOpts) {
		o.VerifyMode = enabled
	}
}

func (o MMA8452QOpts) validate() error {
	if o.Address > 0x7F {
		return fmt.Errorf("%w: address %#x is not a 7-bit address", ErrInvalidConfig, o.Address)
	}
	if !o.ODR.Valid() {
		return fmt.Errorf("%w: output data rate %s", ErrInvalidConfig, o.ODR)
	}
	if o.ModePolicy != ModeBracketed && o.ModePolicy != ModeDirect {
		return fmt.Errorf("%w: mode policy %d", ErrInvalidConfig, o.ModePolicy)
	}
	if _, err := o.DataConfig.Encode(); err != nil {
		return err
	}
	return nil
}

// MMA8452Q represents NXP MMA8452Q 3-axis 12-bit accelerometer
// See: https://www.nxp.com/docs/en/data-sheet/MMA8452Q.pdf
//
// Typical usage:
//
//	a := NewMMA8452Q(i2c.Open, WithAddressSelect(1), WithSensitivity(Sensitivity4G))
//	if err := a.Setup(ctx); err != nil { ... }
//	defer a.Close()
//	s, err := a.ReadSample(ctx) // ErrNotReady until the next ODR tick
//
// The driver keeps a mirror of the last parsed register values. Mode is the last
// commanded mode unless re-read with ReadMode.
type MMA8452Q struct {
	mx     sync.Mutex
	config MMA8452QOpts
	open   baconcape.I2CPortOpener
	port   baconcape.I2CPort
	dev    baconcape.I2CDevice
	buf    []byte

	configured bool
	mode       Mode
	odr        OutputDataRate
	dataConfig DataConfig
	intSource  InterruptSource
	sample     Sample
}

// NewMMA8452Q creates an unconfigured driver. open is used by Setup to reach the bus.
func NewMMA8452Q(open baconcape.I2CPortOpener, opts ...MMA8452QOpt) *MMA8452Q {
	config := MMA8452QOpts{
		Device:      DefaultDevice,
		Address:     BaseAddress,
		ODR:         ODR800Hz,
		DataConfig:  DataConfig{Sensitivity: Sensitivity2G},
		SettleDelay: 10 * time.Millisecond,
		ModePolicy:  ModeBracketed,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &MMA8452Q{
		config:     config,
		open:       open,
		buf:        make([]byte, 1),
		odr:        config.ODR,
		dataConfig: config.DataConfig,
	}
}

// Setup opens the bus, checks the device identity and applies the output data rate
// and data configuration, leaving the device active. Any failure releases the bus
// and leaves the driver unconfigured.
func (a *MMA8452Q) Setup(ctx context.Context) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if a.configured {
		return ErrAlreadyConfigured
	}
	if err := a.config.validate(); err != nil {
		return err
	}
	port, err := a.open(a.config.Device)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrDeviceOpen, a.config.Device, err)
	}
	dev, err := port.Bind(a.config.Address)
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("%w %#x: %w", ErrBusBind, a.config.Address, err)
	}
	a.port = port
	a.dev = dev
	a.configured = true

	err = a.initialize(ctx)
	if err != nil {
		if cerr := a.release(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	slog.Debug("mma8452q configured", "addr", fmt.Sprintf("%#x", a.config.Address),
		"odr", a.odr, "sensitivity", a.dataConfig.Sensitivity, "hpf", a.dataConfig.HighPassFilter)
	return nil
}

func (a *MMA8452Q) initialize(ctx context.Context) error {
	// ODR and full-scale registers are write-protected while active
	if err := a.standby(ctx); err != nil {
		return fmt.Errorf("%w: standby: %w", ErrRegisterWrite, err)
	}
	id, err := a.readRegister(ctx, regWhoAmI)
	if err != nil {
		return fmt.Errorf("mma8452q: could not read identity: %w", err)
	}
	if id != identityValue {
		return fmt.Errorf("%w: got %#02x, expected %#02x", ErrIdentityMismatch, id, identityValue)
	}
	if err := a.writeODR(ctx, a.config.ODR); err != nil {
		return fmt.Errorf("%w: output data rate: %w", ErrRegisterWrite, err)
	}
	value, err := a.config.DataConfig.Encode()
	if err != nil {
		return err
	}
	if err := a.writeRegister(ctx, regXYZDataCfg, value); err != nil {
		return fmt.Errorf("%w: data config: %w", ErrRegisterWrite, err)
	}
	a.odr = a.config.ODR
	a.dataConfig = a.config.DataConfig
	if err := a.active(ctx); err != nil {
		return fmt.Errorf("%w: active: %w", ErrRegisterWrite, err)
	}
	a.sample = Sample{}
	return nil
}

// Close releases the bus. Calling it on an unconfigured driver is a no-op.
func (a *MMA8452Q) Close() error {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.release()
}

func (a *MMA8452Q) release() error {
	a.configured = false
	a.mode = ModeUnknown
	a.sample.Ready = false
	port := a.port
	a.port = nil
	a.dev = nil
	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrIO, err)
	}
	return nil
}

// ReadSample reads the status register and, when all three axes are fresh, the six
// data registers. ErrNotReady is the expected outcome when polling faster than the
// output data rate; the cached sample is left untouched in that case.
func (a *MMA8452Q) ReadSample(ctx context.Context) (Sample, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return Sample{}, ErrNotConfigured
	}
	a.sample.Ready = false
	var decoded Sample
	err := a.bracket(ctx, func() error {
		status, err := a.readRegister(ctx, regStatus)
		if err != nil {
			return err
		}
		if !parseStatus(status).XYZReady {
			return ErrNotReady
		}
		var raw [6]byte
		for i, reg := range [...]byte{regOutXMSB, regOutXLSB, regOutYMSB, regOutYLSB, regOutZMSB, regOutZLSB} {
			raw[i], err = a.readRegister(ctx, reg)
			if err != nil {
				return err
			}
		}
		decoded.X, decoded.Y, decoded.Z = DecodeXYZ(raw)
		decoded.Ready = true
		return nil
	})
	if err != nil {
		return a.sample, err
	}
	a.sample = decoded
	return a.sample, nil
}

// ReadMode reads SYSMOD and refreshes the cached mode. SYSMOD is read-only, so the
// read is never bracketed: forcing standby first would always report standby.
func (a *MMA8452Q) ReadMode(ctx context.Context) (SystemMode, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return 0, ErrNotConfigured
	}
	b, err := a.readRegister(ctx, regSysMod)
	if err != nil {
		return 0, err
	}
	sys := parseSystemMode(b)
	switch sys {
	case SystemStandby:
		a.mode = ModeStandby
	case SystemWake, SystemSleep:
		a.mode = ModeActive
	default:
		a.mode = ModeUnknown
	}
	return sys, nil
}

func (a *MMA8452Q) ReadInterruptSource(ctx context.Context) (InterruptSource, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return InterruptSource{}, ErrNotConfigured
	}
	var value byte
	err := a.bracket(ctx, func() error {
		var err error
		value, err = a.readRegister(ctx, regIntSource)
		return err
	})
	if err != nil {
		return a.intSource, err
	}
	a.intSource = parseInterruptSource(value)
	return a.intSource, nil
}

func (a *MMA8452Q) ReadDataConfig(ctx context.Context) (DataConfig, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return DataConfig{}, ErrNotConfigured
	}
	var value byte
	err := a.bracket(ctx, func() error {
		var err error
		value, err = a.readRegister(ctx, regXYZDataCfg)
		return err
	})
	if err != nil {
		return a.dataConfig, err
	}
	a.dataConfig = ParseDataConfig(value)
	return a.dataConfig, nil
}

// WriteDataConfig writes the full-scale range and high-pass filter setting. An
// invalid sensitivity is rejected before any bus traffic.
func (a *MMA8452Q) WriteDataConfig(ctx context.Context, cfg DataConfig) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return ErrNotConfigured
	}
	value, err := cfg.Encode()
	if err != nil {
		return err
	}
	err = a.inStandby(ctx, func() error {
		return a.writeRegister(ctx, regXYZDataCfg, value)
	})
	if err != nil {
		return err
	}
	a.dataConfig = cfg
	return nil
}

// ChangeODR rewrites the DR field of CTRL_REG1, preserving the other bits.
func (a *MMA8452Q) ChangeODR(ctx context.Context, odr OutputDataRate) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return ErrNotConfigured
	}
	if !odr.Valid() {
		return fmt.Errorf("%w: output data rate %s", ErrInvalidConfig, odr)
	}
	err := a.inStandby(ctx, func() error {
		return a.writeODR(ctx, odr)
	})
	if err != nil {
		return err
	}
	a.odr = odr
	return nil
}

// Identity reads WHO_AM_I and checks it against the MMA8452Q device ID.
func (a *MMA8452Q) Identity(ctx context.Context) (byte, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if !a.configured {
		return 0, ErrNotConfigured
	}
	var id byte
	err := a.bracket(ctx, func() error {
		var err error
		id, err = a.readRegister(ctx, regWhoAmI)
		return err
	})
	if err != nil {
		return 0, err
	}
	if id != identityValue {
		return id, fmt.Errorf("%w: got %#02x, expected %#02x", ErrIdentityMismatch, id, identityValue)
	}
	return id, nil
}

func (a *MMA8452Q) Configured() bool {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.configured
}

func (a *MMA8452Q) Mode() Mode {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.mode
}

func (a *MMA8452Q) Address() byte {
	return a.config.Address
}

func (a *MMA8452Q) LastSample() Sample {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.sample
}

func (a *MMA8452Q) InterruptSource() InterruptSource {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.intSource
}

func (a *MMA8452Q) DataConfig() DataConfig {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.dataConfig
}

func (a *MMA8452Q) OutputDataRate() OutputDataRate {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.odr
}

// bracket runs fn between standby and active under ModeBracketed, or directly under
// ModeDirect.
func (a *MMA8452Q) bracket(ctx context.Context, fn func() error) error {
	if a.config.ModePolicy == ModeDirect {
		return fn()
	}
	return a.inStandby(ctx, fn)
}

// inStandby runs fn with the device in standby. Active mode is restored even if fn
// fails; fn's error wins.
func (a *MMA8452Q) inStandby(ctx context.Context, fn func() error) error {
	if err := a.standby(ctx); err != nil {
		return err
	}
	err := fn()
	if aerr := a.active(context.WithoutCancel(ctx)); aerr != nil && err == nil {
		err = aerr
	}
	return err
}

func (a *MMA8452Q) standby(ctx context.Context) error {
	ctrl, err := a.readRegister(ctx, regCtrl1)
	if err != nil {
		return err
	}
	if err := a.writeRegister(ctx, regCtrl1, ctrl&^ctrl1Active); err != nil {
		a.mode = ModeUnknown
		return err
	}
	a.mode = ModeStandby
	return nil
}

func (a *MMA8452Q) active(ctx context.Context) error {
	ctrl, err := a.readRegister(ctx, regCtrl1)
	if err != nil {
		return err
	}
	if err := a.writeRegister(ctx, regCtrl1, ctrl|ctrl1Active); err != nil {
		a.mode = ModeUnknown
		return err
	}
	a.mode = ModeActive
	if !a.config.VerifyMode {
		return nil
	}
	sys, err := a.readRegister(ctx, regSysMod)
	if err != nil {
		a.mode = ModeUnknown
		return err
	}
	if parseSystemMode(sys) == SystemStandby {
		a.mode = ModeStandby
		return ErrModeMismatch
	}
	return nil
}

func (a *MMA8452Q) writeODR(ctx context.Context, odr OutputDataRate) error {
	ctrl, err := a.readRegister(ctx, regCtrl1)
	if err != nil {
		return err
	}
	ctrl = ctrl&^ctrl1ODRMask | byte(odr)<<ctrl1ODRShift&ctrl1ODRMask
	return a.writeRegister(ctx, regCtrl1, ctrl)
}

func (a *MMA8452Q) readRegister(ctx context.Context, reg byte) (byte, error) {
	if err := a.dev.Write(ctx, []byte{reg}); err != nil {
		return 0, fmt.Errorf("%w: select register %#02x: %w", ErrIO, reg, err)
	}
	if err := a.settle(ctx); err != nil {
		return 0, err
	}
	if err := a.dev.Read(ctx, a.buf); err != nil {
		return 0, fmt.Errorf("%w: read register %#02x: %w", ErrIO, reg, err)
	}
	return a.buf[0], nil
}

func (a *MMA8452Q) writeRegister(ctx context.Context, reg, value byte) error {
	if err := a.dev.Write(ctx, []byte{reg, value}); err != nil {
		return fmt.Errorf("%w: write register %#02x: %w", ErrIO, reg, err)
	}
	return nil
}

// settle gives the device time to latch the register pointer before a read.
func (a *MMA8452Q) settle(ctx context.Context) error {
	if a.config.SettleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(a.config.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
