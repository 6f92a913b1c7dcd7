package gpio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/baconcape"
)

// Cape LED header pins (BeagleBone gpio50, gpio51 and gpio7).
const (
	PinLEDGreen = "P9_14"
	PinLEDBlue  = "P9_16"
	PinLEDRed   = "P9_42"
)

var (
	ErrNotConfigured     = errors.New("gpio: pin not configured")
	ErrAlreadyConfigured = errors.New("gpio: pin already configured")
)

// LED drives a single cape LED through a digital output pin.
type LED struct {
	mx         sync.Mutex
	out        baconcape.DigitalWriter
	pin        string
	configured bool
	on         bool
}

func NewLED(out baconcape.DigitalWriter, pin string) *LED {
	return &LED{out: out, pin: pin}
}

// Setup claims the pin and switches the LED off.
func (l *LED) Setup() error {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.configured {
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, l.pin)
	}
	if err := l.out.DigitalWrite(l.pin, 0); err != nil {
		return fmt.Errorf("gpio: could not set up led on %s: %w", l.pin, err)
	}
	l.configured = true
	l.on = false
	slog.Debug("led configured", "pin", l.pin)
	return nil
}

func (l *LED) On() error {
	return l.set(true)
}

func (l *LED) Off() error {
	return l.set(false)
}

// Toggle inverts the last written state.
func (l *LED) Toggle() error {
	l.mx.Lock()
	on := l.on
	l.mx.Unlock()
	return l.set(!on)
}

// State reports the last successfully written state.
func (l *LED) State() bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.on
}

func (l *LED) Pin() string {
	return l.pin
}

func (l *LED) set(on bool) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	if !l.configured {
		return fmt.Errorf("%w: %s", ErrNotConfigured, l.pin)
	}
	var val byte
	if on {
		val = 1
	}
	if err := l.out.DigitalWrite(l.pin, val); err != nil {
		return fmt.Errorf("gpio: could not write led %s: %w", l.pin, err)
	}
	l.on = on
	return nil
}
