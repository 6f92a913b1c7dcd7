package gpio

import (
	"fmt"
	"sync"

	"github.com/mklimuk/baconcape"
)

// PinButton is the cape push-button (BeagleBone gpio22).
const PinButton = "P8_19"

// Button reads the cape push-button. A high level means pressed.
type Button struct {
	mx         sync.Mutex
	in         baconcape.DigitalReader
	pin        string
	configured bool
	pressed    bool
}

func NewButton(in baconcape.DigitalReader, pin string) *Button {
	return &Button{in: in, pin: pin}
}

// Setup claims the pin and takes a first reading.
func (b *Button) Setup() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.configured {
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, b.pin)
	}
	pressed, err := b.read()
	if err != nil {
		return err
	}
	b.configured = true
	b.pressed = pressed
	return nil
}

func (b *Button) Read() (bool, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if !b.configured {
		return false, fmt.Errorf("%w: %s", ErrNotConfigured, b.pin)
	}
	pressed, err := b.read()
	if err != nil {
		return b.pressed, err
	}
	b.pressed = pressed
	return pressed, nil
}

// Pressed returns the last read state.
func (b *Button) Pressed() bool {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.pressed
}

func (b *Button) read() (bool, error) {
	level, err := b.in.DigitalRead(b.pin)
	if err != nil {
		return false, fmt.Errorf("gpio: could not read button %s: %w", b.pin, err)
	}
	return level != 0, nil
}
