// Package display drives the cape 7-segment display, an SN74HC595 shift register
// fed over SPI with active-low segment outputs.
//
// Datasheet reference: https://www.ti.com/lit/ds/symlink/sn74hc595.pdf
//
// SPI1 shares pins with I2C-1; the I2C-1 overlay must be disabled for the display
// to work.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/baconcape"
)

const (
	// PinClear is the shift register SRCLR line (BeagleBone gpio48).
	PinClear = "P9_15"

	SPIBus      = 1
	SPIChip     = 0
	SPIMode     = 3
	SPIBits     = 8
	SPIMaxSpeed = 1_000_000

	patternClear byte = 0xFE
	patternLight byte = 0x00
)

var (
	ErrNotConfigured     = errors.New("7seg: not configured")
	ErrAlreadyConfigured = errors.New("7seg: already configured")
	ErrInvalidDigit      = errors.New("7seg: digit out of range")
)

// glyphs maps 0x0..0xF to segment patterns, bit order Pgfedcba, low = lit.
var glyphs = [16]byte{
	0x40, // 0
	0x79, // 1
	0x24, // 2
	0x30, // 3
	0x19, // 4
	0x12, // 5
	0x02, // 6
	0x78, // 7
	0x00, // 8
	0x10, // 9
	0x08, // A
	0x03, // b
	0x46, // C
	0x21, // d
	0x06, // E
	0x0E, // F
}

// Glyph returns the pattern shifted out for digit. The point flag sets bit 0.
func Glyph(digit byte, point bool) (byte, error) {
	if digit >= byte(len(glyphs)) {
		return 0, fmt.Errorf("%w: %#x", ErrInvalidDigit, digit)
	}
	b := glyphs[digit]
	if point {
		b |= 0x01
	}
	return b, nil
}

// SPIOpener opens the SPI connection to the shift register.
type SPIOpener func() (baconcape.SPIConn, error)

type SevenSegment struct {
	mx       sync.Mutex
	open     SPIOpener
	clearOut baconcape.DigitalWriter
	clearPin string
	conn     baconcape.SPIConn
	last     byte
}

func NewSevenSegment(open SPIOpener, clearOut baconcape.DigitalWriter, clearPin string) *SevenSegment {
	return &SevenSegment{open: open, clearOut: clearOut, clearPin: clearPin}
}

// Setup releases the shift register clear line and opens SPI.
func (d *SevenSegment) Setup() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.conn != nil {
		return ErrAlreadyConfigured
	}
	if err := d.clearOut.DigitalWrite(d.clearPin, 1); err != nil {
		return fmt.Errorf("7seg: could not release clear line %s: %w", d.clearPin, err)
	}
	conn, err := d.open()
	if err != nil {
		return fmt.Errorf("7seg: could not open spi: %w", err)
	}
	d.conn = conn
	slog.Debug("7seg configured", "clear", d.clearPin)
	return nil
}

// Clear switches every segment off.
func (d *SevenSegment) Clear() error {
	return d.shift(patternClear)
}

// Light switches every segment on, point included.
func (d *SevenSegment) Light() error {
	return d.shift(patternLight)
}

// Write shows a hexadecimal digit.
func (d *SevenSegment) Write(digit byte, point bool) error {
	b, err := Glyph(digit, point)
	if err != nil {
		return err
	}
	return d.shift(b)
}

// Last returns the pattern last shifted out.
func (d *SevenSegment) Last() byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.last
}

func (d *SevenSegment) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *SevenSegment) shift(b byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.conn == nil {
		return ErrNotConfigured
	}
	if err := d.conn.WriteBytes([]byte{b}); err != nil {
		return fmt.Errorf("7seg: could not shift %#02x: %w", b, err)
	}
	d.last = b
	return nil
}
