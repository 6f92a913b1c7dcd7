// Package eeprom provides a driver for the Microchip 24LC256 256-Kbit I2C EEPROM
// mounted on the bacon cape. It supports random and sequential reads and byte and
// page writes, splitting longer writes on page boundaries.
//
// Datasheet reference: Microchip 24AA256/24LC256/24FC256 (page size 64 bytes).
//
// Writes only reach the array once the cape's write-protect capacitor (C2) is
// shorted; otherwise the device acknowledges and silently drops them.
//
// Example usage:
//
//	port, _ := i2c.Open(i2c.DefaultDevice)
//	dev, _ := port.Bind(eeprom.BaseAddress)
//	e := eeprom.New(dev)
//	data, _ := e.Read(ctx, 0x0000, 16)
//	err := e.Write(ctx, 0x1000, []byte("bacon"))
package eeprom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/baconcape"
)

const (
	// BaseAddress is the 7-bit address with A0..A2 tied low.
	BaseAddress = 0x50

	PageSize = 64
	Capacity = 32768
)

var ErrOutOfRange = errors.New("24lc256: address out of range")

type Opts struct {
	WriteCycle time.Duration
}

type Opt func(*Opts)

// WithWriteCycle sets the wait after each write (tWC, 5ms max per datasheet).
func WithWriteCycle(d time.Duration) Opt {
	return func(o *Opts) {
		o.WriteCycle = d
	}
}

type EEPROM24LC256 struct {
	mx         sync.Mutex
	dev        baconcape.I2CDevice
	writeCycle time.Duration
}

func New(dev baconcape.I2CDevice, opts ...Opt) *EEPROM24LC256 {
	config := Opts{WriteCycle: 5 * time.Millisecond}
	for _, opt := range opts {
		opt(&config)
	}
	return &EEPROM24LC256{dev: dev, writeCycle: config.WriteCycle}
}

// ReadByte performs a random read of a single byte.
func (e *EEPROM24LC256) ReadByte(ctx context.Context, address uint16) (byte, error) {
	data, err := e.Read(ctx, address, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Read returns length bytes starting at address using a sequential read.
func (e *EEPROM24LC256) Read(ctx context.Context, address uint16, length int) ([]byte, error) {
	if length <= 0 || int(address)+length > Capacity {
		return nil, fmt.Errorf("%w: read %d bytes at %#04x", ErrOutOfRange, length, address)
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	if err := e.dev.Write(ctx, []byte{byte(address >> 8), byte(address)}); err != nil {
		return nil, fmt.Errorf("24lc256: could not set address %#04x: %w", address, err)
	}
	data := make([]byte, length)
	if err := e.dev.Read(ctx, data); err != nil {
		return nil, fmt.Errorf("24lc256: could not read %d bytes at %#04x: %w", length, address, err)
	}
	return data, nil
}

func (e *EEPROM24LC256) WriteByte(ctx context.Context, address uint16, value byte) error {
	if int(address) >= Capacity {
		return fmt.Errorf("%w: write at %#04x", ErrOutOfRange, address)
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.pageWrite(ctx, address, []byte{value})
}

// WritePage writes data that must fit in the page containing address. The device
// wraps around within a page, so crossing a boundary is rejected.
func (e *EEPROM24LC256) WritePage(ctx context.Context, address uint16, data []byte) error {
	if len(data) == 0 || int(address)+len(data) > Capacity {
		return fmt.Errorf("%w: write %d bytes at %#04x", ErrOutOfRange, len(data), address)
	}
	if int(address%PageSize)+len(data) > PageSize {
		return fmt.Errorf("%w: %d bytes at %#04x cross a page boundary", ErrOutOfRange, len(data), address)
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.pageWrite(ctx, address, data)
}

// Write writes data at the given start address, chunking it into page writes.
func (e *EEPROM24LC256) Write(ctx context.Context, address uint16, data []byte) error {
	if int(address)+len(data) > Capacity {
		return fmt.Errorf("%w: write %d bytes at %#04x", ErrOutOfRange, len(data), address)
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	offset := 0
	for offset < len(data) {
		space := PageSize - int(address%PageSize)
		chunk := data[offset:]
		if len(chunk) > space {
			chunk = chunk[:space]
		}
		if err := e.pageWrite(ctx, address, chunk); err != nil {
			return err
		}
		offset += len(chunk)
		address += uint16(len(chunk))
	}
	return nil
}

func (e *EEPROM24LC256) pageWrite(ctx context.Context, address uint16, data []byte) error {
	tx := make([]byte, 0, 2+len(data))
	tx = append(tx, byte(address>>8), byte(address))
	tx = append(tx, data...)
	if err := e.dev.Write(ctx, tx); err != nil {
		return fmt.Errorf("24lc256: could not write %d bytes at %#04x: %w", len(data), address, err)
	}
	return e.waitWriteCycle(ctx)
}

// waitWriteCycle blocks while the device is busy committing a page; it does not
// acknowledge its address during that time.
func (e *EEPROM24LC256) waitWriteCycle(ctx context.Context) error {
	if e.writeCycle <= 0 {
		return nil
	}
	timer := time.NewTimer(e.writeCycle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
