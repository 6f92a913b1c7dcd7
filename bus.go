package baconcape

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrInvalidAddress is returned when binding to an address outside the 7-bit range.
var ErrInvalidAddress = fmt.Errorf("invalid 7-bit I2C address")

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// I2CDevice is a bus handle bound to a single slave address.
type I2CDevice interface {
	BusReader
	BusWriter
}

// I2CPort is an opened I2C character device. Bind returns a handle for one slave
// address; Close releases the underlying file.
type I2CPort interface {
	Bind(address byte) (I2CDevice, error)
	Close() error
}

// I2CPortOpener opens the I2C bus found at path (e.g. /dev/i2c-2).
type I2CPortOpener func(path string) (I2CPort, error)

// SPIConn is the subset of an SPI connection the cape drivers use.
type SPIConn interface {
	WriteBytes(data []byte) error
	Close() error
}

// DigitalWriter drives a named output pin.
type DigitalWriter interface {
	DigitalWrite(pin string, val byte) error
}

// DigitalReader samples a named input pin.
type DigitalReader interface {
	DigitalRead(pin string) (int, error)
}

// AnalogReader reads the raw ADC value of a named analog pin.
type AnalogReader interface {
	AnalogRead(pin string) (int, error)
}

// AddressedDevice binds an addressable bus to a fixed slave address.
type AddressedDevice struct {
	bus     I2CBus
	address byte
}

// Bind validates address and returns a device handle that routes every transfer to it.
func Bind(bus I2CBus, address byte) (*AddressedDevice, error) {
	if address > 0x7F {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidAddress, address)
	}
	return &AddressedDevice{bus: bus, address: address}, nil
}

func (d *AddressedDevice) Address() byte {
	return d.address
}

func (d *AddressedDevice) Read(ctx context.Context, buffer []byte) error {
	return d.bus.ReadFromAddr(ctx, d.address, buffer)
}

func (d *AddressedDevice) Write(ctx context.Context, buffer []byte) error {
	return d.bus.WriteToAddr(ctx, d.address, buffer)
}
