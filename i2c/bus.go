package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/baconcape"
	"github.com/mklimuk/baconcape/snsctx"
)

// DefaultDevice is the cape's I2C bus on the BeagleBone header (P9_19/P9_20).
const DefaultDevice = "/dev/i2c-2"

var _ baconcape.I2CBus = &GenericBus{}
var _ baconcape.I2CPort = &GenericBus{}

var hostOnce sync.Once
var hostErr error

func initHost() error {
	hostOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			hostErr = fmt.Errorf("could not init host: %w", err)
			return
		}
		for _, driver := range state.Loaded {
			slog.Debug("periph driver loaded", "driver", driver.String())
		}
	})
	return hostErr
}

type GenericBus struct {
	name string
	bus  i2c.BusCloser
}

// NewGenericBus opens the I2C character device dev through the periph registry.
func NewGenericBus(dev string) (*GenericBus, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %s: %w", dev, err)
	}
	slog.Debug("i2c bus opened", "device", dev)
	return &GenericBus{
		name: dev,
		bus:  bus,
	}, nil
}

// Open satisfies baconcape.I2CPortOpener.
func Open(path string) (baconcape.I2CPort, error) {
	return NewGenericBus(path)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c read", "bus", b.name, "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c write", "bus", b.name, "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	}
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Bind returns a handle routing transfers to address on this bus.
func (b *GenericBus) Bind(address byte) (baconcape.I2CDevice, error) {
	return baconcape.Bind(b, address)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	slog.Debug("i2c bus closed", "device", b.name)
	return b.bus.Close()
}
