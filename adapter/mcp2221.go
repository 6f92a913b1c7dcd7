// Package adapter implements the Microchip MCP2221 USB to I2C bridge as a cape
// bus, so the accelerometer and EEPROM can be exercised from a workstation.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/baconcape"
	"github.com/mklimuk/baconcape/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// PathPrefix selects the bridge in bus paths, e.g. "mcp2221" or "mcp2221:1".
const PathPrefix = "mcp2221"

const reportSize = 64

// HID command codes (datasheet section 3.1).
const (
	cmdStatusSetParams = 0x10
	cmdI2CWrite        = 0x90
	cmdI2CRead         = 0x91
	cmdI2CReadData     = 0x40

	statusCancelTransfer = 0x10
	i2cReadDataError     = 0x41
	i2cEngineBusy        = 0x01
)

var (
	ErrDeviceNotFound  = errors.New("mcp2221: device not found")
	ErrAmbiguousDevice = errors.New("mcp2221: more than one device connected, select one by index")
	ErrShortTransfer   = errors.New("mcp2221: short hid transfer")
	ErrReadFailed      = errors.New("mcp2221: i2c engine could not read slave data")
)

var _ baconcape.I2CBus = &MCP2221{}
var _ baconcape.I2CPort = &MCP2221{}

// hidConn is the part of *hid.Device the bridge uses.
type hidConn interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

type dialer func(index int) (hidConn, error)

type MCP2221 struct {
	mx           sync.Mutex
	index        int
	dial         dialer
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

// NewMCP2221 talks to the index-th bridge found on USB; -1 requires exactly one.
func NewMCP2221(index int) *MCP2221 {
	return &MCP2221{
		index:        index,
		dial:         dialHID,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
}

// Open satisfies baconcape.I2CPortOpener for paths of the form "mcp2221[:index]".
func Open(path string) (baconcape.I2CPort, error) {
	index, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	d := NewMCP2221(index)
	if _, err := d.Status(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

// ParsePath extracts the device index from a bridge bus path.
func ParsePath(path string) (int, error) {
	rest, ok := strings.CutPrefix(path, PathPrefix)
	if !ok {
		return 0, fmt.Errorf("mcp2221: %q is not a bridge path", path)
	}
	if rest == "" {
		return -1, nil
	}
	index, err := strconv.Atoi(strings.TrimPrefix(rest, ":"))
	if err != nil || !strings.HasPrefix(rest, ":") || index < 0 {
		return 0, fmt.Errorf("mcp2221: invalid device index in %q", path)
	}
	return index, nil
}

func dialHID(index int) (hidConn, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	if index < 0 {
		if len(devs) > 1 {
			return nil, ErrAmbiguousDevice
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("%w: no device with index %d", ErrDeviceNotFound, index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("mcp2221: error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) Bind(address byte) (baconcape.I2CDevice, error) {
	return baconcape.Bind(d, address)
}

// Close is a no-op: the HID handle is opened per transfer.
func (d *MCP2221) Close() error {
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("mcp2221: write of %d bytes exceeds a single report", len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWrite
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: write to %#x failed: %w", address, err)
	}
	if d.response[1] == i2cEngineBusy {
		slog.Debug("mcp2221 busy", "addr", fmt.Sprintf("%#x", address))
		return baconcape.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("mcp2221: read of %d bytes exceeds a single report", len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CRead
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 | 0x01
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: read from %#x failed: %w", address, err)
	}
	if d.response[1] == i2cEngineBusy {
		return baconcape.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CReadData
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: could not fetch read data: %w", err)
	}
	if d.response[1] == i2cReadDataError {
		return ErrReadFailed
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("mcp2221: invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	// 9-10 requested transfer length, 11-12 transferred so far, 13 buffer counter,
	// 14 speed divider, 15 timeout, 16-17 current address, 25 read pending
	return &MCP2221Status{
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		ReadPending:            int(buffer[25]),
	}
}

// Release cancels a stuck transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = statusCancelTransfer
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.dial(d.index)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("mcp2221 close failed", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("mcp2221 request", "dump", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("%w: wrote %d", ErrShortTransfer, n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("%w: read %d", ErrShortTransfer, n)
	}
	if verbose {
		slog.Debug("mcp2221 response", "dump", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
