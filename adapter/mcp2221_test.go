package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/baconcape"
)

// fakeHID answers each request with the next canned report.
type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return reportSize, nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func report(bytes map[int]byte) []byte {
	r := make([]byte, reportSize)
	for i, b := range bytes {
		r[i] = b
	}
	return r
}

func newTestBridge(f *fakeHID) *MCP2221 {
	d := NewMCP2221(-1)
	d.responseWait = 0
	d.dial = func(index int) (hidConn, error) { return f, nil }
	return d
}

func TestBufferToStatus(t *testing.T) {
	buf := report(map[int]byte{9: 0x02, 10: 0x01, 11: 0x05, 13: 3, 14: 0x75, 15: 9, 16: 0x38, 17: 0x00, 25: 1})

	status := bufferToStatus(buf)

	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   3,
		I2CSpeedDivider:        0x75,
		I2CTimeout:             9,
		CurrentAddress:         "3800",
		LastWriteRequestedSize: 0x0102,
		LastWriteSentSize:      5,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	f := &fakeHID{responses: [][]byte{report(map[int]byte{0: cmdI2CWrite})}}
	d := newTestBridge(f)

	err := d.WriteToAddr(context.Background(), 0x1C, []byte{0x2A, 0x01})

	require.NoError(t, err)
	require.Len(t, f.requests, 1)
	assert.Equal(t, []byte{cmdI2CWrite, 0x02, 0x00, 0x38, 0x2A, 0x01}, f.requests[0][:6])
	assert.Equal(t, 1, f.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	f := &fakeHID{responses: [][]byte{report(map[int]byte{1: i2cEngineBusy})}}
	d := newTestBridge(f)

	err := d.WriteToAddr(context.Background(), 0x50, []byte{0x00})

	assert.ErrorIs(t, err, baconcape.ErrBusBusy)
}

func TestMCP2221_ReadFromAddr(t *testing.T) {
	f := &fakeHID{responses: [][]byte{
		report(nil),
		report(map[int]byte{3: 2, 4: 0xAB, 5: 0xCD}),
	}}
	d := newTestBridge(f)
	dev, err := d.Bind(0x1D)
	require.NoError(t, err)

	buf := make([]byte, 2)
	err = dev.Read(context.Background(), buf)

	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, buf)
	require.Len(t, f.requests, 2)
	assert.Equal(t, []byte{cmdI2CRead, 0x02, 0x00, 0x3B}, f.requests[0][:4])
	assert.Equal(t, byte(cmdI2CReadData), f.requests[1][0])
}

func TestMCP2221_ReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		response []byte
	}{
		{"engine error", report(map[int]byte{1: i2cReadDataError})},
		{"size mismatch", report(map[int]byte{3: 1})},
		{"invalid size", report(map[int]byte{3: 127})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeHID{responses: [][]byte{report(nil), tt.response}}
			d := newTestBridge(f)

			err := d.ReadFromAddr(context.Background(), 0x1C, make([]byte, 2))

			assert.Error(t, err)
		})
	}
}

func TestMCP2221_ReleaseBus(t *testing.T) {
	f := &fakeHID{responses: [][]byte{report(map[int]byte{25: 0})}}
	d := newTestBridge(f)

	_, err := d.ReleaseBus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, byte(cmdStatusSetParams), f.requests[0][0])
	assert.Equal(t, byte(statusCancelTransfer), f.requests[0][2])
}

func TestMCP2221_DialError(t *testing.T) {
	d := NewMCP2221(0)
	d.dial = func(index int) (hidConn, error) { return nil, ErrDeviceNotFound }

	_, err := d.Status(context.Background())

	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		given    string
		expected int
		err      bool
	}{
		{"mcp2221", -1, false},
		{"mcp2221:0", 0, false},
		{"mcp2221:3", 3, false},
		{"mcp22213", 0, true},
		{"mcp2221:x", 0, true},
		{"/dev/i2c-2", 0, true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			index, err := ParsePath(test.given)
			if test.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, index)
		})
	}
}
