package eeprom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockI2CDevice struct {
	mock.Mock
}

func (m *MockI2CDevice) Write(ctx context.Context, buffer []byte) error {
	return m.Called(ctx, buffer).Error(0)
}

func (m *MockI2CDevice) Read(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func TestEEPROM_Read(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev, WithWriteCycle(0))
	dev.On("Write", mock.Anything, []byte{0x12, 0x34}).Return(nil).Once()
	dev.On("Read", mock.Anything, mock.Anything).Return([]byte("bacon"), nil).Once()

	data, err := e.Read(context.Background(), 0x1234, 5)

	require.NoError(t, err)
	assert.Equal(t, []byte("bacon"), data)
	dev.AssertExpectations(t)
}

func TestEEPROM_ReadByte(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev, WithWriteCycle(0))
	dev.On("Write", mock.Anything, []byte{0x7F, 0xFF}).Return(nil).Once()
	dev.On("Read", mock.Anything, mock.Anything).Return([]byte{0xA5}, nil).Once()

	b, err := e.ReadByte(context.Background(), 0x7FFF)

	require.NoError(t, err)
	assert.Equal(t, byte(0xA5), b)
	dev.AssertExpectations(t)
}

func TestEEPROM_OutOfRange(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev, WithWriteCycle(0))
	ctx := context.Background()

	_, err := e.Read(ctx, 0x7FFF, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = e.Read(ctx, 0x0000, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	err = e.WriteByte(ctx, 0x8000, 0x01)
	assert.ErrorIs(t, err, ErrOutOfRange)
	err = e.Write(ctx, 0x7FF0, make([]byte, 17))
	assert.ErrorIs(t, err, ErrOutOfRange)
	err = e.WritePage(ctx, 0x003E, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrOutOfRange)

	dev.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	dev.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestEEPROM_Write(t *testing.T) {
	tests := []struct {
		name     string
		address  uint16
		data     []byte
		expected [][]byte
	}{
		{
			name:     "single byte",
			address:  0x0100,
			data:     []byte{0xAA},
			expected: [][]byte{{0x01, 0x00, 0xAA}},
		},
		{
			name:    "crosses a page boundary",
			address: 0x003E,
			data:    []byte{1, 2, 3, 4, 5},
			expected: [][]byte{
				{0x00, 0x3E, 1, 2},
				{0x00, 0x40, 3, 4, 5},
			},
		},
		{
			name:     "empty",
			address:  0x0000,
			data:     nil,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := new(MockI2CDevice)
			e := New(dev, WithWriteCycle(0))
			for _, tx := range tt.expected {
				dev.On("Write", mock.Anything, tx).Return(nil).Once()
			}

			err := e.Write(context.Background(), tt.address, tt.data)

			require.NoError(t, err)
			dev.AssertExpectations(t)
			dev.AssertNumberOfCalls(t, "Write", len(tt.expected))
		})
	}
}

func TestEEPROM_WritePageAndByte(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev, WithWriteCycle(0))
	page := make([]byte, PageSize)
	page[0] = 0xDE
	dev.On("Write", mock.Anything, append([]byte{0x00, 0x40}, page...)).Return(nil).Once()
	dev.On("Write", mock.Anything, []byte{0x00, 0x05, 0x42}).Return(nil).Once()

	require.NoError(t, e.WritePage(context.Background(), 0x0040, page))
	require.NoError(t, e.WriteByte(context.Background(), 0x0005, 0x42))
	dev.AssertExpectations(t)
}

func TestEEPROM_WriteError(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev, WithWriteCycle(0))
	busErr := errors.New("nack")
	dev.On("Write", mock.Anything, mock.Anything).Return(busErr).Once()

	err := e.Write(context.Background(), 0x0000, make([]byte, 100))

	assert.ErrorIs(t, err, busErr)
	dev.AssertNumberOfCalls(t, "Write", 1)
}

func TestEEPROM_WriteCycleCancelled(t *testing.T) {
	dev := new(MockI2CDevice)
	e := New(dev)
	dev.On("Write", mock.Anything, mock.Anything).Return(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.WriteByte(ctx, 0x0000, 0x01)

	assert.ErrorIs(t, err, context.Canceled)
}
