package adc

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalogReader struct {
	mock.Mock
}

func (m *MockAnalogReader) AnalogRead(pin string) (int, error) {
	args := m.Called(pin)
	return args.Int(0), args.Error(1)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		given    int
		expected int
	}{
		{0, 0},
		{40, 0},
		{41, 1},
		{2047, 49},
		{2048, 50},
		{4094, 99},
		{4095, 100},
	}
	for _, test := range tests {
		t.Run(strconv.Itoa(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, Percentage(test.given))
		})
	}
}

func TestSlider(t *testing.T) {
	in := new(MockAnalogReader)
	s := NewSlider(in, PinSlider)

	_, err := s.Read()
	assert.ErrorIs(t, err, ErrNotConfigured)

	in.On("AnalogRead", PinSlider).Return(100, nil).Once()
	require.NoError(t, s.Setup())
	assert.ErrorIs(t, s.Setup(), ErrAlreadyConfigured)

	in.On("AnalogRead", PinSlider).Return(4095, nil).Once()
	pct, err := s.Percentage()
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	in.On("AnalogRead", PinSlider).Return(5000, nil).Once()
	v, err := s.Read()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 4095, v, "last good value is kept")

	in.On("AnalogRead", PinSlider).Return(0, errors.New("iio busy")).Once()
	_, err = s.Percentage()
	assert.Error(t, err)
	in.AssertExpectations(t)
}
