// Package adc reads the cape slider potentiometer through the BeagleBone ADC.
package adc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/baconcape"
)

const (
	// PinSlider is AIN5 on the BeagleBone header.
	PinSlider = "P9_36"
	// MaxValue is the full-scale raw reading of the 12-bit ADC.
	MaxValue = 4095
)

var (
	ErrNotConfigured     = errors.New("slider: not configured")
	ErrAlreadyConfigured = errors.New("slider: already configured")
	ErrOutOfRange        = errors.New("slider: reading out of range")
)

type Slider struct {
	mx         sync.Mutex
	in         baconcape.AnalogReader
	pin        string
	configured bool
	value      int
}

func NewSlider(in baconcape.AnalogReader, pin string) *Slider {
	return &Slider{in: in, pin: pin}
}

// Setup takes a first reading to make sure the ADC channel is available.
func (s *Slider) Setup() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.configured {
		return ErrAlreadyConfigured
	}
	value, err := s.read()
	if err != nil {
		return err
	}
	s.value = value
	s.configured = true
	return nil
}

// Read returns the raw ADC value in [0, MaxValue].
func (s *Slider) Read() (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !s.configured {
		return 0, ErrNotConfigured
	}
	value, err := s.read()
	if err != nil {
		return s.value, err
	}
	s.value = value
	return value, nil
}

// Percentage reads the slider and scales it to 0..100, truncating.
func (s *Slider) Percentage() (int, error) {
	value, err := s.Read()
	if err != nil {
		return 0, err
	}
	return Percentage(value), nil
}

// Percentage scales a raw reading to 0..100.
func Percentage(raw int) int {
	return raw * 100 / MaxValue
}

func (s *Slider) read() (int, error) {
	value, err := s.in.AnalogRead(s.pin)
	if err != nil {
		return 0, fmt.Errorf("slider: could not read %s: %w", s.pin, err)
	}
	if value < 0 || value > MaxValue {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, value)
	}
	return value, nil
}
