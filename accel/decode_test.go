package accel

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAxis(t *testing.T) {
	tests := []struct {
		given    []byte
		expected int16
	}{
		{[]byte{0x00, 0x00}, 0},
		{[]byte{0x00, 0x10}, 1},
		{[]byte{0x00, 0x0F}, 0},
		{[]byte{0x40, 0x00}, 1024},
		{[]byte{0x7F, 0xF0}, 2047},
		{[]byte{0x80, 0x00}, -2048},
		{[]byte{0xFF, 0xF0}, -1},
		{[]byte{0xC0, 0x00}, -1024},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, DecodeAxis(test.given[0], test.given[1]))
		})
	}
}

func TestDecodeAxis_AllInputs(t *testing.T) {
	for msb := 0; msb < 256; msb++ {
		for lsb := 0; lsb < 256; lsb++ {
			code := msb<<4 | lsb>>4
			want := code
			if code >= 2048 {
				want = code - 4096
			}
			got := DecodeAxis(byte(msb), byte(lsb))
			if int(got) != want || got < -2048 || got > 2047 {
				t.Fatalf("DecodeAxis(%#02x, %#02x) = %d, expected %d", msb, lsb, got, want)
			}
		}
	}
}

func TestDecodeXYZ(t *testing.T) {
	x, y, z := DecodeXYZ([6]byte{0x7F, 0xF0, 0x80, 0x00, 0x00, 0x10})
	assert.Equal(t, int16(2047), x)
	assert.Equal(t, int16(-2048), y)
	assert.Equal(t, int16(1), z)
}

func TestToG(t *testing.T) {
	assert.InDelta(t, 1.0, ToG(1024, Sensitivity2G), 1e-9)
	assert.InDelta(t, -8.0, ToG(-2048, Sensitivity8G), 1e-9)
	assert.InDelta(t, 2.0, ToG(1024, Sensitivity4G), 1e-9)

	x, y, z := Sample{X: 0, Y: 512, Z: -1024}.G(Sensitivity2G)
	assert.Equal(t, 0.0, x)
	assert.InDelta(t, 0.5, y, 1e-9)
	assert.InDelta(t, -1.0, z, 1e-9)
}

func TestDataConfig_Encode(t *testing.T) {
	for _, s := range []Sensitivity{Sensitivity2G, Sensitivity4G, Sensitivity8G} {
		for _, hpf := range []bool{false, true} {
			cfg := DataConfig{Sensitivity: s, HighPassFilter: hpf}
			b, err := cfg.Encode()
			require.NoError(t, err)
			assert.Equal(t, byte(0), b&^(dataCfgFSMask|dataCfgHPF), "reserved bits stay clear")
			assert.Equal(t, cfg, ParseDataConfig(b))
		}
	}

	_, err := DataConfig{Sensitivity: Sensitivity(3)}.Encode()
	assert.ErrorIs(t, err, ErrInvalidSensitivity)
}

func TestParseDataConfig(t *testing.T) {
	cfg := ParseDataConfig(0x13)
	assert.False(t, cfg.Sensitivity.Valid())
	assert.True(t, cfg.HighPassFilter)

	assert.Equal(t, DataConfig{Sensitivity: Sensitivity4G}, ParseDataConfig(0xE1))
}

func TestParseInterruptSource(t *testing.T) {
	tests := []struct {
		given    byte
		expected InterruptSource
	}{
		{0x00, InterruptSource{}},
		{0x42, InterruptSource{}},
		{0x01, InterruptSource{DataReady: true}},
		{0x04, InterruptSource{FreefallMotion: true}},
		{0x28, InterruptSource{Pulse: true, Transient: true}},
		{0xBD, InterruptSource{DataReady: true, FreefallMotion: true, Pulse: true, LandscapePortrait: true, Transient: true, AutoSleepWake: true}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString([]byte{test.given}), func(t *testing.T) {
			assert.Equal(t, test.expected, parseInterruptSource(test.given))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st := parseStatus(0x8F)
	assert.True(t, st.XAvailable)
	assert.True(t, st.YAvailable)
	assert.True(t, st.ZAvailable)
	assert.True(t, st.XYZReady)
	assert.True(t, st.XYZOverwrite)
	assert.False(t, st.XOverwrite)

	assert.False(t, parseStatus(0x77).XYZReady)
}

func TestParseSensitivity(t *testing.T) {
	tests := []struct {
		given    string
		expected Sensitivity
		err      bool
	}{
		{"2g", Sensitivity2G, false},
		{" 4G", Sensitivity4G, false},
		{"8", Sensitivity8G, false},
		{"16g", 0, true},
		{"", 0, true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			s, err := ParseSensitivity(test.given)
			if test.err {
				assert.ErrorIs(t, err, ErrInvalidSensitivity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, s)
		})
	}
}

func TestParseOutputDataRate(t *testing.T) {
	tests := []struct {
		given    string
		expected OutputDataRate
		err      bool
	}{
		{"800hz", ODR800Hz, false},
		{"12.5", ODR12_5Hz, false},
		{"1.56Hz", ODR1_56Hz, false},
		{"25hz", 0, true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			odr, err := ParseOutputDataRate(test.given)
			if test.err {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, odr)
		})
	}
}

func TestOutputDataRate_Hertz(t *testing.T) {
	assert.Equal(t, 800.0, ODR800Hz.Hertz())
	assert.Equal(t, 1.5625, ODR1_56Hz.Hertz())
	assert.Equal(t, 0.0, OutputDataRate(9).Hertz())
}
