package accel

// fullScaleCounts is half the 12-bit code range; a reading of 2048 counts equals the
// configured full-scale magnitude.
const fullScaleCounts = 2048

// Sample is a decoded acceleration triple in raw 12-bit counts.
type Sample struct {
	X     int16 `yaml:"x"`
	Y     int16 `yaml:"y"`
	Z     int16 `yaml:"z"`
	Ready bool  `yaml:"ready"`
}

// DecodeAxis converts a left-justified 12-bit two's-complement register pair into a
// signed count in [-2048, 2047].
func DecodeAxis(msb, lsb byte) int16 {
	v := (uint16(msb)<<8 | uint16(lsb)) >> 4
	if v > 2047 {
		return int16(v) - 4096
	}
	return int16(v)
}

// DecodeXYZ decodes six bytes in OUT_X_MSB..OUT_Z_LSB order.
func DecodeXYZ(raw [6]byte) (x, y, z int16) {
	return DecodeAxis(raw[0], raw[1]), DecodeAxis(raw[2], raw[3]), DecodeAxis(raw[4], raw[5])
}

// ToG converts a raw count to g for the given full-scale range.
func ToG(raw int16, s Sensitivity) float64 {
	return float64(raw) / fullScaleCounts * s.ScaleFactor()
}

// G returns the sample converted to g.
func (s Sample) G(sens Sensitivity) (x, y, z float64) {
	return ToG(s.X, sens), ToG(s.Y, sens), ToG(s.Z, sens)
}
