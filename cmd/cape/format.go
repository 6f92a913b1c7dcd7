package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

func formatHex(b byte) string {
	return fmt.Sprintf("%#02x", b)
}

func formatG(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "g"
}

// parseHexBytes accepts "01ff23", "01 FF 23" or "0x01,0xff".
func parseHexBytes(s string) ([]byte, error) {
	r := strings.NewReplacer(" ", "", ",", "", "0x", "", "0X", "")
	clean := r.Replace(s)
	if clean == "" {
		return nil, fmt.Errorf("no data given")
	}
	return hex.DecodeString(clean)
}

// parseDigit accepts a single hexadecimal digit.
func parseDigit(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid digit %q", s)
	}
	return byte(v), nil
}
