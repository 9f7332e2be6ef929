// Package units normalizes the loosely typed numbers and unit strings that
// arrive from forms, imports and extracted datasheets.
package units

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric field that may arrive as a JSON number, as a numeral
// string using either "," or "." as decimal separator, as an empty string or
// as null. A value that does not parse is kept as invalid, never as zero.
type Number struct {
	value float64
	valid bool
}

// Num wraps a float. NaN and infinities produce an invalid Number.
func Num(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{value: f, valid: true}
}

// ParseNumber parses a numeral string, accepting a comma decimal separator.
func ParseNumber(s string) Number {
	s = NormalizeDecimal(s)
	if s == "" {
		return Number{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(f)
}

// NormalizeDecimal trims s and replaces comma decimal separators with dots.
func NormalizeDecimal(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}

// Float returns the value if it is set and finite.
func (n Number) Float() (float64, bool) {
	return n.value, n.valid
}

// Positive returns the value only if it is finite and strictly greater than zero.
func (n Number) Positive() (float64, bool) {
	if !n.valid || n.value <= 0 {
		return 0, false
	}
	return n.value, true
}

// IsSet reports whether the number holds a finite value.
func (n Number) IsSet() bool {
	return n.valid
}

func (n Number) String() string {
	if !n.valid {
		return ""
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

// MarshalJSON writes a JSON number, or null when the value is not set.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, numeral strings and null. Strings that fail
// to parse leave the number unset instead of returning an error, so one bad
// field does not reject a whole item.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode numeral string: %w", err)
		}
		*n = ParseNumber(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode number: %w", err)
	}
	*n = Num(f)
	return nil
}
