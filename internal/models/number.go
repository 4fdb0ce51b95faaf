package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a float that decodes from a JSON number, a numeric string, or null.
// The coin API sends most figures as strings ("-1.25"), a few as numbers.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("models: invalid number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 { return float64(n) }
