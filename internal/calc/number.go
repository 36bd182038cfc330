package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Number is a lenient numeric input. It accepts JSON numbers and numeric strings;
// anything else (null, booleans, garbage, NaN, Inf) decodes as absent instead of failing.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// UnmarshalJSON never returns an error.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		n.set(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			n.set(f)
		}
	}
	return nil
}

// MarshalJSON writes the value, or null when absent.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *Number) set(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	n.Value, n.Valid = f, true
}

// Or returns the value, or def when absent
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// ParseNumber coerces a query-string value the same way
func ParseNumber(s string) Number {
	var n Number
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		n.set(f)
	}
	return n
}
