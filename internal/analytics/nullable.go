package analytics

import (
	"math"
	"strconv"
	"strings"
)

// NullFloat is a float64 that may be undefined. Arithmetic involving an
// undefined operand is undefined, and so is division by zero.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a defined value. NaN and infinities are stored as undefined.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Value: v, Valid: true}
}

// Null returns an undefined value.
func Null() NullFloat {
	return NullFloat{}
}

// Or returns the value, or def when undefined.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Float64 returns the value, or NaN when undefined.
func (n NullFloat) Float64() float64 {
	return n.Or(math.NaN())
}

// Add returns n + o.
func (n NullFloat) Add(o NullFloat) NullFloat {
	if !n.Valid || !o.Valid {
		return NullFloat{}
	}
	return Float(n.Value + o.Value)
}

// Sub returns n - o.
func (n NullFloat) Sub(o NullFloat) NullFloat {
	if !n.Valid || !o.Valid {
		return NullFloat{}
	}
	return Float(n.Value - o.Value)
}

// Mul returns n * o.
func (n NullFloat) Mul(o NullFloat) NullFloat {
	if !n.Valid || !o.Valid {
		return NullFloat{}
	}
	return Float(n.Value * o.Value)
}

// Scale returns n * k.
func (n NullFloat) Scale(k float64) NullFloat {
	return n.Mul(Float(k))
}

// Div returns n / o, undefined when o is zero.
func (n NullFloat) Div(o NullFloat) NullFloat {
	if !n.Valid || !o.Valid || o.Value == 0 {
		return NullFloat{}
	}
	return Float(n.Value / o.Value)
}

// String formats the value in shortest round-trip form, empty when undefined.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// ParseNullFloat parses a numeric cell. Empty, NA, NaN and null cells are undefined.
func ParseNullFloat(s string) (NullFloat, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}, err
	}
	return Float(v), nil
}

// NullFloats wraps a plain slice as defined values.
func NullFloats(values []float64) []NullFloat {
	out := make([]NullFloat, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// CountValid returns how many entries are defined.
func CountValid(values []NullFloat) int {
	n := 0
	for _, v := range values {
		if v.Valid {
			n++
		}
	}
	return n
}
