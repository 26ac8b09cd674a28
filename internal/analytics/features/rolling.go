package features

import (
	"gonum.org/v1/gonum/floats"

	"github.com/epiwave/epiwave/internal/analytics"
)

// window collects the defined samples of values[t-size+1..t] into buf.
func window(values []analytics.NullFloat, t, size int, buf []float64) []float64 {
	buf = buf[:0]
	for i := max(0, t-size+1); i <= t; i++ {
		if values[i].Valid {
			buf = append(buf, values[i].Value)
		}
	}
	return buf
}

// RollingSum returns the trailing sum over size samples. Undefined samples are
// skipped; the result is undefined until minPeriods defined samples are in
// the window. With minPeriods 0 an empty window sums to 0.
func RollingSum(values []analytics.NullFloat, size, minPeriods int) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	if size < 1 {
		return out
	}
	buf := make([]float64, 0, size)
	for t := range values {
		buf = window(values, t, size, buf)
		if len(buf) < minPeriods {
			continue
		}
		out[t] = analytics.Float(floats.Sum(buf))
	}
	return out
}

// RollingMean returns the trailing mean over size samples, undefined until
// minPeriods defined samples (and at least one) are in the window.
func RollingMean(values []analytics.NullFloat, size, minPeriods int) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	if size < 1 {
		return out
	}
	buf := make([]float64, 0, size)
	for t := range values {
		buf = window(values, t, size, buf)
		if len(buf) == 0 || len(buf) < minPeriods {
			continue
		}
		out[t] = analytics.Float(floats.Sum(buf) / float64(len(buf)))
	}
	return out
}

// Shift moves values forward by lag positions. The first lag entries are undefined.
func Shift(values []analytics.NullFloat, lag int) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	for t := max(lag, 0); t < len(values); t++ {
		if t-lag < len(values) {
			out[t] = values[t-lag]
		}
	}
	return out
}

// ForwardFill carries the last defined value over undefined entries.
// Leading undefined entries stay undefined.
func ForwardFill(values []analytics.NullFloat) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	last := analytics.Null()
	for i, v := range values {
		if v.Valid {
			last = v
		}
		out[i] = last
	}
	return out
}

// FillNull replaces undefined entries with fill.
func FillNull(values []analytics.NullFloat, fill float64) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	for i, v := range values {
		out[i] = analytics.Float(v.Or(fill))
	}
	return out
}

// GrowthRate returns the relative change against the previous sample.
// The first entry and every non-finite or undefined result are 0.
func GrowthRate(values []analytics.NullFloat) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(values))
	for t := range values {
		out[t] = analytics.Float(0)
		if t == 0 {
			continue
		}
		r := values[t].Sub(values[t-1]).Div(values[t-1])
		if r.Valid {
			out[t] = r
		}
	}
	return out
}

// Ratio divides num by den element-wise. Division by zero or an undefined
// operand yields undefined.
func Ratio(num, den []analytics.NullFloat) []analytics.NullFloat {
	out := make([]analytics.NullFloat, min(len(num), len(den)))
	for i := range out {
		out[i] = num[i].Div(den[i])
	}
	return out
}
