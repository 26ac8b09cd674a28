package forecast

import "math"

// constrainStationary maps unconstrained reals onto coefficients of a
// stationary AR polynomial 1 - c1 L - ... - cn L^n, through partial
// autocorrelations in (-1, 1) and the Durbin-Levinson recursion.
func constrainStationary(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}

	for k := 0; k < n; k++ {
		r := x[k] / math.Sqrt(1+x[k]*x[k])
		for i := 0; i < k; i++ {
			y[k][i] = y[k-1][i] + r*y[k-1][k-i-1]
		}
		y[k][k] = r
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = -y[n-1][i]
	}
	return out
}

// unconstrainStationary inverts constrainStationary. Coefficients outside
// the stationary region produce non-finite values.
func unconstrainStationary(c []float64) []float64 {
	n := len(c)
	if n == 0 {
		return nil
	}

	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for i := range c {
		y[n-1][i] = -c[i]
	}

	for k := n - 1; k > 0; k-- {
		for i := 0; i < k; i++ {
			y[k-1][i] = (y[k][i] - y[k][k]*y[k][k-i-1]) / (1 - y[k][k]*y[k][k])
		}
	}

	out := make([]float64, n)
	for k := range out {
		r := y[k][k]
		out[k] = r / math.Sqrt(1-r*r)
	}
	return out
}

// isStationary reports whether c lies strictly inside the stationary region
func isStationary(c []float64) bool {
	for _, v := range unconstrainStationary(c) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}
