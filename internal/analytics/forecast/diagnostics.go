package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// autocorrelation calculates the sample autocorrelation at lags 1..k
func autocorrelation(values []float64, k int) []float64 {
	n := len(values)
	if n == 0 || k <= 0 {
		return []float64{}
	}

	mu := stat.Mean(values, nil)
	variance := 0.0
	for _, v := range values {
		diff := v - mu
		variance += diff * diff
	}

	acf := make([]float64, k)
	if variance == 0 {
		return acf
	}

	for lag := 1; lag <= k && lag < n; lag++ {
		cov := 0.0
		for t := lag; t < n; t++ {
			cov += (values[t] - mu) * (values[t-lag] - mu)
		}
		acf[lag-1] = cov / variance
	}

	return acf
}

// levinsonDurbin solves the Yule-Walker equations for an AR(p) model from
// autocorrelations at lags 1..p
func levinsonDurbin(acf []float64, p int) []float64 {
	if len(acf) == 0 || p == 0 {
		return []float64{}
	}
	p = min(p, len(acf))

	phi := make([][]float64, p+1)
	for i := range phi {
		phi[i] = make([]float64, p+1)
	}

	phi[1][1] = acf[0]
	v := 1 - acf[0]*acf[0]

	for k := 2; k <= p; k++ {
		if v == 0 {
			break
		}

		num := acf[k-1]
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-1-j]
		}
		phi[k][k] = num / v

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}

		v *= 1 - phi[k][k]*phi[k][k]
	}

	result := make([]float64, p)
	for i := 1; i <= p; i++ {
		result[i-1] = phi[p][i]
	}
	return result
}

// LjungBox tests residuals for remaining autocorrelation. fitted is the
// number of estimated ARMA coefficients, subtracted from the degrees of
// freedom. The p-value is NaN when no degrees of freedom remain.
func LjungBox(residuals []float64, lags, fitted int) (q, pValue float64) {
	n := len(residuals)
	lags = min(lags, n-1)
	if lags < 1 {
		return math.NaN(), math.NaN()
	}

	acf := autocorrelation(residuals, lags)
	fn := float64(n)
	for k := 1; k <= lags; k++ {
		q += acf[k-1] * acf[k-1] / (fn - float64(k))
	}
	q *= fn * (fn + 2)

	df := lags - fitted
	if df <= 0 {
		return q, math.NaN()
	}
	return q, distuv.ChiSquared{K: float64(df)}.Survival(q)
}
