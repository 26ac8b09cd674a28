package forecast

import (
	"math"
	"math/rand/v2"
	"time"
)

// Common test data and helpers for all forecast tests

var testBaseTime = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(20200301, 7))
}

func toDataPoints(values []float64) []DataPoint {
	data := make([]DataPoint, len(values))
	for i, v := range values {
		data[i] = DataPoint{
			Time:  testBaseTime.AddDate(0, 0, i),
			Value: v,
		}
	}
	return data
}

// generateSeasonalTestData creates a noisy daily series with a wave of the given period
func generateSeasonalTestData(n int, period int) []DataPoint {
	rng := newRand()
	values := make([]float64, n)
	for i := range values {
		seasonal := 300 * math.Sin(2*math.Pi*float64(i)/float64(period))
		values[i] = 1000 + seasonal + rng.NormFloat64()*20
	}
	return toDataPoints(values)
}

// generateAR1 simulates y[t] = phi*y[t-1] + e[t] with unit-variance shocks
func generateAR1(n int, phi float64) []float64 {
	rng := newRand()
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + rng.NormFloat64()
	}
	return values
}

// generateRandomWalk cumulates unit-variance shocks from 100
func generateRandomWalk(n int) []float64 {
	rng := newRand()
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}
	return values
}
