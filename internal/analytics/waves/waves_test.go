package waves

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwave/epiwave/internal/analytics"
)

var start = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// bump adds a triangular spike of the given height centred on c
func bump(x []float64, c int, height float64, halfWidth int) {
	for i := c - halfWidth; i <= c+halfWidth; i++ {
		if i < 0 || i >= len(x) {
			continue
		}
		d := math.Abs(float64(i - c))
		x[i] += height * (1 - d/float64(halfWidth+1))
	}
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want []int
	}{
		{"single peak", []float64{0, 1, 0}, []int{1}},
		{"edges are not peaks", []float64{3, 1, 2}, nil},
		{"plateau resolves to middle", []float64{0, 2, 2, 2, 0}, []int{2}},
		{"even plateau rounds down", []float64{0, 2, 2, 0}, []int{1}},
		{"plateau running to the edge", []float64{0, 2, 2, 2}, nil},
		{"two peaks", []float64{0, 3, 1, 4, 0}, []int{1, 3}},
		{"too short", []float64{1, 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, localMaxima(tt.x))
		})
	}
}

func TestSelectByDistance_HigherPeakWins(t *testing.T) {
	x := []float64{0, 5, 0, 9, 0, 4, 0, 0, 0, 0, 7, 0}
	peaks := localMaxima(x)
	require.Equal(t, []int{1, 3, 5, 10}, peaks)

	assert.Equal(t, []int{3, 10}, selectByDistance(x, peaks, 3))
	assert.Equal(t, peaks, selectByDistance(x, peaks, 1))
}

func TestProminence(t *testing.T) {
	x := []float64{1, 5, 2, 8, 3, 6, 0}

	prom, left, right := prominence(x, 1)
	assert.Equal(t, 3.0, prom) // higher base is 2 on the right
	assert.Equal(t, 0, left)
	assert.Equal(t, 2, right)

	prom, _, _ = prominence(x, 3)
	assert.Equal(t, 7.0, prom) // global max, bases 1 and 0

	prom, _, _ = prominence(x, 5)
	assert.Equal(t, 3.0, prom)
}

func TestFindPeaks_InvalidDistance(t *testing.T) {
	_, err := FindPeaks([]float64{0, 1, 0}, 0, 0)
	assert.Error(t, err)
}

func TestDetect_MonotonicSeries(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i)
	}

	peaks, err := Detect(dates(len(values)), analytics.NullFloats(values), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestDetect_AllZero(t *testing.T) {
	values := make([]float64, 100)

	peaks, err := Detect(dates(len(values)), analytics.NullFloats(values), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestDetect_NonPositiveMax(t *testing.T) {
	x := []float64{0, -5, -1, -5, 0}

	peaks, err := Detect(dates(len(x)), analytics.NullFloats(x), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 2, peaks[0].Index)
	assert.Equal(t, -1.0, peaks[0].Value)
	assert.Equal(t, 4.0, peaks[0].Prominence)
}

func TestDetect_TwoSpikes(t *testing.T) {
	const h = 1000.0
	x := make([]float64, 300)
	bump(x, 80, h, 10)
	bump(x, 200, 2*h, 10)

	d := dates(len(x))
	peaks, err := Detect(d, analytics.NullFloats(x), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, peaks, 2)

	assert.Equal(t, d[80], peaks[0].Date)
	assert.Equal(t, d[200], peaks[1].Date)
	assert.True(t, peaks[0].Date.Before(peaks[1].Date))
	assert.Equal(t, h, peaks[0].Value)
	assert.Equal(t, []time.Time{d[80], d[200]}, Dates(peaks))
}

func TestDetect_UndefinedTreatedAsZero(t *testing.T) {
	values := make([]analytics.NullFloat, 60)
	for i := 30; i < 60; i++ {
		values[i] = analytics.Float(float64(100 - (i-45)*(i-45)))
	}

	peaks, err := Detect(dates(len(values)), values, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 45, peaks[0].Index)
}

func TestDetect_SmallRipplesRejected(t *testing.T) {
	x := make([]float64, 200)
	bump(x, 100, 1000, 30)
	// ripple of 1% of the max, well separated from the main peak
	bump(x, 20, 10, 3)

	peaks, err := Detect(dates(len(x)), analytics.NullFloats(x), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 100, peaks[0].Index)
}

func TestDetect_LengthMismatch(t *testing.T) {
	_, err := Detect(dates(3), analytics.NullFloats([]float64{1, 2}), DefaultOptions())
	assert.Error(t, err)
}
