package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/models"
)

var start = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

// makeSeries builds a country series from plain new-case values. Negative
// values become undefined.
func makeSeries(cases []float64) *models.CountrySeries {
	records := make([]models.Record, len(cases))
	total := 0.0
	for i, c := range cases {
		r := models.Record{Date: start.AddDate(0, 0, i), Location: "India"}
		if c >= 0 {
			r.NewCases = analytics.Float(c)
			total += c
		}
		r.NewDeaths = analytics.Float(c / 100)
		r.TotalCases = analytics.Float(total)
		r.TotalDeaths = analytics.Float(total / 100)
		r.Population = analytics.Float(1e6)
		records[i] = r
	}
	return models.NewCountrySeries("India", records)
}

func TestRollingMean_MinPeriods(t *testing.T) {
	values := make([]analytics.NullFloat, 50)
	for i := range values {
		values[i] = analytics.Float(float64(i + 1))
	}

	out := RollingMean(values, 365, 30)
	for i := 0; i < 29; i++ {
		assert.False(t, out[i].Valid, "index %d must be undefined", i)
	}
	// mean of 1..30
	assert.InDelta(t, 15.5, out[29].Value, 1e-12)
	// mean of 1..50
	assert.InDelta(t, 25.5, out[49].Value, 1e-12)
}

func TestRollingMean_CountsOnlyDefinedSamples(t *testing.T) {
	values := []analytics.NullFloat{
		analytics.Float(2), analytics.Null(), analytics.Float(4), analytics.Float(6),
	}

	out := RollingMean(values, 3, 2)
	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.Equal(t, analytics.Float(3), out[2])
	assert.Equal(t, analytics.Float(5), out[3])
}

func TestRollingMean_WindowSlides(t *testing.T) {
	values := analytics.NullFloats([]float64{1, 2, 3, 4, 5})
	out := RollingMean(values, 2, 1)
	assert.Equal(t, analytics.NullFloats([]float64{1, 1.5, 2.5, 3.5, 4.5}), out)
}

func TestRollingSum_ZeroMinPeriods(t *testing.T) {
	values := []analytics.NullFloat{analytics.Null(), analytics.Null(), analytics.Float(3)}

	out := RollingSum(values, 2, 0)
	assert.Equal(t, analytics.Float(0), out[0])
	assert.Equal(t, analytics.Float(0), out[1])
	assert.Equal(t, analytics.Float(3), out[2])

	out = RollingSum(values, 2, 1)
	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.Equal(t, analytics.Float(3), out[2])
}

func TestShift(t *testing.T) {
	values := analytics.NullFloats([]float64{1, 2, 3, 4})
	out := Shift(values, 2)

	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.Equal(t, analytics.Float(1), out[2])
	assert.Equal(t, analytics.Float(2), out[3])

	assert.Equal(t, values, Shift(values, 0))
	assert.Equal(t, 0, analytics.CountValid(Shift(values, 10)))
}

func TestForwardFill(t *testing.T) {
	values := []analytics.NullFloat{
		analytics.Null(), analytics.Float(5), analytics.Null(), analytics.Float(7), analytics.Null(),
	}
	out := ForwardFill(values)

	assert.False(t, out[0].Valid)
	assert.Equal(t, analytics.Float(5), out[1])
	assert.Equal(t, analytics.Float(5), out[2])
	assert.Equal(t, analytics.Float(7), out[3])
	assert.Equal(t, analytics.Float(7), out[4])
	// input untouched
	assert.False(t, values[2].Valid)
}

func TestGrowthRate_AlwaysFinite(t *testing.T) {
	values := []analytics.NullFloat{
		analytics.Float(0), analytics.Float(10), analytics.Float(0), analytics.Float(0),
		analytics.Null(), analytics.Float(5), analytics.Float(10),
	}
	out := GrowthRate(values)

	want := []float64{0, 0, -1, 0, 0, 0, 1}
	require.Len(t, out, len(want))
	for i, w := range want {
		require.True(t, out[i].Valid, "index %d", i)
		assert.False(t, math.IsInf(out[i].Value, 0) || math.IsNaN(out[i].Value))
		assert.Equal(t, w, out[i].Value, "index %d", i)
	}
}

func TestDerive_GrowthScenario(t *testing.T) {
	series := makeSeries([]float64{100, 200, 150})

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, d.GrowthRate[0].Value)
	assert.Equal(t, 1.0, d.GrowthRate[1].Value)
	assert.Equal(t, -0.25, d.GrowthRate[2].Value)
}

func TestDerive_SmoothedCasesProperty(t *testing.T) {
	cases := make([]float64, 400)
	for i := range cases {
		cases[i] = float64((i*37)%101) + 1
	}
	series := makeSeries(cases)

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, len(cases), d.Len())

	for i := range cases {
		if i < 29 {
			assert.False(t, d.Cases7d[i].Valid, "index %d", i)
			continue
		}
		lo := max(0, i-364)
		sum := 0.0
		for j := lo; j <= i; j++ {
			sum += cases[j]
		}
		require.True(t, d.Cases7d[i].Valid, "index %d", i)
		assert.InDelta(t, sum/float64(i-lo+1), d.Cases7d[i].Value, 1e-9, "index %d", i)
	}
}

func TestDerive_NullCasesFilledBeforeSmoothing(t *testing.T) {
	cases := make([]float64, 40)
	for i := range cases {
		cases[i] = 10
	}
	cases[5] = -1 // undefined in the raw series
	series := makeSeries(cases)

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, analytics.Float(0), d.NewCases[5])
	// 30 samples from t=29, one of them filled to 0
	assert.InDelta(t, 290.0/30.0, d.Cases7d[29].Value, 1e-12)
	assert.False(t, series.Records[5].NewCases.Valid, "raw records must not be modified")
}

func TestDerive_NaiveCFR(t *testing.T) {
	series := makeSeries([]float64{0, 0, 100})
	series.Records[2].TotalDeaths = analytics.Float(2)

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, d.NaiveCFR[0].Valid, "0/0 must be undefined")
	assert.False(t, d.NaiveCFR[1].Valid)
	assert.Equal(t, analytics.Float(0.02), d.NaiveCFR[2])
}

func TestDerive_LaggedCFR(t *testing.T) {
	cases := make([]float64, 60)
	for i := range cases {
		cases[i] = 100
	}
	series := makeSeries(cases)

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)

	// Death sum is defined from the first sample
	assert.True(t, d.DeathsSum[0].Valid)
	assert.Equal(t, analytics.Float(1), d.DeathsSum[0])

	// Lagged case sum needs 30 shifted samples: 14 + 30 - 1
	for i := 0; i < 43; i++ {
		assert.False(t, d.CasesLagSum[i].Valid, "index %d", i)
		assert.False(t, d.LaggedCFR14[i].Valid, "index %d", i)
	}
	assert.Equal(t, analytics.Float(3000), d.CasesLagSum[43])
	assert.InDelta(t, 44.0/3000.0, d.LaggedCFR14[43].Value, 1e-12)

	assert.InDelta(t, 60.0/4600.0, d.LaggedCFR14[59].Value, 1e-12)
}

func TestDerive_PerCapita(t *testing.T) {
	cases := make([]float64, 31)
	for i := range cases {
		cases[i] = 50
	}
	series := makeSeries(cases)
	for i := range series.Records {
		series.Records[i].Population = analytics.Null()
	}
	series.Records[10].Population = analytics.Float(1e6)

	d, err := Derive(series, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, d.Population[9].Valid)
	assert.Equal(t, analytics.Float(1e6), d.Population[30])
	assert.InDelta(t, 50.0/1e6*10000, d.Cases7dPer100k[30].Value, 1e-12)
	assert.False(t, d.Cases7dPer100k[28].Valid)
}

func TestDerive_Errors(t *testing.T) {
	_, err := Derive(models.NewCountrySeries("India", nil), DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.RollingWindow = 0
	_, err = Derive(makeSeries([]float64{1}), opts)
	assert.Error(t, err)
}
