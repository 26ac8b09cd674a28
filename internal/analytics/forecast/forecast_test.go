package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/config"
)

func TestForecasterRegistry(t *testing.T) {
	assert.Equal(t, []string{"arima"}, ListForecasters())

	forecaster, err := GetForecaster("arima")
	require.NoError(t, err)
	assert.Equal(t, "arima", forecaster.Name())

	_, err = GetForecaster("prophet")
	assert.Error(t, err)
}

func TestNewForecaster(t *testing.T) {
	settings := config.ForecastConfig{
		Method: "arima",
		Order:  config.OrderConfig{P: 1, D: 1, Q: 0},
	}
	forecaster, err := NewForecaster(settings)
	require.NoError(t, err)
	arima, ok := forecaster.(*ARIMAForecaster)
	require.True(t, ok)
	assert.Equal(t, 1, arima.P)
	assert.Equal(t, 1, arima.D)
	assert.Equal(t, 0, arima.Q)

	// The registered instance keeps its default order
	registered, err := GetForecaster("arima")
	require.NoError(t, err)
	assert.Equal(t, 2, registered.(*ARIMAForecaster).P)

	settings.Method = "prophet"
	_, err = NewForecaster(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prophet")
	assert.Contains(t, err.Error(), "available: arima")
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.ForecastConfig{
		Order:         config.OrderConfig{P: 2, D: 1, Q: 2},
		Horizon:       30,
		Confidence:    0.9,
		MaxIterations: 100,
	})
	assert.Equal(t, 30, cfg.Horizon)
	assert.Equal(t, 0.9, cfg.Confidence)
	assert.Equal(t, 100, cfg.MaxIterations)

	def := DefaultForecastConfig()
	assert.Equal(t, 365, def.Horizon)
	assert.Equal(t, 0.8, def.Confidence)
}

func TestZScore(t *testing.T) {
	assert.InDelta(t, 1.2816, zScore(0.80), 1e-4)
	assert.InDelta(t, 1.96, zScore(0.95), 1e-3)

	lower, upper := calculatePredictionInterval(100, 10, 0.80)
	assert.InDelta(t, 100-12.816, lower, 1e-3)
	assert.InDelta(t, 100+12.816, upper, 1e-3)
}

func TestCalculateMetrics(t *testing.T) {
	actual := []float64{100, 200, 300}
	predicted := []float64{110, 190, 310}

	// (0.1 + 0.05 + 0.0333) / 3 * 100
	assert.InDelta(t, 6.111, CalculateMAPE(actual, predicted), 1e-3)
	assert.Equal(t, 10.0, CalculateMAE(actual, predicted))
	assert.Equal(t, 10.0, CalculateRMSE(actual, predicted))

	assert.Equal(t, 0.0, CalculateMAPE([]float64{0, 0}, []float64{1, 1}))
}

func TestCalculateMetrics_MismatchedLength(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMAPE([]float64{1, 2}, []float64{1}))
	assert.Equal(t, 0.0, CalculateMAE(nil, nil))
	assert.Equal(t, 0.0, CalculateRMSE([]float64{1}, nil))
}

func TestPrepareSeries(t *testing.T) {
	dates := make([]time.Time, 6)
	for i := range dates {
		dates[i] = testBaseTime.AddDate(0, 0, i)
	}

	values := []analytics.NullFloat{
		analytics.Null(), analytics.Float(1), analytics.Float(2), analytics.Float(3), analytics.Null(), analytics.Null(),
	}
	data, err := PrepareSeries(dates, values)
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, dates[1], data[0].Time)
	assert.Equal(t, 3.0, data[2].Value)

	values[2] = analytics.Null()
	_, err = PrepareSeries(dates, values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap")

	_, err = PrepareSeries(dates, make([]analytics.NullFloat, 6))
	assert.Error(t, err)

	_, err = PrepareSeries(dates[:2], values)
	assert.Error(t, err)
}
