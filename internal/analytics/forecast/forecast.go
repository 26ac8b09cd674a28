// Package forecast fits ARIMA models to the smoothed case curve and projects
// it forward with a confidence band.
package forecast

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/config"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// ForecastPoint represents a single forecast prediction
type ForecastPoint struct {
	Time       time.Time
	Value      float64
	LowerBound float64
	UpperBound float64
}

// ModelInfo contains metadata about the forecast model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	MAPE       float64                `json:"mape,omitempty"` // Mean Absolute Percentage Error
	MAE        float64                `json:"mae,omitempty"`  // Mean Absolute Error
	RMSE       float64                `json:"rmse,omitempty"` // Root Mean Squared Error
	DataPoints int                    `json:"data_points"`    // Number of data points used
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	Fitted      []float64       `json:"fitted,omitempty"`    // In-sample one-step predictions for input indices D..len-1, len(data)-D entries
	Residuals   []float64       `json:"residuals,omitempty"` // Residuals (actual - fitted)
	ModelInfo   ModelInfo       `json:"model_info"`
	Summary     *ModelSummary   `json:"summary,omitempty"`
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Horizon       int     // Number of days to forecast
	Confidence    float64 // Confidence level for prediction intervals (0-1)
	MinDataPoints int     // Minimum data points required
	MaxIterations int     // Optimizer iteration budget
}

// DefaultForecastConfig returns a 365-day horizon with an 80% band
func DefaultForecastConfig() ForecastConfig {
	return ConfigFromSettings(config.DefaultConfig().Forecast)
}

// ConfigFromSettings maps the forecast section onto ForecastConfig
func ConfigFromSettings(cfg config.ForecastConfig) ForecastConfig {
	return ForecastConfig{
		Horizon:       cfg.Horizon,
		Confidence:    cfg.Confidence,
		MinDataPoints: 30,
		MaxIterations: cfg.MaxIterations,
	}
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Forecast generates predictions for future time periods
	Forecast(data []DataPoint, config ForecastConfig) (*ForecastResult, error)
}

// OrderedForecaster is a Forecaster whose model order is configurable
type OrderedForecaster interface {
	Forecaster
	WithOrder(p, d, q int) Forecaster
}

// Registry holds available forecasters
var forecasterRegistry = make(map[string]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(name string, forecaster Forecaster) {
	forecasterRegistry[name] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name string) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", name)
}

// NewForecaster resolves method in the registry and applies the configured
// order to forecasters that take one
func NewForecaster(cfg config.ForecastConfig) (Forecaster, error) {
	forecaster, err := GetForecaster(cfg.Method)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(ListForecasters(), ", "))
	}
	if ordered, ok := forecaster.(OrderedForecaster); ok {
		return ordered.WithOrder(cfg.Order.P, cfg.Order.D, cfg.Order.Q), nil
	}
	return forecaster, nil
}

// ListForecasters returns the sorted names of available forecasters
func ListForecasters() []string {
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CalculateMAPE calculates Mean Absolute Percentage Error, skipping zero actuals
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// zScore returns the two-sided normal quantile for a confidence level,
// e.g. 1.2816 for 0.80
func zScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(0.5 + confidence/2)
}

// calculatePredictionInterval calculates prediction interval bounds
func calculatePredictionInterval(value, stdError, confidence float64) (lower, upper float64) {
	margin := zScore(confidence) * stdError
	return value - margin, value + margin
}
