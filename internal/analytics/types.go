// Package analytics provides the shared series types used by the feature, wave,
// anomaly and forecast packages.
package analytics

import "time"

// TimeSeriesPoint represents a single dated observation.
// This is the common type used across all analytics packages (forecast, anomaly, downsampling)
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// NewTimeSeriesData pairs dates with values. Undefined values are replaced by fill.
func NewTimeSeriesData(dates []time.Time, values []NullFloat, fill float64) TimeSeriesData {
	n := min(len(dates), len(values))
	ts := make(TimeSeriesData, n)
	for i := 0; i < n; i++ {
		ts[i] = TimeSeriesPoint{Time: dates[i], Value: values[i].Or(fill)}
	}
	return ts
}

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}
