package anomaly

import (
	"sort"
)

// IQRDetector flags points outside [Q1 - k*IQR, Q3 + k*IQR], with k the
// configured threshold. Robust to the heavy right tail of daily case counts.
type IQRDetector struct{}

func init() {
	RegisterDetector("iqr", &IQRDetector{})
}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return "iqr"
}

// Detect finds anomalies using IQR method
func (iqr *IQRDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	q1, q3, iqrValue := CalculateIQR(pointValues(data))

	expectedRange := &Range{
		Min: q1 - config.Threshold*iqrValue,
		Max: q3 + config.Threshold*iqrValue,
	}

	var results []AnomalyResult
	for i, dp := range data {
		var excess float64
		var anomalyType AnomalyType
		switch {
		case dp.Value > expectedRange.Max:
			excess = dp.Value - expectedRange.Max
			anomalyType = AnomalyTypeSpike
		case dp.Value < expectedRange.Min:
			excess = expectedRange.Min - dp.Value
			anomalyType = AnomalyTypeDrop
		default:
			continue
		}

		score := 1.0
		if iqrValue > 0 {
			score = excess / iqrValue
		}

		results = append(results, AnomalyResult{
			Index:    i,
			Score:    score,
			Type:     anomalyType,
			Expected: expectedRange,
		})
	}

	return results
}

// percentile calculates the p-th percentile (0-100) of sorted data with
// linear interpolation between closest ranks
func percentile(sortedData []float64, p float64) float64 {
	switch len(sortedData) {
	case 0:
		return 0
	case 1:
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	if lower+1 >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	weight := index - float64(lower)
	return sortedData[lower]*(1-weight) + sortedData[lower+1]*weight
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 = percentile(sorted, 25)
	q3 = percentile(sorted, 75)
	return q1, q3, q3 - q1
}

func pointValues(data []DataPoint) []float64 {
	values := make([]float64, len(data))
	for i, dp := range data {
		values[i] = dp.Value
	}
	return values
}
