package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZScoreDetector flags points more than Threshold population standard
// deviations away from the mean
type ZScoreDetector struct{}

func init() {
	RegisterDetector("zscore", &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	mean, stdDev := CalculateMeanStdDev(pointValues(data))
	if stdDev == 0 {
		return detectFlatline(data)
	}

	expectedRange := &Range{
		Min: mean - config.Threshold*stdDev,
		Max: mean + config.Threshold*stdDev,
	}

	var results []AnomalyResult
	for i, dp := range data {
		zScore := CalculateZScore(dp.Value, mean, stdDev)
		if math.Abs(zScore) <= config.Threshold {
			continue
		}

		anomalyType := AnomalyTypeDrop
		if zScore > 0 {
			anomalyType = AnomalyTypeSpike
		}

		results = append(results, AnomalyResult{
			Index:    i,
			Score:    math.Abs(zScore),
			Type:     anomalyType,
			Expected: expectedRange,
		})
	}

	return results
}

// detectFlatline marks every point when the series never varies, which for
// daily counts means the source stopped reporting
func detectFlatline(data []DataPoint) []AnomalyResult {
	first := data[0].Value
	for _, dp := range data[1:] {
		if dp.Value != first {
			return nil
		}
	}

	results := make([]AnomalyResult, len(data))
	for i := range data {
		results[i] = AnomalyResult{
			Index: i,
			Score: 1.0,
			Type:  AnomalyTypeFlatline,
		}
	}
	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// CalculateMeanStdDev returns the mean and population standard deviation
func CalculateMeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}
