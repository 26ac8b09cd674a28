package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MovingAverageDetector compares each point with the mean and spread of its
// centred neighbourhood, excluding the point itself. Suited to trending data
// such as an epidemic wave, where global methods flag the whole peak.
type MovingAverageDetector struct{}

func init() {
	RegisterDetector("moving_avg", &MovingAverageDetector{})
}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return "moving_avg"
}

// Detect finds anomalies using moving average method
func (ma *MovingAverageDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	windowSize := config.WindowSize
	if windowSize <= 0 {
		windowSize = 14
	}
	if windowSize > len(data) {
		windowSize = len(data) / 2
	}
	windowSize = max(windowSize, 3)

	var results []AnomalyResult
	neighbours := make([]float64, 0, windowSize+1)

	for i, dp := range data {
		lo := max(0, i-windowSize/2)
		hi := min(len(data)-1, i+windowSize/2)

		neighbours = neighbours[:0]
		for j := lo; j <= hi; j++ {
			if j != i {
				neighbours = append(neighbours, data[j].Value)
			}
		}
		if len(neighbours) == 0 {
			continue
		}

		localMean, localStdDev := stat.PopMeanStdDev(neighbours, nil)

		var deviation float64
		switch {
		case localStdDev > 0:
			deviation = math.Abs(dp.Value-localMean) / localStdDev
		case dp.Value != localMean:
			// flat neighbourhood: any difference is significant
			deviation = config.Threshold + 1
		}

		if deviation <= config.Threshold {
			continue
		}

		anomalyType := AnomalyTypeDrop
		if dp.Value > localMean {
			anomalyType = AnomalyTypeSpike
		}

		results = append(results, AnomalyResult{
			Index: i,
			Score: deviation,
			Type:  anomalyType,
			Expected: &Range{
				Min: localMean - config.Threshold*localStdDev,
				Max: localMean + config.Threshold*localStdDev,
			},
		})
	}

	return results
}
