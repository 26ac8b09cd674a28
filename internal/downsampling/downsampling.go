// Package downsampling reduces long daily series to a drawable number of
// points while keeping their visual shape.
package downsampling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/epiwave/epiwave/internal/analytics"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone means no downsampling
	ModeNone Mode = "none"
	// ModeAuto picks an algorithm from the shape of the data
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets algorithm
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps min and max values per bucket (preserves peaks/spikes)
	ModeMinMax Mode = "minmax"
	// ModeAverage uses average value per bucket
	ModeAverage Mode = "avg"
	// ModeM4 keeps First, Min, Max, Last per bucket (4 points per bucket)
	ModeM4 Mode = "m4"
)

// DefaultAutoThreshold is the default threshold for auto mode
const DefaultAutoThreshold = 1000

// MinLTTBThreshold is the minimum threshold for LTTB algorithm
const MinLTTBThreshold = 100

// ValidModes returns all valid downsampling modes
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4}
}

// IsValid checks if a mode string is valid
func IsValid(mode string) bool {
	for _, m := range ValidModes() {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Apply reduces points to roughly threshold entries. Non-finite values are
// dropped before sampling; every returned point is one of the inputs except
// in ModeAverage, which returns bucket means dated at the bucket middle.
func Apply(points []analytics.TimeSeriesPoint, mode Mode, threshold int) ([]analytics.TimeSeriesPoint, error) {
	if mode == ModeNone || len(points) == 0 {
		return points, nil
	}
	if !IsValid(string(mode)) {
		return nil, fmt.Errorf("unknown downsampling mode: %s", mode)
	}

	data := make([]analytics.TimeSeriesPoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		data = append(data, p)
	}
	if len(data) == 0 {
		return data, nil
	}

	if mode == ModeAuto {
		if threshold <= 0 {
			threshold = DefaultAutoThreshold
		}
		if len(data) <= threshold {
			return data, nil
		}
		mode = detectBestAlgorithm(data)
	}

	if threshold < 2 {
		threshold = 2
	}
	if len(data) <= threshold {
		return data, nil
	}

	var indices []int
	switch mode {
	case ModeLTTB:
		indices = lttb(data, max(threshold, MinLTTBThreshold))
	case ModeMinMax:
		indices = minmax(data, threshold)
	case ModeM4:
		indices = m4(data, threshold)
	case ModeAverage:
		return average(data, threshold), nil
	}

	sampled := make([]analytics.TimeSeriesPoint, len(indices))
	for i, idx := range indices {
		sampled[i] = data[idx]
	}
	return sampled, nil
}

// detectBestAlgorithm selects a mode from the data characteristics:
// spiky data keeps extremes with MinMax, moderately noisy data uses M4 and
// smooth data uses LTTB. Very large smooth inputs fall back to averaging.
func detectBestAlgorithm(data []analytics.TimeSeriesPoint) Mode {
	spikiness := calculateSpikiness(data)

	switch {
	case spikiness > 0.2:
		return ModeMinMax
	case len(data) > 100000:
		return ModeAverage
	case spikiness > 0.1:
		return ModeM4
	default:
		return ModeLTTB
	}
}

// calculateSpikiness returns a value between 0 (smooth) and 1 (very spiky)
// from the share of points far from the mean and of large day-to-day jumps
func calculateSpikiness(data []analytics.TimeSeriesPoint) float64 {
	if len(data) < 10 {
		return 0
	}

	values := analytics.TimeSeriesData(data).Values()
	mean, stdDev := stat.PopMeanStdDev(values, nil)
	if stdDev == 0 {
		return 0
	}

	spikeCount := 0
	jumpCount := 0
	for i, v := range values {
		if math.Abs(v-mean) > 2*stdDev {
			spikeCount++
		}
		if i > 0 && math.Abs(v-values[i-1]) > stdDev {
			jumpCount++
		}
	}

	absolute := float64(spikeCount) / float64(len(values))
	derivative := float64(jumpCount) / float64(len(values)-1)

	return math.Min((absolute+1.5*derivative)/2.5, 1)
}

// lttb implements the Largest-Triangle-Three-Buckets algorithm and returns
// the selected indices
func lttb(data []analytics.TimeSeriesPoint, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(len(data))
	}

	sampled := make([]int, 0, threshold)
	sampled = append(sampled, 0)

	// Bucket size excluding first and last points
	bucketSize := float64(len(data)-2) / float64(threshold-2)

	// Previously selected point
	a := 0

	for i := 0; i < threshold-2; i++ {
		// Average of the next bucket
		avgStart := int(math.Floor(float64(i+1)*bucketSize)) + 1
		avgEnd := min(int(math.Floor(float64(i+2)*bucketSize))+1, len(data))

		avgX, avgY := 0.0, 0.0
		for j := avgStart; j < avgEnd; j++ {
			avgX += float64(j)
			avgY += data[j].Value
		}
		avgLen := float64(avgEnd - avgStart)
		avgX /= avgLen
		avgY /= avgLen

		rangeStart := int(math.Floor(float64(i)*bucketSize)) + 1
		rangeEnd := int(math.Floor(float64(i+1)*bucketSize)) + 1

		ax := float64(a)
		ay := data[a].Value

		maxArea := -1.0
		next := rangeStart
		for j := rangeStart; j < rangeEnd; j++ {
			area := math.Abs((ax-avgX)*(data[j].Value-ay)-(ax-float64(j))*(avgY-ay)) * 0.5
			if area > maxArea {
				maxArea = area
				next = j
			}
		}

		sampled = append(sampled, next)
		a = next
	}

	return append(sampled, len(data)-1)
}

// bucket returns the half-open index range of bucket i out of n over size points
func bucket(i, n, size int) (start, end int) {
	width := float64(size) / float64(n)
	start = int(float64(i) * width)
	end = min(int(float64(i+1)*width), size)
	return start, end
}

// extremes returns the indices of the minimum and maximum in data[start:end]
func extremes(data []analytics.TimeSeriesPoint, start, end int) (minIdx, maxIdx int) {
	minIdx, maxIdx = start, start
	for j := start + 1; j < end; j++ {
		if data[j].Value < data[minIdx].Value {
			minIdx = j
		}
		if data[j].Value > data[maxIdx].Value {
			maxIdx = j
		}
	}
	return minIdx, maxIdx
}

// minmax keeps the min and max of each bucket in time order, about
// threshold points in total
func minmax(data []analytics.TimeSeriesPoint, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(len(data))
	}

	numBuckets := max(threshold/2, 1)
	sampled := make([]int, 0, numBuckets*2)

	for i := 0; i < numBuckets; i++ {
		start, end := bucket(i, numBuckets, len(data))
		if start >= end {
			continue
		}

		minIdx, maxIdx := extremes(data, start, end)
		lo, hi := min(minIdx, maxIdx), max(minIdx, maxIdx)
		sampled = append(sampled, lo)
		if hi != lo {
			sampled = append(sampled, hi)
		}
	}

	return sampled
}

// m4 keeps first, min, max and last of each bucket in time order
func m4(data []analytics.TimeSeriesPoint, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(len(data))
	}

	numBuckets := max(threshold/4, 1)
	sampled := make([]int, 0, numBuckets*4)

	for i := 0; i < numBuckets; i++ {
		start, end := bucket(i, numBuckets, len(data))
		if start >= end {
			continue
		}

		first, last := start, end-1
		minIdx, maxIdx := extremes(data, start, end)
		lo, hi := min(minIdx, maxIdx), max(minIdx, maxIdx)

		prev := -1
		for _, idx := range []int{first, lo, hi, last} {
			if idx > prev {
				sampled = append(sampled, idx)
				prev = idx
			}
		}
	}

	return sampled
}

// average returns one mean per bucket dated at the bucket's middle point
func average(data []analytics.TimeSeriesPoint, threshold int) []analytics.TimeSeriesPoint {
	out := make([]analytics.TimeSeriesPoint, 0, threshold)
	for i := 0; i < threshold; i++ {
		start, end := bucket(i, threshold, len(data))
		if start >= end {
			continue
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j].Value
		}
		out = append(out, analytics.TimeSeriesPoint{
			Time:  data[start+(end-start)/2].Time,
			Value: sum / float64(end-start),
		})
	}
	return out
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
