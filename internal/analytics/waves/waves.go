// Package waves locates infection waves as prominent peaks of the smoothed
// case curve.
package waves

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/config"
)

// Options parameterizes peak detection
type Options struct {
	Distance        int     // Minimum spacing between peaks in samples
	ProminenceRatio float64 // Minimum prominence as a fraction of the series maximum
}

// DefaultOptions returns a 14-sample distance and a 5% prominence floor
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Waves)
}

// OptionsFromConfig maps the waves section onto Options
func OptionsFromConfig(cfg config.WavesConfig) Options {
	return Options{
		Distance:        cfg.Distance,
		ProminenceRatio: cfg.ProminenceRatio,
	}
}

// Peak is one detected wave
type Peak struct {
	Index      int
	Date       time.Time
	Value      float64
	Prominence float64
	LeftBase   int
	RightBase  int
}

// FindPeaks returns the peaks of x that are at least distance samples apart
// and at least minProminence above their surrounding valleys, in index order.
func FindPeaks(x []float64, distance int, minProminence float64) ([]Peak, error) {
	if distance < 1 {
		return nil, fmt.Errorf("distance must be at least 1, got %d", distance)
	}

	candidates := selectByDistance(x, localMaxima(x), distance)

	var peaks []Peak
	for _, idx := range candidates {
		prom, left, right := prominence(x, idx)
		if prom < minProminence {
			continue
		}
		peaks = append(peaks, Peak{
			Index:      idx,
			Value:      x[idx],
			Prominence: prom,
			LeftBase:   left,
			RightBase:  right,
		})
	}
	return peaks, nil
}

// Detect finds waves in the smoothed case series. Undefined values count as 0.
// A series with no qualifying peak yields an empty result.
func Detect(dates []time.Time, cases7d []analytics.NullFloat, opts Options) ([]Peak, error) {
	if len(dates) != len(cases7d) {
		return nil, fmt.Errorf("dates and values differ in length: %d vs %d", len(dates), len(cases7d))
	}
	if len(cases7d) == 0 {
		return nil, nil
	}

	x := analytics.NewTimeSeriesData(dates, cases7d, 0).Values()

	// The prominence floor follows the global max even when it is zero or
	// negative, where every local maximum qualifies. A flat series has no
	// local maxima and yields nothing.
	peaks, err := FindPeaks(x, opts.Distance, opts.ProminenceRatio*floats.Max(x))
	if err != nil {
		return nil, err
	}
	for i := range peaks {
		peaks[i].Date = dates[peaks[i].Index]
	}
	return peaks, nil
}

// Dates returns the peak dates in order
func Dates(peaks []Peak) []time.Time {
	out := make([]time.Time, len(peaks))
	for i, p := range peaks {
		out[i] = p.Date
	}
	return out
}
