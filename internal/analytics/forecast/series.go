package forecast

import (
	"fmt"
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
)

// PrepareSeries turns a nullable daily series into model input. Leading and
// trailing undefined values are dropped; an undefined value between two
// defined ones is an error.
func PrepareSeries(dates []time.Time, values []analytics.NullFloat) ([]DataPoint, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("dates and values differ in length: %d vs %d", len(dates), len(values))
	}

	first, last := -1, -1
	for i, v := range values {
		if v.Valid {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("series has no defined values")
	}

	data := make([]DataPoint, 0, last-first+1)
	for i := first; i <= last; i++ {
		if !values[i].Valid {
			return nil, fmt.Errorf("series has a gap at %s", dates[i].Format("2006-01-02"))
		}
		data = append(data, DataPoint{Time: dates[i], Value: values[i].Value})
	}
	return data, nil
}
