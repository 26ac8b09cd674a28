package anomaly

import (
	"sort"
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
)

// Report summarizes a scan of one daily series
type Report struct {
	Method    string
	Anomalies []Anomaly
}

// Count returns the number of anomalies of type t
func (r *Report) Count(t AnomalyType) int {
	n := 0
	for _, a := range r.Anomalies {
		if a.Type == t {
			n++
		}
	}
	return n
}

// Scan runs the revision detector and the named detector over the defined
// values of a daily series. A date flagged by both is reported once, as a
// revision. Anomalies are ordered by date.
func Scan(dates []time.Time, values []analytics.NullFloat, method string, cfg DetectorConfig) (*Report, error) {
	detector, err := GetDetector(method)
	if err != nil {
		return nil, err
	}

	var data []DataPoint
	for i := 0; i < min(len(dates), len(values)); i++ {
		if values[i].Valid {
			data = append(data, DataPoint{Time: dates[i], Value: values[i].Value})
		}
	}

	byIndex := make(map[int]Anomaly)
	collect := func(name string, results []AnomalyResult) {
		for _, r := range results {
			if _, seen := byIndex[r.Index]; seen {
				continue
			}
			byIndex[r.Index] = Anomaly{
				Date:      data[r.Index].Time,
				Value:     data[r.Index].Value,
				Expected:  r.Expected,
				Score:     r.Score,
				Type:      r.Type,
				Algorithm: name,
			}
		}
	}

	revisions := &RevisionDetector{}
	collect(revisions.Name(), revisions.Detect(data, cfg))
	if method != revisions.Name() {
		collect(detector.Name(), detector.Detect(data, cfg))
	}

	report := &Report{Method: method}
	for _, a := range byIndex {
		report.Anomalies = append(report.Anomalies, a)
	}
	sort.Slice(report.Anomalies, func(i, j int) bool {
		return report.Anomalies[i].Date.Before(report.Anomalies[j].Date)
	})
	return report, nil
}
