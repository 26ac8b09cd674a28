package anomaly

// RevisionDetector flags negative daily counts. Sources publish these when a
// cumulative total is corrected downwards.
type RevisionDetector struct{}

func init() {
	RegisterDetector("revision", &RevisionDetector{})
}

// Name returns the algorithm name
func (r *RevisionDetector) Name() string {
	return "revision"
}

// Detect flags every negative value regardless of MinDataPoints
func (r *RevisionDetector) Detect(data []DataPoint, _ DetectorConfig) []AnomalyResult {
	var results []AnomalyResult
	for i, dp := range data {
		if dp.Value < 0 {
			results = append(results, AnomalyResult{
				Index:    i,
				Score:    -dp.Value,
				Type:     AnomalyTypeRevision,
				Expected: &Range{Min: 0, Max: 0},
			})
		}
	}
	return results
}
