// Package anomaly flags irregular daily reports: negative revisions, backlog
// dumps and reporting gaps. Results are informational and never alter a series.
package anomaly

import (
	"fmt"
	"sort"
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/config"
)

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeSpike    AnomalyType = "spike"    // Far above the expected range, e.g. a backlog dump
	AnomalyTypeDrop     AnomalyType = "drop"     // Far below the expected range
	AnomalyTypeRevision AnomalyType = "revision" // Negative daily count
	AnomalyTypeFlatline AnomalyType = "flatline" // No variation at all
)

// Anomaly is one flagged daily report
type Anomaly struct {
	Date      time.Time   `json:"date"`
	Value     float64     `json:"value"`
	Expected  *Range      `json:"expected,omitempty"`
	Score     float64     `json:"score"`     // How anomalous (higher = more abnormal)
	Type      AnomalyType `json:"type"`      // Type of anomaly
	Algorithm string      `json:"algorithm"` // Which algorithm detected it
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold is the IQR multiplier for iqr and the number of standard
	// deviations for zscore and moving_avg
	Threshold float64

	// WindowSize for window-based algorithms
	WindowSize int

	// MinDataPoints minimum number of points required for detection
	MinDataPoints int
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return ConfigFromSettings(config.DefaultConfig().Anomaly)
}

// ConfigFromSettings maps the anomaly section onto DetectorConfig
func ConfigFromSettings(cfg config.AnomalyConfig) DetectorConfig {
	return DetectorConfig{
		Threshold:     cfg.Threshold,
		WindowSize:    cfg.WindowSize,
		MinDataPoints: cfg.MinDataPoints,
	}
}

// AnomalyDetector interface for all anomaly detection algorithms
type AnomalyDetector interface {
	// Name returns the algorithm name
	Name() string

	// Detect returns the indices of anomalous points with their scores
	Detect(data []DataPoint, config DetectorConfig) []AnomalyResult
}

// AnomalyResult contains detection result for a single point
type AnomalyResult struct {
	Index    int         // Index in original data
	Score    float64     // Anomaly score
	Type     AnomalyType // Type of anomaly
	Expected *Range      // Expected range
}

// Registry holds available anomaly detectors
var detectorRegistry = make(map[string]AnomalyDetector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector AnomalyDetector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (AnomalyDetector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the sorted names of available detectors
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
