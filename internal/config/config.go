package config

import (
	"fmt"
	"strings"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Waves    WavesConfig    `mapstructure:"waves"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig describes the input dataset
type SourceConfig struct {
	Path       string `mapstructure:"path"`        // Local file; .gz, .zst and .sz are decompressed
	Encoding   string `mapstructure:"encoding"`    // utf-8 or latin1
	DateFormat string `mapstructure:"date_format"` // Go reference layout
}

// AnalysisConfig controls country selection and derived metrics
type AnalysisConfig struct {
	Country            string  `mapstructure:"country"`
	RollingWindow      int     `mapstructure:"rolling_window"`        // Trailing window in samples (default: 365)
	MinPeriods         int     `mapstructure:"min_periods"`           // Valid samples required by means and the lagged case sum
	DeathSumMinPeriods int     `mapstructure:"death_sum_min_periods"` // Valid samples required by the death sum (default: 0)
	CFRLag             int     `mapstructure:"cfr_lag"`               // Days between case report and death
	PerCapitaScale     float64 `mapstructure:"per_capita_scale"`
}

// WavesConfig controls peak detection
type WavesConfig struct {
	Distance        int     `mapstructure:"distance"`
	ProminenceRatio float64 `mapstructure:"prominence_ratio"` // Fraction of the global maximum
}

// OrderConfig is an ARIMA (p,d,q) order
type OrderConfig struct {
	P int `mapstructure:"p"`
	D int `mapstructure:"d"`
	Q int `mapstructure:"q"`
}

// ForecastConfig controls the ARIMA forecaster
type ForecastConfig struct {
	Method        string      `mapstructure:"method"` // Registered forecaster name
	Order         OrderConfig `mapstructure:"order"`
	Horizon       int         `mapstructure:"horizon"`
	Confidence    float64     `mapstructure:"confidence"`
	MaxIterations int         `mapstructure:"max_iterations"`
}

// AnomalyConfig controls the reporting irregularity scan
type AnomalyConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Method        string  `mapstructure:"method"`      // iqr, zscore, moving_avg
	Threshold     float64 `mapstructure:"threshold"`   // IQR multiplier or standard deviations
	WindowSize    int     `mapstructure:"window_size"` // Neighbourhood for moving_avg
	MinDataPoints int     `mapstructure:"min_data_points"`
}

// ReportConfig controls the generated artifacts
type ReportConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	CSVFile        string `mapstructure:"csv_file"`
	TailWindow     int    `mapstructure:"tail_window"`
	Charts         bool   `mapstructure:"charts"`
	MaxChartPoints int    `mapstructure:"max_chart_points"` // Lines longer than this are downsampled; 0 disables
	Downsample     string `mapstructure:"downsample"`       // none, auto, lttb, minmax, avg, m4
	RecentHistory  int    `mapstructure:"recent_history"`   // Historical days drawn on the forecast chart
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Waves.Validate(); err != nil {
		return fmt.Errorf("waves config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Anomaly.Validate(); err != nil {
		return fmt.Errorf("anomaly config: %w", err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates source configuration
func (c *SourceConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("source.path is required")
	}

	switch strings.ToLower(c.Encoding) {
	case "utf-8", "utf8", "latin1", "iso-8859-1":
	default:
		return fmt.Errorf("source.encoding must be one of: utf-8, latin1")
	}

	if c.DateFormat == "" {
		return fmt.Errorf("source.date_format is required")
	}

	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if c.Country == "" {
		return fmt.Errorf("analysis.country is required")
	}

	if c.RollingWindow < 1 {
		return fmt.Errorf("analysis.rolling_window must be at least 1")
	}

	if c.MinPeriods < 0 || c.MinPeriods > c.RollingWindow {
		return fmt.Errorf("analysis.min_periods must be between 0 and rolling_window")
	}

	if c.DeathSumMinPeriods < 0 || c.DeathSumMinPeriods > c.RollingWindow {
		return fmt.Errorf("analysis.death_sum_min_periods must be between 0 and rolling_window")
	}

	if c.CFRLag < 0 {
		return fmt.Errorf("analysis.cfr_lag must be non-negative")
	}

	if c.PerCapitaScale <= 0 {
		return fmt.Errorf("analysis.per_capita_scale must be positive")
	}

	return nil
}

// Validate validates wave detection configuration
func (c *WavesConfig) Validate() error {
	if c.Distance < 1 {
		return fmt.Errorf("waves.distance must be at least 1")
	}

	if c.ProminenceRatio < 0 || c.ProminenceRatio > 1 {
		return fmt.Errorf("waves.prominence_ratio must be between 0 and 1")
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.Method == "" {
		return fmt.Errorf("forecast.method is required")
	}

	if c.Order.P < 0 || c.Order.D < 0 || c.Order.Q < 0 {
		return fmt.Errorf("forecast.order values must be non-negative")
	}

	if c.Order.D > 2 {
		return fmt.Errorf("forecast.order.d must be at most 2")
	}

	if c.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be at least 1")
	}

	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("forecast.confidence must be between 0 and 1 (exclusive)")
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("forecast.max_iterations must be at least 1")
	}

	return nil
}

// Validate validates anomaly scan configuration
func (c *AnomalyConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	validMethods := map[string]bool{
		"iqr":        true,
		"zscore":     true,
		"moving_avg": true,
	}

	if !validMethods[c.Method] {
		return fmt.Errorf("anomaly.method must be one of: iqr, zscore, moving_avg")
	}

	if c.Threshold <= 0 {
		return fmt.Errorf("anomaly.threshold must be positive")
	}

	if c.Method == "moving_avg" && c.WindowSize < 3 {
		return fmt.Errorf("anomaly.window_size must be at least 3")
	}

	return nil
}

// Validate validates report configuration
func (c *ReportConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}

	if c.CSVFile == "" {
		return fmt.Errorf("report.csv_file is required")
	}

	if c.TailWindow < 1 {
		return fmt.Errorf("report.tail_window must be at least 1")
	}

	if c.MaxChartPoints < 0 {
		return fmt.Errorf("report.max_chart_points must be non-negative")
	}

	if c.MaxChartPoints > 0 && c.MaxChartPoints < 3 {
		return fmt.Errorf("report.max_chart_points must be 0 or at least 3")
	}

	switch c.Downsample {
	case "none", "auto", "lttb", "minmax", "avg", "m4":
	default:
		return fmt.Errorf("report.downsample must be one of none, auto, lttb, minmax, avg, m4, got %q", c.Downsample)
	}

	if c.RecentHistory < 1 {
		return fmt.Errorf("report.recent_history must be at least 1")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
