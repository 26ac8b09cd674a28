package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EPIWAVE_ANALYSIS_COUNTRY.
const EnvPrefix = "EPIWAVE"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	return LoadWith(NewViper(), configPath)
}

// NewViper returns a viper instance with defaults and environment overrides
// registered. Callers may bind command-line flags to it before LoadWith.
func NewViper() *viper.Viper {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadWith reads the config file into v and returns the parsed configuration
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("epiwave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")            // Current directory
		v.AddConfigPath("./configs")    // Project configs directory
		v.AddConfigPath("/etc/epiwave") // System-wide config
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Source defaults
	v.SetDefault("source.path", d.Source.Path)
	v.SetDefault("source.encoding", d.Source.Encoding)
	v.SetDefault("source.date_format", d.Source.DateFormat)

	// Analysis defaults
	v.SetDefault("analysis.country", d.Analysis.Country)
	v.SetDefault("analysis.rolling_window", d.Analysis.RollingWindow)
	v.SetDefault("analysis.min_periods", d.Analysis.MinPeriods)
	v.SetDefault("analysis.death_sum_min_periods", d.Analysis.DeathSumMinPeriods)
	v.SetDefault("analysis.cfr_lag", d.Analysis.CFRLag)
	v.SetDefault("analysis.per_capita_scale", d.Analysis.PerCapitaScale)

	// Wave defaults
	v.SetDefault("waves.distance", d.Waves.Distance)
	v.SetDefault("waves.prominence_ratio", d.Waves.ProminenceRatio)

	// Forecast defaults
	v.SetDefault("forecast.method", d.Forecast.Method)
	v.SetDefault("forecast.order.p", d.Forecast.Order.P)
	v.SetDefault("forecast.order.d", d.Forecast.Order.D)
	v.SetDefault("forecast.order.q", d.Forecast.Order.Q)
	v.SetDefault("forecast.horizon", d.Forecast.Horizon)
	v.SetDefault("forecast.confidence", d.Forecast.Confidence)
	v.SetDefault("forecast.max_iterations", d.Forecast.MaxIterations)

	// Anomaly defaults
	v.SetDefault("anomaly.enabled", d.Anomaly.Enabled)
	v.SetDefault("anomaly.method", d.Anomaly.Method)
	v.SetDefault("anomaly.threshold", d.Anomaly.Threshold)
	v.SetDefault("anomaly.window_size", d.Anomaly.WindowSize)
	v.SetDefault("anomaly.min_data_points", d.Anomaly.MinDataPoints)

	// Report defaults
	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.csv_file", d.Report.CSVFile)
	v.SetDefault("report.tail_window", d.Report.TailWindow)
	v.SetDefault("report.charts", d.Report.Charts)
	v.SetDefault("report.max_chart_points", d.Report.MaxChartPoints)
	v.SetDefault("report.downsample", d.Report.Downsample)
	v.SetDefault("report.recent_history", d.Report.RecentHistory)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:       "owid-covid-data.csv",
			Encoding:   "latin1",
			DateFormat: "2006-01-02",
		},
		Analysis: AnalysisConfig{
			Country:            "India",
			RollingWindow:      365,
			MinPeriods:         30,
			DeathSumMinPeriods: 0,
			CFRLag:             14,
			PerCapitaScale:     10000,
		},
		Waves: WavesConfig{
			Distance:        14,
			ProminenceRatio: 0.05,
		},
		Forecast: ForecastConfig{
			Method:        "arima",
			Order:         OrderConfig{P: 2, D: 1, Q: 2},
			Horizon:       365,
			Confidence:    0.80,
			MaxIterations: 2000,
		},
		Anomaly: AnomalyConfig{
			Enabled:       true,
			Method:        "iqr",
			Threshold:     3.0,
			WindowSize:    14,
			MinDataPoints: 10,
		},
		Report: ReportConfig{
			OutputDir:      "output",
			CSVFile:        "covid_summary_last365days.csv",
			TailWindow:     365,
			Charts:         true,
			MaxChartPoints: 1000,
			Downsample:     "lttb",
			RecentHistory:  180,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			TimeFormat: "RFC3339",
		},
	}
}
