package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing source path",
			mutate:  func(c *Config) { c.Source.Path = "" },
			wantErr: true,
		},
		{
			name:    "unknown encoding",
			mutate:  func(c *Config) { c.Source.Encoding = "utf-16" },
			wantErr: true,
		},
		{
			name:    "utf-8 encoding",
			mutate:  func(c *Config) { c.Source.Encoding = "utf-8" },
			wantErr: false,
		},
		{
			name:    "missing country",
			mutate:  func(c *Config) { c.Analysis.Country = "" },
			wantErr: true,
		},
		{
			name:    "min periods above window",
			mutate:  func(c *Config) { c.Analysis.MinPeriods = 400 },
			wantErr: true,
		},
		{
			name:    "negative cfr lag",
			mutate:  func(c *Config) { c.Analysis.CFRLag = -1 },
			wantErr: true,
		},
		{
			name:    "zero wave distance",
			mutate:  func(c *Config) { c.Waves.Distance = 0 },
			wantErr: true,
		},
		{
			name:    "prominence ratio above one",
			mutate:  func(c *Config) { c.Waves.ProminenceRatio = 1.5 },
			wantErr: true,
		},
		{
			name:    "confidence of one",
			mutate:  func(c *Config) { c.Forecast.Confidence = 1 },
			wantErr: true,
		},
		{
			name:    "negative ar order",
			mutate:  func(c *Config) { c.Forecast.Order.P = -1 },
			wantErr: true,
		},
		{
			name:    "zero horizon",
			mutate:  func(c *Config) { c.Forecast.Horizon = 0 },
			wantErr: true,
		},
		{
			name:    "unknown anomaly method",
			mutate:  func(c *Config) { c.Anomaly.Method = "prophet" },
			wantErr: true,
		},
		{
			name: "disabled anomaly scan skips method check",
			mutate: func(c *Config) {
				c.Anomaly.Enabled = false
				c.Anomaly.Method = ""
			},
			wantErr: false,
		},
		{
			name:    "zero tail window",
			mutate:  func(c *Config) { c.Report.TailWindow = 0 },
			wantErr: true,
		},
		{
			name:    "too few chart points",
			mutate:  func(c *Config) { c.Report.MaxChartPoints = 2 },
			wantErr: true,
		},
		{
			name:    "missing forecast method",
			mutate:  func(c *Config) { c.Forecast.Method = "" },
			wantErr: true,
		},
		{
			name:    "unknown downsample mode",
			mutate:  func(c *Config) { c.Report.Downsample = "median" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "India", cfg.Analysis.Country)
	assert.Equal(t, 365, cfg.Analysis.RollingWindow)
	assert.Equal(t, 30, cfg.Analysis.MinPeriods)
	assert.Equal(t, 0, cfg.Analysis.DeathSumMinPeriods)
	assert.Equal(t, 14, cfg.Analysis.CFRLag)
	assert.Equal(t, 10000.0, cfg.Analysis.PerCapitaScale)
	assert.Equal(t, 14, cfg.Waves.Distance)
	assert.Equal(t, 0.05, cfg.Waves.ProminenceRatio)
	assert.Equal(t, "arima", cfg.Forecast.Method)
	assert.Equal(t, OrderConfig{P: 2, D: 1, Q: 2}, cfg.Forecast.Order)
	assert.Equal(t, 365, cfg.Forecast.Horizon)
	assert.Equal(t, 0.80, cfg.Forecast.Confidence)
	assert.Equal(t, "covid_summary_last365days.csv", cfg.Report.CSVFile)
	assert.Equal(t, 365, cfg.Report.TailWindow)

	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "epiwave.yaml")
	content := `
source:
  path: data/owid.csv.gz
  encoding: utf-8
analysis:
  country: Brazil
forecast:
  order:
    p: 1
    d: 1
    q: 1
  horizon: 30
report:
  output_dir: out
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/owid.csv.gz", cfg.Source.Path)
	assert.Equal(t, "utf-8", cfg.Source.Encoding)
	assert.Equal(t, "Brazil", cfg.Analysis.Country)
	assert.Equal(t, OrderConfig{P: 1, D: 1, Q: 1}, cfg.Forecast.Order)
	assert.Equal(t, 30, cfg.Forecast.Horizon)
	assert.Equal(t, 0.80, cfg.Forecast.Confidence)
	assert.Equal(t, 365, cfg.Analysis.RollingWindow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EPIWAVE_ANALYSIS_COUNTRY", "Peru")
	t.Setenv("EPIWAVE_WAVES_DISTANCE", "21")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Peru", cfg.Analysis.Country)
	assert.Equal(t, 21, cfg.Waves.Distance)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "epiwave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("waves:\n  distance: 0\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waves.distance")
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.IsDevelopment())
	cfg.Logging.Level = "debug"
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, filepath.Join("output", "trend.png"), cfg.OutputPath("trend.png"))
	assert.Equal(t, filepath.Join("output", "covid_summary_last365days.csv"), cfg.CSVPath())

	cfg.Report.OutputDir = filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.Report.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
