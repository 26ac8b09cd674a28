package config

import (
	"os"
	"path/filepath"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Report.OutputDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// OutputPath returns the full path for a report artifact
func (c *Config) OutputPath(filename string) string {
	return filepath.Join(c.Report.OutputDir, filename)
}

// CSVPath returns the path of the tail-window summary CSV
func (c *Config) CSVPath() string {
	return c.OutputPath(c.Report.CSVFile)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}
