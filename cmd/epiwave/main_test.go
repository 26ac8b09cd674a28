package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "epiwave dev (commit unknown, built unknown)\n", out.String())
}

func TestRunCommand_MissingDataset(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EPIWAVE_LOGGING_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"run",
		"--data", filepath.Join(t.TempDir(), "missing.csv"),
		"--output", t.TempDir(),
		"--country", "India",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load stage")
}

func TestRunCommand_InvalidConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "absent.yaml")})

	assert.Error(t, cmd.Execute())
}
