package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_NonexistentFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaultsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
intelligence:
  min_cluster_samples: 10
  resource_score_high_threshold: 2.0
reasoner:
  timeout_seconds: 30
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Intelligence.MinClusterSamples)
	assert.Equal(t, 2.0, cfg.Intelligence.ResourceScoreHighThreshold)
	assert.Equal(t, 30, cfg.Reasoner.TimeoutSeconds)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Unset fields keep their defaults.
	assert.Equal(t, Default().Tables, cfg.Tables)
}

func TestLoad_MalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
