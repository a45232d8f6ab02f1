package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Watch.AutoAnalyze)
	assert.GreaterOrEqual(t, cfg.Engine.Workers, 1)
}

func TestLoadExpandsEnvAndOverridesDefaults(t *testing.T) {
	t.Setenv("DIRMETRICS_TEST_URL", "http://analyzer:9000")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
analyzer:
  backend: remote
  remote:
    url: ${DIRMETRICS_TEST_URL}
    timeout: 5s
filters:
  max_depth: ${DIRMETRICS_TEST_DEPTH:-4}
  scan_mode: shallow
watch:
  debounce: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "remote", cfg.Analyzer.Backend)
	assert.Equal(t, "http://analyzer:9000", cfg.Analyzer.Remote.URL)
	assert.Equal(t, 5*time.Second, cfg.Analyzer.Remote.Timeout)
	assert.Equal(t, 4, cfg.Filters.MaxDepth)
	assert.Equal(t, "shallow", cfg.Filters.ScanMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)

	// Untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Analyzer.Remote.Retry.MaxAttempts)
	assert.NotEmpty(t, cfg.Filters.ExcludePatterns)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative depth", "filters:\n  max_depth: -1\n"},
		{"unknown scan mode", "filters:\n  scan_mode: sideways\n"},
		{"unknown backend", "analyzer:\n  backend: magic\n"},
		{"no workers", "engine:\n  workers: 0\n"},
		{"malformed yaml", "filters: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := NewLoader().Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSearchPathsFollowLoaderName(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("METRICS_LAB_CONFIG", "")
	t.Setenv("DIRMETRICS_CONFIG", "")

	l := NewNamedLoader("metrics-lab")
	assert.Equal(t, "METRICS_LAB_CONFIG", l.EnvVar())
	assert.Equal(t, []string{
		"metrics-lab.yaml",
		filepath.Join("config", "metrics-lab.yaml"),
		filepath.Join(home, ".metrics-lab", "config.yaml"),
	}, l.SearchPaths())

	assert.Equal(t, "DIRMETRICS_CONFIG", NewLoader().EnvVar())
	assert.Equal(t, "dirmetrics.yaml", NewLoader().SearchPaths()[0])
}

func TestLoadFindsConfigOnSearchPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("METRICS_LAB_CONFIG", "")

	l := NewNamedLoader("metrics-lab")
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Filters.MaxDepth, cfg.Filters.MaxDepth, "defaults when nothing is found")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".metrics-lab"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".metrics-lab", "config.yaml"), []byte("filters:\n  max_depth: 7\n"), 0644))
	cfg, err = l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Filters.MaxDepth)

	// The environment variable wins over the home directory
	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("filters:\n  max_depth: 2\n"), 0644))
	t.Setenv("METRICS_LAB_CONFIG", explicit)
	cfg, err = l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Filters.MaxDepth)
}
