package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure
type Config struct {
	Agent    AgentConfig    `yaml:"agent"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Engine   EngineConfig   `yaml:"engine"`
	Filters  FiltersConfig  `yaml:"filters"`
	Watch    WatchConfig    `yaml:"watch"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Server   ServerConfig   `yaml:"server"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AgentConfig contains agent metadata
type AgentConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// AnalyzerConfig selects and configures the single-file analyzer backend
type AnalyzerConfig struct {
	Backend string               `yaml:"backend"` // lizard, remote
	Lizard  LizardConfig         `yaml:"lizard"`
	Remote  RemoteAnalyzerConfig `yaml:"remote"`
}

// LizardConfig configures the subprocess analyzer
type LizardConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// RemoteAnalyzerConfig contains connection settings for an HTTP analysis service
type RemoteAnalyzerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig contains retry settings for API calls
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	RetryOnStatus []int         `yaml:"retry_on_status"`
}

// EngineConfig contains incremental engine settings
type EngineConfig struct {
	Workers       int `yaml:"workers"`
	TopFunctionsN int `yaml:"top_functions_n"`
}

// FiltersConfig contains the default scan filters
type FiltersConfig struct {
	MaxDepth        int      `yaml:"max_depth"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	ScanMode        string   `yaml:"scan_mode"` // shallow, deep
}

// WatchConfig contains the runtime-tunable orchestrator settings
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce"`
	AutoAnalyze bool          `yaml:"auto_analyze"`
}

// SnapshotConfig contains persisted snapshot settings
type SnapshotConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Path       string        `yaml:"path"`
	InMemory   bool          `yaml:"in_memory"`
	SyncWrites bool          `yaml:"sync_writes"`
	GCInterval time.Duration `yaml:"gc_interval"`
}

// ServerConfig contains the view server settings
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Formats          []string `yaml:"formats"`
	OutputDir        string   `yaml:"output_dir"`
	IncludeFiles     bool     `yaml:"include_files"`
	IncludeFunctions bool     `yaml:"include_functions"`
	Color            bool     `yaml:"color"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"` // text, json
	File             string `yaml:"file"`
	IncludeTimestamp bool   `yaml:"include_timestamp"`
	IncludeCaller    bool   `yaml:"include_caller"`
}

// Validate checks values the engine cannot run with
func (c *Config) Validate() error {
	if c.Filters.MaxDepth < 0 {
		return fmt.Errorf("filters.max_depth must be >= 0, got %d", c.Filters.MaxDepth)
	}
	if c.Filters.MaxFileSize < 0 {
		return fmt.Errorf("filters.max_file_size must be >= 0, got %d", c.Filters.MaxFileSize)
	}
	switch c.Filters.ScanMode {
	case "shallow", "deep":
	default:
		return fmt.Errorf("filters.scan_mode must be shallow or deep, got %q", c.Filters.ScanMode)
	}
	switch c.Analyzer.Backend {
	case "lizard":
		if len(c.Analyzer.Lizard.Command) == 0 {
			return fmt.Errorf("analyzer.lizard.command must not be empty")
		}
	case "remote":
		if c.Analyzer.Remote.URL == "" {
			return fmt.Errorf("analyzer.remote.url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown analyzer backend: %s", c.Analyzer.Backend)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", c.Engine.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Snapshot.Enabled && !c.Snapshot.InMemory && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required when snapshots are persisted")
	}
	return nil
}
