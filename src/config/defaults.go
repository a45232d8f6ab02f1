package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	return &Config{
		Agent: AgentConfig{
			Name:        "dirmetrics",
			Version:     "1.0.0",
			Description: "Incremental directory metrics engine",
		},
		Analyzer: AnalyzerConfig{
			Backend: "lizard",
			Lizard: LizardConfig{
				Command: []string{"lizard", "--csv"},
				Timeout: 30 * time.Second,
			},
			Remote: RemoteAnalyzerConfig{
				URL:     "http://localhost:8181",
				Timeout: 30 * time.Second,
				Retry: RetryConfig{
					MaxAttempts:   3,
					BackoffFactor: 1.5,
					InitialDelay:  100 * time.Millisecond,
					MaxDelay:      5 * time.Second,
					RetryOnStatus: []int{502, 503, 504},
				},
			},
		},
		Engine: EngineConfig{
			Workers:       workers,
			TopFunctionsN: 10,
		},
		Filters: FiltersConfig{
			MaxDepth: 10,
			ExcludePatterns: []string{
				"**/.git/**", "**/node_modules/**", "**/__pycache__/**",
				"**/.venv/**", "**/venv/**", "**/dist/**", "**/build/**",
				"**/*.min.js",
			},
			MaxFileSize: 1024 * 1024,
			ScanMode:    "deep",
		},
		Watch: WatchConfig{
			Debounce:    2 * time.Second,
			AutoAnalyze: true,
		},
		Snapshot: SnapshotConfig{
			Enabled:    true,
			Path:       filepath.Join(os.Getenv("HOME"), ".dirmetrics", "snapshots"),
			SyncWrites: true,
			GCInterval: 5 * time.Minute,
		},
		Server: ServerConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8787",
		},
		Output: OutputConfig{
			Formats:          []string{"json"},
			OutputDir:        ".",
			IncludeFiles:     true,
			IncludeFunctions: false,
			Color:            true,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			IncludeTimestamp: true,
			IncludeCaller:    false,
		},
	}
}
