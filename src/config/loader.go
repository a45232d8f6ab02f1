package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envRef matches ${VAR} and ${VAR:-fallback}
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Loader reads the YAML configuration of one application. The name decides
// where Load looks when no file is given and which variable overrides it.
type Loader struct {
	name string
}

// NewLoader returns a loader named after the default agent
func NewLoader() *Loader {
	return NewNamedLoader(DefaultConfig().Agent.Name)
}

// NewNamedLoader returns a loader that searches for <name>.yaml
func NewNamedLoader(name string) *Loader {
	return &Loader{name: name}
}

// Load builds the configuration from defaults overlaid with the YAML file at
// configPath, or the first file found on the search path. ${VAR} references
// are expanded before parsing.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	path := configPath
	if path == "" {
		path = l.find()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// EnvVar names the variable that points at an explicit config file,
// e.g. DIRMETRICS_CONFIG
func (l *Loader) EnvVar() string {
	return strings.ToUpper(strings.ReplaceAll(l.name, "-", "_")) + "_CONFIG"
}

// SearchPaths lists the candidate files in lookup order
func (l *Loader) SearchPaths() []string {
	var paths []string
	if explicit := os.Getenv(l.EnvVar()); explicit != "" {
		paths = append(paths, explicit)
	}
	file := l.name + ".yaml"
	paths = append(paths, file, filepath.Join("config", file))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+l.name, "config.yaml"))
	}
	return paths
}

func (l *Loader) find() string {
	for _, path := range l.SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandEnv replaces ${VAR} with its value, or the fallback after :- when
// VAR is unset. Unset variables without a fallback become empty.
func expandEnv(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if val, ok := os.LookupEnv(m[1]); ok {
			return val
		}
		return m[2]
	})
}
