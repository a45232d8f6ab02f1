package util

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirmetrics/src/config"
)

func TestExclusionMatcher(t *testing.T) {
	m := NewExclusionMatcher([]string{"**/node_modules/**", "*.min.js", "vendor", "  ", "./build/**"})

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"nested node_modules dir", "web/node_modules", true, true},
		{"file inside node_modules", "web/node_modules/x/index.js", false, true},
		{"minified file", "static/app.min.js", false, true},
		{"plain js file", "static/app.js", false, false},
		{"bare directory name at depth", "a/b/vendor", true, true},
		{"leading ./ is ignored", "build/out.js", false, true},
		{"similar prefix is not excluded", "vendored/x.go", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			if tt.isDir {
				got = m.MatchesDir(tt.path)
			} else {
				got = m.MatchesFile(tt.path)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, m.Patterns(), 4)
}

func TestExclusionMatcherDropsInvalidPatterns(t *testing.T) {
	m := NewExclusionMatcher([]string{"[unclosed", "*.py"})
	assert.Equal(t, []string{"*.py"}, m.Patterns())

	var nilMatcher *ExclusionMatcher
	assert.False(t, nilMatcher.MatchesFile("a.py"))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(config.LoggingConfig{Level: "warn"}, &buf)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("watch out: %d", 3)
	l.Error("broken")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] watch out: 3")
	assert.Contains(t, out, "[ERROR] broken")
	assert.Equal(t, "warn", l.GetLevel())
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(config.LoggingConfig{Level: "debug", Format: "json", IncludeCaller: true}, &buf)
	l.Debug("scanned %d files", 12)

	var line map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "scanned 12 files", line["msg"])
	assert.NotEmpty(t, line["caller"])
	assert.Empty(t, line["ts"])
}
