package model

import (
	"encoding/json"
	"fmt"
)

// ScanMode controls how far below the root a scan or watch reaches
type ScanMode int

const (
	// ScanShallow restricts traversal to the root's immediate children
	ScanShallow ScanMode = iota
	// ScanDeep recurses up to AnalysisFilters.MaxDepth
	ScanDeep
)

// String returns the string representation of the mode
func (m ScanMode) String() string {
	switch m {
	case ScanShallow:
		return "shallow"
	case ScanDeep:
		return "deep"
	default:
		return "unknown"
	}
}

// ParseScanMode parses "shallow" or "deep"
func ParseScanMode(s string) (ScanMode, error) {
	switch s {
	case "shallow":
		return ScanShallow, nil
	case "deep":
		return ScanDeep, nil
	}
	return ScanShallow, fmt.Errorf("unknown scan mode: %q", s)
}

// MarshalJSON encodes the mode as its name
func (m ScanMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name
func (m *ScanMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseScanMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// AnalysisMode records whether a result covers a plain directory or a whole project
type AnalysisMode int

const (
	ModeDirectory AnalysisMode = iota
	ModeProject
)

// String returns the string representation of the mode
func (m AnalysisMode) String() string {
	switch m {
	case ModeDirectory:
		return "directory"
	case ModeProject:
		return "project"
	default:
		return "unknown"
	}
}

// ParseAnalysisMode parses "directory" or "project"
func ParseAnalysisMode(s string) (AnalysisMode, error) {
	switch s {
	case "directory":
		return ModeDirectory, nil
	case "project":
		return ModeProject, nil
	}
	return ModeDirectory, fmt.Errorf("unknown analysis mode: %q", s)
}

// MarshalJSON encodes the mode as its name
func (m AnalysisMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name
func (m *AnalysisMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAnalysisMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// AnalysisFilters bounds what a scan includes
type AnalysisFilters struct {
	MaxDepth        int      `json:"maxDepth"`
	ExcludePatterns []string `json:"excludePatterns"`
	MaxFileSize     int64    `json:"maxFileSize"`
}

// Validate checks the filter invariants
func (f AnalysisFilters) Validate() error {
	if f.MaxDepth < 0 {
		return fmt.Errorf("maxDepth must be >= 0, got %d", f.MaxDepth)
	}
	if f.MaxFileSize < 0 {
		return fmt.Errorf("maxFileSize must be >= 0, got %d", f.MaxFileSize)
	}
	return nil
}

// EffectiveDepth returns the deepest directory level a scan may include.
// Shallow scans never recurse regardless of MaxDepth.
func (f AnalysisFilters) EffectiveDepth(mode ScanMode) int {
	if mode == ScanShallow {
		return 0
	}
	return f.MaxDepth
}
