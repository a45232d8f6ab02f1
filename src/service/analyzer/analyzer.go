// Package analyzer adapts external single-file complexity analyzers and
// provides the line and class counting the engine records alongside them.
package analyzer

import (
	"context"
	"fmt"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
)

// FunctionResult is one function reported by an analyzer
type FunctionResult struct {
	Name       string `json:"name"`
	LongName   string `json:"long_name,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	NLOC       int    `json:"nloc"`
	Length     int    `json:"length"`
	Tokens     int    `json:"tokens"`
	Parameters int    `json:"parameters"`
	Complexity int    `json:"complexity"`
}

// Summary is the per-file metrics block of an analysis
type Summary struct {
	AverageComplexity           float64 `json:"average_complexity"`
	MaxComplexity               int     `json:"max_complexity"`
	FunctionCount               int     `json:"function_count"`
	HighComplexityFunctions     int     `json:"high_complexity_functions"`
	CriticalComplexityFunctions int     `json:"critical_complexity_functions"`
}

// FileAnalysis is the fixed output shape of every analyzer backend
type FileAnalysis struct {
	Functions []FunctionResult `json:"functions"`
	Metrics   Summary          `json:"metrics"`
}

// FileAnalyzer analyzes one source file. Implementations may be slow and
// may fail; callers treat failures as per-file degradation.
type FileAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, absPath string) (*FileAnalysis, error)
}

// New creates the analyzer backend selected by cfg
func New(cfg config.AnalyzerConfig) (FileAnalyzer, error) {
	switch cfg.Backend {
	case "lizard", "":
		return NewLizardAnalyzer(cfg.Lizard), nil
	case "remote":
		return NewRemoteAnalyzer(cfg.Remote), nil
	default:
		return nil, fmt.Errorf("unknown analyzer backend: %s", cfg.Backend)
	}
}

// Summarize derives the metrics block from a function list
func Summarize(functions []FunctionResult) Summary {
	s := Summary{FunctionCount: len(functions)}
	if len(functions) == 0 {
		return s
	}

	total := 0
	for _, fn := range functions {
		total += fn.Complexity
		if fn.Complexity > s.MaxComplexity {
			s.MaxComplexity = fn.Complexity
		}
		switch model.SeverityForComplexity(float64(fn.Complexity)) {
		case model.SeverityHigh:
			s.HighComplexityFunctions++
		case model.SeverityCritical:
			s.CriticalComplexityFunctions++
		}
	}
	s.AverageComplexity = float64(total) / float64(len(functions))
	return s
}
