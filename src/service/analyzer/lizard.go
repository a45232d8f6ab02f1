package analyzer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"dirmetrics/src/config"
	"dirmetrics/src/util"
)

// Column positions of lizard's --csv output:
// nloc, ccn, tokens, params, length, location, file, name, long_name, start, end
const (
	colNLOC = iota
	colCCN
	colTokens
	colParams
	colLength
	colLocation
	colFile
	colName
	colLongName
	colStart
	colEnd
	lizardColumns
)

// LizardAnalyzer runs the lizard CLI once per file
type LizardAnalyzer struct {
	command []string
	timeout time.Duration
}

// NewLizardAnalyzer creates a subprocess analyzer
func NewLizardAnalyzer(cfg config.LizardConfig) *LizardAnalyzer {
	command := cfg.Command
	if len(command) == 0 {
		command = []string{"lizard", "--csv"}
	}
	return &LizardAnalyzer{command: command, timeout: cfg.Timeout}
}

// Name returns the backend name
func (a *LizardAnalyzer) Name() string {
	return "lizard"
}

// Analyze runs lizard on absPath and parses its CSV report
func (a *LizardAnalyzer) Analyze(ctx context.Context, absPath string) (*FileAnalysis, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := append(append([]string{}, a.command[1:]...), absPath)
	cmd := exec.CommandContext(ctx, a.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	util.Debug("Running %s on %s", a.command[0], absPath)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("lizard on %s: %w", absPath, ctx.Err())
		}
		return nil, fmt.Errorf("lizard on %s: %w: %s", absPath, err, strings.TrimSpace(stderr.String()))
	}

	functions, err := ParseLizardCSV(&stdout)
	if err != nil {
		return nil, fmt.Errorf("parsing lizard output for %s: %w", absPath, err)
	}

	return &FileAnalysis{
		Functions: functions,
		Metrics:   Summarize(functions),
	}, nil
}

// ParseLizardCSV parses lizard's --csv report. A header row, if present, is skipped.
func ParseLizardCSV(r io.Reader) ([]FunctionResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var functions []FunctionResult
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(record) < lizardColumns {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", line, lizardColumns, len(record))
		}
		if line == 1 && !isNumber(record[colNLOC]) {
			continue
		}

		fn, err := parseLizardRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		functions = append(functions, fn)
	}
	return functions, nil
}

func parseLizardRow(record []string) (FunctionResult, error) {
	ints := make(map[int]int, 7)
	for _, col := range []int{colNLOC, colCCN, colTokens, colParams, colLength, colStart, colEnd} {
		v, err := strconv.Atoi(strings.TrimSpace(record[col]))
		if err != nil {
			return FunctionResult{}, fmt.Errorf("column %d: %w", col, err)
		}
		ints[col] = v
	}

	return FunctionResult{
		Name:       strings.TrimSpace(record[colName]),
		LongName:   strings.TrimSpace(record[colLongName]),
		StartLine:  ints[colStart],
		EndLine:    ints[colEnd],
		NLOC:       ints[colNLOC],
		Length:     ints[colLength],
		Tokens:     ints[colTokens],
		Parameters: ints[colParams],
		Complexity: ints[colCCN],
	}, nil
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
