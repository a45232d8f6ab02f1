package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/service/aggregate"
	"dirmetrics/src/util"
)

// Generator renders analysis results in various formats
type Generator struct {
	cfg     config.OutputConfig
	version string
}

// NewGenerator creates a new report generator
func NewGenerator(cfg config.OutputConfig, version string) *Generator {
	return &Generator{cfg: cfg, version: version}
}

// Generate renders result in the specified format
func (g *Generator) Generate(result *model.DirectoryAnalysisResult, format string) (string, error) {
	util.Debug("Generating report in %s format (%d files)", format, len(result.Files))
	switch format {
	case "json":
		return g.generateJSON(result)
	case "markdown", "md":
		return g.generateMarkdown(result)
	case "sarif":
		return g.generateSARIF(result)
	default:
		util.Warn("Unsupported report format requested: %s", format)
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Generator) generateJSON(result *model.DirectoryAnalysisResult) (string, error) {
	out := *result
	if !g.cfg.IncludeFiles {
		out.Files = nil
	}
	if !g.cfg.IncludeFunctions {
		out.Functions = nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *Generator) generateMarkdown(result *model.DirectoryAnalysisResult) (string, error) {
	var sb strings.Builder
	s := result.Summary

	// Header
	sb.WriteString("# Directory Metrics Report\n\n")
	sb.WriteString(fmt.Sprintf("**Directory:** %s\n", result.Metadata.DirectoryPath))
	sb.WriteString(fmt.Sprintf("**Analyzed:** %s\n", s.AnalyzedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("**Mode:** %s, %s scan\n\n", result.Metadata.Mode, result.Metadata.ScanMode))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Files:** %d (%d analyzed, %d not analyzed)\n", s.TotalFiles, s.TotalFilesAnalyzed, s.TotalFilesNotAnalyzed))
	sb.WriteString(fmt.Sprintf("- **Lines:** %d (%d comment)\n", s.TotalLines, s.TotalCommentLines))
	sb.WriteString(fmt.Sprintf("- **Functions:** %d\n", s.TotalFunctions))
	sb.WriteString(fmt.Sprintf("- **Classes:** %d\n", s.TotalClasses))
	sb.WriteString(fmt.Sprintf("- **Average complexity:** %.2f (max %d)\n", s.AverageComplexity, s.MaxComplexity))
	sb.WriteString(fmt.Sprintf("- **Average density:** %.3f\n", s.AverageDensity))
	sb.WriteString(fmt.Sprintf("- **Average parameters:** %.2f\n", s.AverageParameters))
	if result.Metadata.IsIncremental {
		sb.WriteString(fmt.Sprintf("- **Incremental:** %d analyzed, %d reused, %d deleted\n",
			result.Metadata.FilesAnalyzedThisSession, result.Metadata.FilesReused, result.Metadata.FilesDeleted))
	}
	sb.WriteString(fmt.Sprintf("- **Duration:** %dms\n\n", s.TotalDuration))

	// Complexity
	sb.WriteString("### Complexity by Severity\n\n")
	sb.WriteString("| Severity | Files | Functions |\n")
	sb.WriteString("|----------|-------|-----------|\n")
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", sev, s.ComplexityDistribution.Count(sev), s.FunctionComplexityDistribution.Count(sev)))
	}
	sb.WriteString("\n")

	// Sizes
	sb.WriteString("### File Sizes\n\n")
	sb.WriteString("| Bucket | Files |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| small (<1KB) | %d |\n", s.FileSizeDistribution.Small))
	sb.WriteString(fmt.Sprintf("| medium (1-10KB) | %d |\n", s.FileSizeDistribution.Medium))
	sb.WriteString(fmt.Sprintf("| large (10-100KB) | %d |\n", s.FileSizeDistribution.Large))
	sb.WriteString(fmt.Sprintf("| huge (>100KB) | %d |\n\n", s.FileSizeDistribution.Huge))

	// Languages
	if len(s.LanguageDistribution) > 0 {
		sb.WriteString("### Languages\n\n")
		sb.WriteString("| Language | Files |\n")
		sb.WriteString("|----------|-------|\n")
		langs := make([]string, 0, len(s.LanguageDistribution))
		for lang := range s.LanguageDistribution {
			langs = append(langs, lang)
		}
		sort.Slice(langs, func(i, j int) bool {
			a, b := s.LanguageDistribution[langs[i]], s.LanguageDistribution[langs[j]]
			if a != b {
				return a > b
			}
			return langs[i] < langs[j]
		})
		for _, lang := range langs {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", lang, s.LanguageDistribution[lang]))
		}
		sb.WriteString("\n")
	}

	// Hotspots
	if len(s.TopComplexFunctions) > 0 {
		sb.WriteString("## Most Complex Functions\n\n")
		sb.WriteString("| Function | Location | CCN | Length | Params |\n")
		sb.WriteString("|----------|----------|-----|--------|--------|\n")
		for _, fn := range s.TopComplexFunctions {
			sb.WriteString(fmt.Sprintf("| %s `%s` | `%s:%d-%d` | %d | %d | %d |\n",
				severityLabel(model.SeverityForComplexity(float64(fn.Complexity))), fn.Name,
				fn.RelativeFilePath, fn.StartLine, fn.EndLine, fn.Complexity, fn.Length, fn.Parameters))
		}
		sb.WriteString("\n")
	}

	// Failures
	var failed []model.FileMetrics
	for _, f := range result.Files {
		if !f.Analyzed {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		sb.WriteString(fmt.Sprintf("## Files Not Analyzed (%d)\n\n", len(failed)))
		for _, f := range failed {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", f.RelativePath, f.AnalysisError))
		}
		sb.WriteString("\n")
	}

	if g.cfg.IncludeFiles && len(result.Files) > 0 {
		sb.WriteString("## Files\n\n")
		sb.WriteString("| File | Language | Lines | Functions | Classes | Mean CCN |\n")
		sb.WriteString("|------|----------|-------|-----------|---------|----------|\n")
		for _, f := range result.Files {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %d | %d | %.2f |\n",
				f.RelativePath, f.Language, f.TotalLines, f.FunctionCount, f.ClassCount, f.MeanComplexity))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// generateSARIF reports every high or critical complexity function
func (g *Generator) generateSARIF(result *model.DirectoryAnalysisResult) (string, error) {
	var flagged []model.FunctionMetrics
	for _, fn := range aggregate.TopFunctions(result.Functions, len(result.Functions)) {
		sev := model.SeverityForComplexity(float64(fn.Complexity))
		if sev == model.SeverityHigh || sev == model.SeverityCritical {
			flagged = append(flagged, fn)
		}
	}

	sarif := map[string]any{
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"version": "2.1.0",
		"runs": []map[string]any{
			{
				"tool": map[string]any{
					"driver": map[string]any{
						"name":    "dirmetrics",
						"version": g.version,
						"rules":   g.buildSARIFRules(flagged),
					},
				},
				"results": g.buildSARIFResults(flagged),
			},
		},
	}

	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ruleID(sev model.Severity) string {
	return "complexity/" + string(sev)
}

func (g *Generator) buildSARIFRules(functions []model.FunctionMetrics) []map[string]any {
	seen := make(map[model.Severity]bool)
	rules := []map[string]any{}

	for _, fn := range functions {
		sev := model.SeverityForComplexity(float64(fn.Complexity))
		if seen[sev] {
			continue
		}
		seen[sev] = true

		rules = append(rules, map[string]any{
			"id":   ruleID(sev),
			"name": string(sev) + "-complexity",
			"shortDescription": map[string]any{
				"text": fmt.Sprintf("Function cyclomatic complexity is %s", sev),
			},
			"defaultConfiguration": map[string]any{
				"level": sarifLevel(sev),
			},
		})
	}

	return rules
}

func (g *Generator) buildSARIFResults(functions []model.FunctionMetrics) []map[string]any {
	results := []map[string]any{}

	for _, fn := range functions {
		sev := model.SeverityForComplexity(float64(fn.Complexity))
		results = append(results, map[string]any{
			"ruleId":  ruleID(sev),
			"level":   sarifLevel(sev),
			"message": map[string]any{"text": fmt.Sprintf("%s has cyclomatic complexity %d", fn.Name, fn.Complexity)},
			"locations": []map[string]any{
				{
					"physicalLocation": map[string]any{
						"artifactLocation": map[string]any{
							"uri": fn.RelativeFilePath,
						},
						"region": map[string]any{
							"startLine": fn.StartLine,
							"endLine":   fn.EndLine,
						},
					},
				},
			},
		})
	}

	return results
}

func severityLabel(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "[CRITICAL]"
	case model.SeverityHigh:
		return "[HIGH]"
	case model.SeverityMedium:
		return "[MEDIUM]"
	default:
		return "[LOW]"
	}
}

func sarifLevel(s model.Severity) string {
	switch s {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
