package controller

import (
	"os"
	"path/filepath"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/service/report"
	"dirmetrics/src/util"
)

// ReportController handles report generation
type ReportController struct {
	cfg *config.Config
}

// NewReportController creates a new report controller
func NewReportController(cfg *config.Config) *ReportController {
	return &ReportController{cfg: cfg}
}

// GenerateReports writes result in all configured formats
func (c *ReportController) GenerateReports(result *model.DirectoryAnalysisResult) ([]string, error) {
	util.Debug("Generating reports for %d formats: %v", len(c.cfg.Output.Formats), c.cfg.Output.Formats)
	generator := report.NewGenerator(c.cfg.Output, c.cfg.Agent.Version)
	var outputPaths []string

	for _, format := range c.cfg.Output.Formats {
		output, err := generator.Generate(result, format)
		if err != nil {
			util.Error("Failed to generate %s report: %v", format, err)
			return nil, err
		}

		outputPath := c.getOutputPath(result.Metadata.DirectoryPath, format)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			util.Error("Failed to create output directory: %v", err)
			return nil, err
		}
		if err := os.WriteFile(outputPath, []byte(output), 0644); err != nil {
			util.Error("Failed to write report to %s: %v", outputPath, err)
			return nil, err
		}

		util.Info("Report written: %s", outputPath)
		outputPaths = append(outputPaths, outputPath)
	}

	return outputPaths, nil
}

// GenerateToString renders result in a single format
func (c *ReportController) GenerateToString(result *model.DirectoryAnalysisResult, format string) (string, error) {
	return report.NewGenerator(c.cfg.Output, c.cfg.Agent.Version).Generate(result, format)
}

func (c *ReportController) getOutputPath(dir, format string) string {
	ext := format
	if format == "markdown" {
		ext = "md"
	}

	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "root"
	}
	return filepath.Join(c.cfg.Output.OutputDir, name+"-metrics."+ext)
}
