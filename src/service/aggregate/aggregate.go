// Package aggregate reduces per-file metrics into directory summaries.
package aggregate

import (
	"sort"

	"dirmetrics/src/model"
)

// DefaultTopFunctions is the number of functions kept in TopComplexFunctions
const DefaultTopFunctions = 10

// Aggregate summarizes files and functions keeping the default number of top functions
func Aggregate(files []model.FileMetrics, functions []model.FunctionMetrics) model.DirectoryAnalysisSummary {
	return AggregateTop(files, functions, DefaultTopFunctions)
}

// AggregateTop summarizes files and functions. It is pure: identical input
// yields identical output, and AnalyzedAt/TotalDuration are left zero for
// the caller to stamp. Totals and averages cover analyzed files only.
func AggregateTop(files []model.FileMetrics, functions []model.FunctionMetrics, topN int) model.DirectoryAnalysisSummary {
	summary := model.DirectoryAnalysisSummary{
		TotalFiles:           len(files),
		LanguageDistribution: make(map[string]int),
		TopComplexFunctions:  []model.FunctionMetrics{},
	}

	var sumComplexity, sumDensity, sumParameters float64
	for i := range files {
		f := &files[i]
		summary.LanguageDistribution[f.Language]++
		summary.FileSizeDistribution.Add(model.SizeBucketFor(f.FileSizeBytes))

		if !f.Analyzed {
			continue
		}
		summary.TotalFilesAnalyzed++
		summary.TotalLines += f.TotalLines
		summary.TotalCommentLines += f.CommentLines
		summary.TotalFunctions += f.FunctionCount
		summary.TotalClasses += f.ClassCount
		if f.MaxComplexity > summary.MaxComplexity {
			summary.MaxComplexity = f.MaxComplexity
		}

		sumComplexity += f.MeanComplexity
		sumDensity += f.MeanDensity
		sumParameters += f.MeanParameters
		summary.ComplexityDistribution.Add(model.SeverityForComplexity(f.MeanComplexity))
	}
	summary.TotalFilesNotAnalyzed = summary.TotalFiles - summary.TotalFilesAnalyzed

	if n := float64(summary.TotalFilesAnalyzed); n > 0 {
		summary.AverageComplexity = sumComplexity / n
		summary.AverageDensity = sumDensity / n
		summary.AverageParameters = sumParameters / n
	}

	for _, fn := range functions {
		summary.FunctionComplexityDistribution.Add(model.SeverityForComplexity(float64(fn.Complexity)))
	}
	summary.TopComplexFunctions = TopFunctions(functions, topN)

	return summary
}

// TopFunctions returns the n most complex functions. Ties break by path,
// start line, then name so the order never depends on input order.
func TopFunctions(functions []model.FunctionMetrics, n int) []model.FunctionMetrics {
	if n <= 0 || len(functions) == 0 {
		return []model.FunctionMetrics{}
	}

	sorted := make([]model.FunctionMetrics, len(functions))
	copy(sorted, functions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Complexity != b.Complexity {
			return a.Complexity > b.Complexity
		}
		if a.RelativeFilePath != b.RelativeFilePath {
			return a.RelativeFilePath < b.RelativeFilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.Name < b.Name
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortFiles orders files by relative path
func SortFiles(files []model.FileMetrics) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
}

// SortFunctions orders functions by file path, start line, then name
func SortFunctions(functions []model.FunctionMetrics) {
	sort.SliceStable(functions, func(i, j int) bool {
		a, b := functions[i], functions[j]
		if a.RelativeFilePath != b.RelativeFilePath {
			return a.RelativeFilePath < b.RelativeFilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.Name < b.Name
	})
}
