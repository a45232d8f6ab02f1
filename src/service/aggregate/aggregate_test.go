package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirmetrics/src/model"
)

func analyzedFile(path string, ccn float64, size int64) model.FileMetrics {
	return model.FileMetrics{
		RelativePath:   path,
		Language:       model.LanguageForPath(path),
		FileSizeBytes:  size,
		TotalLines:     10,
		CommentLines:   2,
		FunctionCount:  1,
		ClassCount:     1,
		MeanComplexity: ccn,
		MeanDensity:    ccn / 10,
		MeanParameters: 1,
		MaxComplexity:  int(ccn),
		Analyzed:       true,
	}
}

func TestAggregateExampleScenario(t *testing.T) {
	files := []model.FileMetrics{
		analyzedFile("a.py", 3, 100),
		analyzedFile("b.py", 15, 2048),
	}
	functions := []model.FunctionMetrics{
		{RelativeFilePath: "a.py", Name: "f", StartLine: 1, Complexity: 3},
		{RelativeFilePath: "b.py", Name: "g", StartLine: 1, Complexity: 15},
	}

	s := Aggregate(files, functions)

	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 2, s.TotalFilesAnalyzed)
	assert.Equal(t, 0, s.TotalFilesNotAnalyzed)
	assert.InDelta(t, 9.0, s.AverageComplexity, 1e-9)
	assert.Equal(t, model.ComplexityDistribution{Low: 1, Medium: 0, High: 1, Critical: 0}, s.ComplexityDistribution)
	assert.Equal(t, model.FileSizeDistribution{Small: 1, Medium: 1}, s.FileSizeDistribution)
	assert.Equal(t, map[string]int{"python": 2}, s.LanguageDistribution)
	assert.Equal(t, 20, s.TotalLines)
	assert.Equal(t, 15, s.MaxComplexity)
	require.Len(t, s.TopComplexFunctions, 2)
	assert.Equal(t, "g", s.TopComplexFunctions[0].Name)
}

func TestAggregateEmptyInputIsZero(t *testing.T) {
	s := Aggregate(nil, nil)
	assert.Zero(t, s.TotalFiles)
	assert.Zero(t, s.AverageComplexity)
	assert.Zero(t, s.AverageDensity)
	assert.Zero(t, s.AverageParameters)
	assert.Empty(t, s.LanguageDistribution)
	assert.Empty(t, s.TopComplexFunctions)
}

func TestAggregateSkipsUnanalyzedFilesInAverages(t *testing.T) {
	failed := model.FileMetrics{RelativePath: "broken.js", Language: model.LanguageJavaScript, FileSizeBytes: 50}
	files := []model.FileMetrics{analyzedFile("a.py", 4, 10), failed}

	s := Aggregate(files, nil)

	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 1, s.TotalFilesAnalyzed)
	assert.Equal(t, 1, s.TotalFilesNotAnalyzed)
	assert.InDelta(t, 4.0, s.AverageComplexity, 1e-9)
	assert.Equal(t, 1, s.ComplexityDistribution.Low)
	assert.Equal(t, 1, s.LanguageDistribution[model.LanguageJavaScript])
	assert.Equal(t, 2, s.FileSizeDistribution.Small)
}

func TestAggregateIsDeterministic(t *testing.T) {
	var files []model.FileMetrics
	var functions []model.FunctionMetrics
	for i := 0; i < 50; i++ {
		path := fmt.Sprintf("pkg/f%02d.py", i)
		files = append(files, analyzedFile(path, float64(i%25)+0.3, int64(i*997)))
		functions = append(functions, model.FunctionMetrics{RelativeFilePath: path, Name: "fn", StartLine: 1, Complexity: i % 25})
	}

	first := Aggregate(files, functions)
	second := Aggregate(files, functions)
	assert.Equal(t, first, second)
}

func TestTopFunctionsTieBreak(t *testing.T) {
	functions := []model.FunctionMetrics{
		{RelativeFilePath: "b.py", Name: "x", StartLine: 5, Complexity: 7},
		{RelativeFilePath: "a.py", Name: "y", StartLine: 9, Complexity: 7},
		{RelativeFilePath: "a.py", Name: "z", StartLine: 2, Complexity: 7},
		{RelativeFilePath: "c.py", Name: "w", StartLine: 1, Complexity: 30},
	}

	top := TopFunctions(functions, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"w", "z", "y"}, []string{top[0].Name, top[1].Name, top[2].Name})
	assert.Equal(t, "x", functions[0].Name, "input must not be reordered")
}

func TestFunctionComplexityDistribution(t *testing.T) {
	functions := []model.FunctionMetrics{
		{Complexity: 5}, {Complexity: 6}, {Complexity: 10}, {Complexity: 11}, {Complexity: 20}, {Complexity: 21},
	}
	s := Aggregate(nil, functions)
	assert.Equal(t, model.ComplexityDistribution{Low: 1, Medium: 2, High: 2, Critical: 1}, s.FunctionComplexityDistribution)
}
