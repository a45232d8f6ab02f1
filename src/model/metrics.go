package model

import "time"

// FunctionMetrics contains metrics for a single function/method.
// Identity is (RelativeFilePath, Name, StartLine).
type FunctionMetrics struct {
	RelativeFilePath  string  `json:"relativeFilePath"`
	Name              string  `json:"name"`
	StartLine         int     `json:"startLine"`
	EndLine           int     `json:"endLine"`
	Length            int     `json:"length"`
	Parameters        int     `json:"parameters"`
	Complexity        int     `json:"complexity"`
	CyclomaticDensity float64 `json:"cyclomaticDensity"`
	Language          string  `json:"language"`
}

// Normalize enforces EndLine >= StartLine and recomputes the density
func (f *FunctionMetrics) Normalize() {
	if f.StartLine < 0 {
		f.StartLine = 0
	}
	if f.EndLine < f.StartLine {
		f.EndLine = f.StartLine
	}
	if f.Length < 0 {
		f.Length = 0
	}
	f.CyclomaticDensity = CyclomaticDensity(f.Complexity, f.Length)
}

// CyclomaticDensity is complexity per line, 0 for empty functions
func CyclomaticDensity(complexity, length int) float64 {
	if length <= 0 {
		return 0
	}
	return float64(complexity) / float64(length)
}

// FileMetrics contains metrics for a single analyzed file.
// RelativePath is unique within one result.
type FileMetrics struct {
	RelativePath string `json:"relativePath"`
	FileName     string `json:"fileName"`
	FilePath     string `json:"filePath"`
	Extension    string `json:"extension"`
	Language     string `json:"language"`
	FileHash     string `json:"fileHash"`

	// Size metrics
	FileSizeBytes int64 `json:"fileSizeBytes"`
	TotalLines    int   `json:"totalLines"`
	CommentLines  int   `json:"commentLines"`

	// Structure metrics
	FunctionCount int `json:"functionCount"`
	ClassCount    int `json:"classCount"`

	// Function averages
	MeanComplexity float64 `json:"meanComplexity"`
	MeanDensity    float64 `json:"meanDensity"`
	MeanParameters float64 `json:"meanParameters"`
	MaxComplexity  int     `json:"maxComplexity"`

	// Analysis bookkeeping
	Analyzed         bool      `json:"analyzed"`
	AnalysisError    string    `json:"analysisError,omitempty"`
	AnalyzedAt       time.Time `json:"analyzedAt"`
	AnalysisDuration int64     `json:"analysisDuration"` // ms
}

// DirectoryAnalysisSummary is fully derived from a result's file and function sets
type DirectoryAnalysisSummary struct {
	TotalFiles            int `json:"totalFiles"`
	TotalFilesAnalyzed    int `json:"totalFilesAnalyzed"`
	TotalFilesNotAnalyzed int `json:"totalFilesNotAnalyzed"`
	TotalLines            int `json:"totalLines"`
	TotalCommentLines     int `json:"totalCommentLines"`
	TotalFunctions        int `json:"totalFunctions"`
	TotalClasses          int `json:"totalClasses"`

	AverageComplexity float64 `json:"averageComplexity"`
	AverageDensity    float64 `json:"averageDensity"`
	AverageParameters float64 `json:"averageParameters"`
	MaxComplexity     int     `json:"maxComplexity"`

	LanguageDistribution           map[string]int         `json:"languageDistribution"`
	FileSizeDistribution           FileSizeDistribution   `json:"fileSizeDistribution"`
	ComplexityDistribution         ComplexityDistribution `json:"complexityDistribution"`
	FunctionComplexityDistribution ComplexityDistribution `json:"functionComplexityDistribution"`
	TopComplexFunctions            []FunctionMetrics      `json:"topComplexFunctions"`

	AnalyzedAt    time.Time `json:"analyzedAt"`
	TotalDuration int64     `json:"totalDuration"` // ms
}

// ResultMetadata describes how a result was produced
type ResultMetadata struct {
	DirectoryPath            string          `json:"directoryPath"`
	Mode                     AnalysisMode    `json:"mode"`
	ScanMode                 ScanMode        `json:"scanMode"`
	Filters                  AnalysisFilters `json:"filters"`
	FilesAnalyzedThisSession int             `json:"filesAnalyzedThisSession"`
	FilesReused              int             `json:"filesReused"`
	FilesDeleted             int             `json:"filesDeleted"`
	IsIncremental            bool            `json:"isIncremental"`
	RunID                    string          `json:"runId"`
}

// DirectoryAnalysisResult is an immutable snapshot of one analysis pass.
// Consumers must not mutate a result they did not create; use Clone.
type DirectoryAnalysisResult struct {
	Summary   DirectoryAnalysisSummary `json:"summary"`
	Files     []FileMetrics            `json:"files"`
	Functions []FunctionMetrics        `json:"functions"`
	Metadata  ResultMetadata           `json:"metadata"`
}

// FileIndex maps relative paths to positions in Files
func (r *DirectoryAnalysisResult) FileIndex() map[string]int {
	if r == nil {
		return nil
	}
	idx := make(map[string]int, len(r.Files))
	for i := range r.Files {
		idx[r.Files[i].RelativePath] = i
	}
	return idx
}

// FunctionsByFile groups functions by their owning file
func (r *DirectoryAnalysisResult) FunctionsByFile() map[string][]FunctionMetrics {
	if r == nil {
		return nil
	}
	byFile := make(map[string][]FunctionMetrics)
	for _, fn := range r.Functions {
		byFile[fn.RelativeFilePath] = append(byFile[fn.RelativeFilePath], fn)
	}
	return byFile
}

// Clone returns a deep copy
func (r *DirectoryAnalysisResult) Clone() *DirectoryAnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Files = append([]FileMetrics(nil), r.Files...)
	out.Functions = append([]FunctionMetrics(nil), r.Functions...)
	out.Summary.TopComplexFunctions = append([]FunctionMetrics(nil), r.Summary.TopComplexFunctions...)
	if r.Summary.LanguageDistribution != nil {
		out.Summary.LanguageDistribution = make(map[string]int, len(r.Summary.LanguageDistribution))
		for k, v := range r.Summary.LanguageDistribution {
			out.Summary.LanguageDistribution[k] = v
		}
	}
	out.Metadata.Filters.ExcludePatterns = append([]string(nil), r.Metadata.Filters.ExcludePatterns...)
	return &out
}
