// Package engine implements incremental directory analysis: scan, detect
// changes, re-analyze only what changed and reuse everything else.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/service/aggregate"
	"dirmetrics/src/service/analyzer"
	"dirmetrics/src/service/changes"
	"dirmetrics/src/service/hasher"
	"dirmetrics/src/service/scanner"
	"dirmetrics/src/util"
)

// ProgressFunc receives (current, total, fileName) after each analyzed file.
// Calls are serialized and current increases monotonically.
type ProgressFunc func(current, total int, fileName string)

// Config describes one analysis pass
type Config struct {
	DirectoryPath  string
	Filters        model.AnalysisFilters
	ScanMode       model.ScanMode
	Mode           model.AnalysisMode
	PreviousResult *model.DirectoryAnalysisResult
	Progress       ProgressFunc
}

// Options tunes an Engine
type Options struct {
	Workers      int
	TopFunctions int
}

// Engine performs incremental analysis passes. It is safe for concurrent
// use by passes over different directories.
type Engine struct {
	scanner  *scanner.Scanner
	analyzer analyzer.FileAnalyzer
	lines    *analyzer.LineCounter
	hashFn   changes.HashFunc
	workers  int
	topN     int
	now      func() time.Time
}

// New creates an engine around a single-file analyzer
func New(a analyzer.FileAnalyzer, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.TopFunctions <= 0 {
		opts.TopFunctions = aggregate.DefaultTopFunctions
	}
	return &Engine{
		scanner:  scanner.New(),
		analyzer: a,
		lines:    analyzer.NewLineCounter(),
		hashFn:   hasher.HashFile,
		workers:  opts.Workers,
		topN:     opts.TopFunctions,
		now:      time.Now,
	}
}

// NewFromConfig creates an engine with the configured analyzer backend
func NewFromConfig(cfg *config.Config) (*Engine, error) {
	a, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		return nil, err
	}
	return New(a, Options{Workers: cfg.Engine.Workers, TopFunctions: cfg.Engine.TopFunctionsN}), nil
}

// AnalyzerName returns the backend in use
func (e *Engine) AnalyzerName() string {
	return e.analyzer.Name()
}

type analyzedFile struct {
	metrics   model.FileMetrics
	functions []model.FunctionMetrics
}

// PerformIncrementalAnalysis runs one pass. Only a scan failure or context
// cancellation fails the pass; per-file analyzer failures are recorded as
// zeroed, unanalyzed files.
func (e *Engine) PerformIncrementalAnalysis(ctx context.Context, cfg Config) (*model.DirectoryAnalysisResult, error) {
	startTime := e.now()
	runID := uuid.New().String()
	kind := "full"
	if cfg.PreviousResult != nil {
		kind = "incremental"
	}

	absRoot, err := filepath.Abs(cfg.DirectoryPath)
	if err != nil {
		passTotal.WithLabelValues("failed", kind).Inc()
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	util.Info("Starting %s analysis of %s (run %s)", kind, absRoot, runID)

	// Step 1: scan
	entries, err := e.scanner.Scan(ctx, absRoot, cfg.Filters, cfg.ScanMode)
	if err != nil {
		passTotal.WithLabelValues("failed", kind).Inc()
		return nil, fmt.Errorf("scanning %s: %w", absRoot, err)
	}

	// Step 2: classify
	cs := changes.Detect(entries, cfg.PreviousResult, e.hashFn)
	previousFiles := cfg.PreviousResult.FileIndex()

	// Files whose previous analysis failed are retried even when unchanged
	var reuse []scanner.FileEntry
	toAnalyze := cs.ToAnalyze()
	for _, entry := range cs.Unchanged {
		if prev := cfg.PreviousResult.Files[previousFiles[entry.RelativePath]]; !prev.Analyzed {
			toAnalyze = append(toAnalyze, entry)
			continue
		}
		reuse = append(reuse, entry)
	}

	util.Debug("Changes for %s: %d added, %d modified, %d unchanged, %d deleted, %d to analyze",
		absRoot, len(cs.Added), len(cs.Modified), len(cs.Unchanged), len(cs.Deleted), len(toAnalyze))
	filesByChange.WithLabelValues("added").Add(float64(len(cs.Added)))
	filesByChange.WithLabelValues("modified").Add(float64(len(cs.Modified)))
	filesByChange.WithLabelValues("unchanged").Add(float64(len(cs.Unchanged)))
	filesByChange.WithLabelValues("deleted").Add(float64(len(cs.Deleted)))

	// Step 3: analyze added and modified files on a bounded pool
	analyzed, err := e.analyzeAll(ctx, toAnalyze, cs.Hashes, cfg.Progress)
	if err != nil {
		passTotal.WithLabelValues("canceled", kind).Inc()
		return nil, err
	}

	// Step 4: reuse unchanged files verbatim
	files := make([]model.FileMetrics, 0, len(entries))
	var functions []model.FunctionMetrics
	for _, a := range analyzed {
		files = append(files, a.metrics)
		functions = append(functions, a.functions...)
	}

	if len(reuse) > 0 {
		previousFunctions := cfg.PreviousResult.FunctionsByFile()
		for _, entry := range reuse {
			prev := cfg.PreviousResult.Files[previousFiles[entry.RelativePath]]
			files = append(files, revalidate(prev, entry))
			functions = append(functions, previousFunctions[entry.RelativePath]...)
		}
	}

	// Step 5: deleted files are dropped by construction; step 7: aggregate
	aggregate.SortFiles(files)
	aggregate.SortFunctions(functions)
	if functions == nil {
		functions = []model.FunctionMetrics{}
	}

	summary := aggregate.AggregateTop(files, functions, e.topN)
	finished := e.now()
	summary.AnalyzedAt = finished
	summary.TotalDuration = finished.Sub(startTime).Milliseconds()

	filters := cfg.Filters
	filters.ExcludePatterns = append([]string(nil), cfg.Filters.ExcludePatterns...)

	result := &model.DirectoryAnalysisResult{
		Summary:   summary,
		Files:     files,
		Functions: functions,
		Metadata: model.ResultMetadata{
			DirectoryPath:            absRoot,
			Mode:                     cfg.Mode,
			ScanMode:                 cfg.ScanMode,
			Filters:                  filters,
			FilesAnalyzedThisSession: len(analyzed),
			FilesReused:              len(reuse),
			FilesDeleted:             len(cs.Deleted),
			IsIncremental:            cfg.PreviousResult != nil,
			RunID:                    runID,
		},
	}

	passTotal.WithLabelValues("success", kind).Inc()
	passDuration.Observe(finished.Sub(startTime).Seconds())
	util.Info("Analysis of %s complete: %d files (%d analyzed, %d reused, %d deleted) in %v",
		absRoot, len(files), len(analyzed), len(reuse), len(cs.Deleted), finished.Sub(startTime))

	return result, nil
}

func (e *Engine) analyzeAll(ctx context.Context, entries []scanner.FileEntry, hashes map[string]string, progress ProgressFunc) ([]analyzedFile, error) {
	results := make([]analyzedFile, len(entries))
	if len(entries) == 0 {
		return results, nil
	}

	var (
		mu      sync.Mutex
		current int
		total   = len(entries)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			results[i] = e.analyzeFile(gCtx, entry, hashes[entry.RelativePath])
			if err := gCtx.Err(); err != nil {
				return err
			}

			mu.Lock()
			current++
			if progress != nil {
				progress(current, total, results[i].metrics.FileName)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}
	return results, nil
}

func (e *Engine) analyzeFile(ctx context.Context, entry scanner.FileEntry, knownHash string) analyzedFile {
	start := e.now()
	fm := identity(entry)

	content, err := os.ReadFile(entry.AbsolutePath)
	if err != nil {
		util.Warn("Cannot read %s: %v", entry.RelativePath, err)
		return e.failed(fm, knownHash, start, fmt.Errorf("read: %w", err))
	}

	fm.FileHash = knownHash
	if fm.FileHash == "" {
		fm.FileHash = hasher.HashBytes(content)
	}

	backend := e.analyzer.Name()
	callStart := time.Now()
	analysis, err := e.analyzer.Analyze(ctx, entry.AbsolutePath)
	analyzerDuration.WithLabelValues(backend).Observe(time.Since(callStart).Seconds())
	if err != nil {
		analyzerInvocations.WithLabelValues(backend, "error").Inc()
		if ctx.Err() == nil {
			util.Warn("Analyzer failed for %s, recording zeroed metrics: %v", entry.RelativePath, err)
		}
		return e.failed(fm, fm.FileHash, start, err)
	}
	if analysis == nil {
		analyzerInvocations.WithLabelValues(backend, "empty").Inc()
		return e.failed(fm, fm.FileHash, start, fmt.Errorf("analyzer returned no result"))
	}
	analyzerInvocations.WithLabelValues(backend, "success").Inc()

	counts := e.lines.Count(entry.RelativePath, content)
	fm.TotalLines = counts.Total
	fm.CommentLines = counts.Comment
	fm.ClassCount = analyzer.CountClasses(fm.Language, content)

	functions := make([]model.FunctionMetrics, 0, len(analysis.Functions))
	var sumDensity, sumParams float64
	for _, fr := range analysis.Functions {
		fn := toFunctionMetrics(entry.RelativePath, fm.Language, fr)
		sumDensity += fn.CyclomaticDensity
		sumParams += float64(fn.Parameters)
		functions = append(functions, fn)
	}

	fm.FunctionCount = len(functions)
	if fm.FunctionCount == 0 {
		fm.FunctionCount = analysis.Metrics.FunctionCount
	}
	fm.MeanComplexity = analysis.Metrics.AverageComplexity
	fm.MaxComplexity = analysis.Metrics.MaxComplexity
	if len(functions) > 0 {
		fm.MeanDensity = sumDensity / float64(len(functions))
		fm.MeanParameters = sumParams / float64(len(functions))
		if fm.MeanComplexity == 0 {
			fm.MeanComplexity = analyzer.Summarize(analysis.Functions).AverageComplexity
		}
		for _, fn := range functions {
			if fn.Complexity > fm.MaxComplexity {
				fm.MaxComplexity = fn.Complexity
			}
		}
	}

	fm.Analyzed = true
	fm.AnalyzedAt = e.now()
	fm.AnalysisDuration = fm.AnalyzedAt.Sub(start).Milliseconds()
	return analyzedFile{metrics: fm, functions: functions}
}

// failed records zero-valued metrics for a file the analyzer could not handle
func (e *Engine) failed(fm model.FileMetrics, hash string, start time.Time, err error) analyzedFile {
	fm.FileHash = hash
	fm.Analyzed = false
	fm.AnalysisError = err.Error()
	fm.AnalyzedAt = e.now()
	fm.AnalysisDuration = fm.AnalyzedAt.Sub(start).Milliseconds()
	return analyzedFile{metrics: fm, functions: nil}
}

func identity(entry scanner.FileEntry) model.FileMetrics {
	name := filepath.Base(entry.AbsolutePath)
	ext := filepath.Ext(name)
	return model.FileMetrics{
		RelativePath:  entry.RelativePath,
		FileName:      name,
		FilePath:      entry.AbsolutePath,
		Extension:     ext,
		Language:      model.LanguageForExtension(ext),
		FileSizeBytes: entry.SizeBytes,
	}
}

// revalidate copies a reused record, refreshing its identity from the scan
func revalidate(prev model.FileMetrics, entry scanner.FileEntry) model.FileMetrics {
	id := identity(entry)
	prev.FileName = id.FileName
	prev.FilePath = id.FilePath
	prev.Extension = id.Extension
	prev.Language = id.Language
	prev.FileSizeBytes = id.FileSizeBytes
	return prev
}

func toFunctionMetrics(relPath, language string, fr analyzer.FunctionResult) model.FunctionMetrics {
	length := fr.Length
	if length <= 0 && fr.EndLine >= fr.StartLine && fr.StartLine > 0 {
		length = fr.EndLine - fr.StartLine + 1
	}
	fn := model.FunctionMetrics{
		RelativeFilePath: relPath,
		Name:             fr.Name,
		StartLine:        fr.StartLine,
		EndLine:          fr.EndLine,
		Length:           length,
		Parameters:       fr.Parameters,
		Complexity:       fr.Complexity,
		Language:         language,
	}
	fn.Normalize()
	return fn
}
