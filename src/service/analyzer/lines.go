package analyzer

import (
	"bytes"
	"path/filepath"
	"sync"

	"github.com/boyter/scc/v3/processor"
)

var sccInitOnce sync.Once

// LineCounts holds the line statistics recorded per file
type LineCounts struct {
	Total   int
	Code    int
	Comment int
	Blank   int
	// Language is scc's name for the file's language, empty on fallback
	Language string
}

// LineCounter counts total and comment lines using scc's processor.
// Files scc does not recognise fall back to a plain newline count.
type LineCounter struct{}

// NewLineCounter creates a line counter, initialising scc's language tables once
func NewLineCounter() *LineCounter {
	sccInitOnce.Do(func() {
		processor.ProcessConstants()
	})
	return &LineCounter{}
}

// Count returns line statistics for content named name
func (c *LineCounter) Count(name string, content []byte) LineCounts {
	base := filepath.Base(name)

	possibleLanguages, _ := processor.DetectLanguage(base)
	if len(possibleLanguages) == 0 {
		return fallbackCounts(content)
	}

	job := &processor.FileJob{
		Filename:          base,
		Content:           content,
		Bytes:             int64(len(content)),
		PossibleLanguages: possibleLanguages,
	}
	job.Language = processor.DetermineLanguage(job.Filename, job.Language, job.PossibleLanguages, job.Content)
	if job.Language == "" {
		return fallbackCounts(content)
	}

	processor.CountStats(job)
	if job.Binary {
		return LineCounts{}
	}

	return LineCounts{
		Total:    int(job.Lines),
		Code:     int(job.Code),
		Comment:  int(job.Comment),
		Blank:    int(job.Blank),
		Language: job.Language,
	}
}

func fallbackCounts(content []byte) LineCounts {
	return LineCounts{Total: CountLines(content)}
}

// CountLines counts newline-terminated lines, plus a final unterminated one
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
