package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityForComplexityBoundaries(t *testing.T) {
	cases := map[float64]Severity{
		0:    SeverityLow,
		1:    SeverityLow,
		5:    SeverityLow,
		5.5:  SeverityMedium,
		6:    SeverityMedium,
		10:   SeverityMedium,
		11:   SeverityHigh,
		20:   SeverityHigh,
		20.1: SeverityCritical,
		21:   SeverityCritical,
	}
	for ccn, want := range cases {
		assert.Equal(t, want, SeverityForComplexity(ccn), "ccn=%v", ccn)
	}
}

func TestSizeBucketFor(t *testing.T) {
	assert.Equal(t, SizeSmall, SizeBucketFor(0))
	assert.Equal(t, SizeSmall, SizeBucketFor(1023))
	assert.Equal(t, SizeMedium, SizeBucketFor(1024))
	assert.Equal(t, SizeMedium, SizeBucketFor(10*1024-1))
	assert.Equal(t, SizeLarge, SizeBucketFor(10*1024))
	assert.Equal(t, SizeLarge, SizeBucketFor(100*1024-1))
	assert.Equal(t, SizeHuge, SizeBucketFor(100*1024))
}

func TestFunctionNormalize(t *testing.T) {
	fn := FunctionMetrics{StartLine: 10, EndLine: 4, Length: 0, Complexity: 3}
	fn.Normalize()
	assert.Equal(t, 10, fn.EndLine)
	assert.Zero(t, fn.CyclomaticDensity)

	fn = FunctionMetrics{StartLine: 1, EndLine: 4, Length: 4, Complexity: 2}
	fn.Normalize()
	assert.InDelta(t, 0.5, fn.CyclomaticDensity, 1e-9)
}

func TestModesRoundTripAsNames(t *testing.T) {
	meta := ResultMetadata{Mode: ModeProject, ScanMode: ScanDeep}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"project"`)
	assert.Contains(t, string(data), `"scanMode":"deep"`)

	var decoded ResultMetadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ModeProject, decoded.Mode)
	assert.Equal(t, ScanDeep, decoded.ScanMode)

	assert.Error(t, json.Unmarshal([]byte(`{"scanMode":"sideways"}`), &decoded))
}

func TestEffectiveDepth(t *testing.T) {
	f := AnalysisFilters{MaxDepth: 4}
	assert.Equal(t, 0, f.EffectiveDepth(ScanShallow))
	assert.Equal(t, 4, f.EffectiveDepth(ScanDeep))
	assert.Error(t, AnalysisFilters{MaxDepth: -1}.Validate())
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, LanguagePython, LanguageForPath("pkg/a.py"))
	assert.Equal(t, LanguageTypeScript, LanguageForPath("App.TSX"))
	assert.Equal(t, LanguageUnknown, LanguageForPath("README.md"))
	assert.True(t, IsSupportedExtension(".go"))
	assert.False(t, IsSupportedExtension(".md"))
}

func TestCloneIsDeep(t *testing.T) {
	r := &DirectoryAnalysisResult{
		Files:   []FileMetrics{{RelativePath: "a.py"}},
		Summary: DirectoryAnalysisSummary{LanguageDistribution: map[string]int{"python": 1}},
	}
	c := r.Clone()
	c.Files[0].RelativePath = "b.py"
	c.Summary.LanguageDistribution["python"] = 7

	assert.Equal(t, "a.py", r.Files[0].RelativePath)
	assert.Equal(t, 1, r.Summary.LanguageDistribution["python"])
}
