package model

// Severity represents a complexity severity bucket
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists buckets from least to most severe
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Complexity thresholds (inclusive upper bounds)
const (
	LowComplexityMax    = 5
	MediumComplexityMax = 10
	HighComplexityMax   = 20
)

// SeverityForComplexity buckets a cyclomatic complexity value.
// A mean value falls in the first bucket whose upper bound it does not exceed,
// so 5 is low, 5.5 and 10 are medium, 20 is high and anything above 20 is critical.
func SeverityForComplexity(ccn float64) Severity {
	switch {
	case ccn <= LowComplexityMax:
		return SeverityLow
	case ccn <= MediumComplexityMax:
		return SeverityMedium
	case ccn <= HighComplexityMax:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// SizeBucket represents a file-size bucket
type SizeBucket string

const (
	SizeSmall  SizeBucket = "small"
	SizeMedium SizeBucket = "medium"
	SizeLarge  SizeBucket = "large"
	SizeHuge   SizeBucket = "huge"
)

// Size thresholds (exclusive upper bounds, bytes)
const (
	SmallFileLimit  = 1024
	MediumFileLimit = 10 * 1024
	LargeFileLimit  = 100 * 1024
)

// SizeBucketFor buckets a file size in bytes
func SizeBucketFor(size int64) SizeBucket {
	switch {
	case size < SmallFileLimit:
		return SizeSmall
	case size < MediumFileLimit:
		return SizeMedium
	case size < LargeFileLimit:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// ComplexityDistribution counts items per severity bucket
type ComplexityDistribution struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Add increments the bucket for s
func (d *ComplexityDistribution) Add(s Severity) {
	switch s {
	case SeverityLow:
		d.Low++
	case SeverityMedium:
		d.Medium++
	case SeverityHigh:
		d.High++
	case SeverityCritical:
		d.Critical++
	}
}

// Count returns the count for a bucket
func (d ComplexityDistribution) Count(s Severity) int {
	switch s {
	case SeverityLow:
		return d.Low
	case SeverityMedium:
		return d.Medium
	case SeverityHigh:
		return d.High
	case SeverityCritical:
		return d.Critical
	}
	return 0
}

// FileSizeDistribution counts files per size bucket
type FileSizeDistribution struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
	Huge   int `json:"huge"`
}

// Add increments the bucket for b
func (d *FileSizeDistribution) Add(b SizeBucket) {
	switch b {
	case SizeSmall:
		d.Small++
	case SizeMedium:
		d.Medium++
	case SizeLarge:
		d.Large++
	case SizeHuge:
		d.Huge++
	}
}
