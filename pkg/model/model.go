package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Category labels a source file by implementation language.
const (
	CategoryPython  = "python"
	CategoryCython  = "cython"
	CategoryRust    = "rust"
	CategoryUnknown = "unknown"
)

// ContentItem is one embeddable slice of a discovered source file.
//
// Identity is deterministic for a given input snapshot: it is derived from
// the snapshot revision, the file path, and the chunk's line range. Re-runs
// against the same snapshot therefore produce the same identities, which is
// what makes dedup and idempotent re-invocation possible.
type ContentItem struct {
	Identity   string
	Text       string
	Category   string
	OriginPath string
	StartLine  int // 0-based, inclusive
	EndLine    int // 0-based, exclusive
	UnitName   string
	TextHash   string // SHA-256 of Text, used to detect content drift under a stable identity
}

// HashText computes the hex-encoded SHA-256 digest of a chunk payload.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Status is a closed two-value indicator used in report rows.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Valid reports whether s is one of the two allowed values.
func (s Status) Valid() bool {
	return s == StatusPass || s == StatusFail
}

// Implementation points at one language-specific implementation of a
// comparison unit.
type Implementation struct {
	Category string
	Path     string
}

// ComparisonUnit is a logical component (one indicator) that may have
// implementations in several languages.
type ComparisonUnit struct {
	Name            string
	Implementations []Implementation
}

// QueryText builds the retrieval query for a unit: its name plus the paths
// of its known implementations.
func (u ComparisonUnit) QueryText() string {
	q := u.Name
	for _, impl := range u.Implementations {
		q += " " + impl.Path
	}
	return q
}

// SortImplementations orders implementations by category then path so report
// output is stable across runs.
func (u *ComparisonUnit) SortImplementations() {
	sort.Slice(u.Implementations, func(i, j int) bool {
		a, b := u.Implementations[i], u.Implementations[j]
		if a.Category != b.Category {
			return categoryRank(a.Category) < categoryRank(b.Category)
		}
		return a.Path < b.Path
	})
}

func categoryRank(c string) int {
	switch c {
	case CategoryPython:
		return 0
	case CategoryCython:
		return 1
	case CategoryRust:
		return 2
	default:
		return 3
	}
}

// ReportRow is one rendered comparison result. Rows are produced fresh on
// every report run and only persist as rendered Markdown.
type ReportRow struct {
	Unit            string
	Implementations []Implementation
	Parity          Status
	Coverage        Status
	Notes           string
}
