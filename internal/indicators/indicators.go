// Package indicators finds indicator definitions in source text. The match
// patterns cover the three implementation styles of the scanned codebase:
// Python classes, Cython cdef classes, and Rust structs.
package indicators

import (
	"regexp"
	"strings"

	"github.com/quantfort/parityscan/pkg/model"
)

var (
	// class Foo(Indicator):
	rePython = regexp.MustCompile(`(?i)^\s*class\s+([A-Za-z_]\w*)\s*\(\s*Indicator\s*\)\s*:`)
	// cdef class Foo(Indicator):
	reCython = regexp.MustCompile(`(?i)^\s*cdef\s+class\s+([A-Za-z_]\w*)\s*\(\s*Indicator\s*\)\s*:`)
	// pub struct FooIndicator {
	reRust = regexp.MustCompile(`(?i)pub\s+struct\s+([A-Za-z_]\w*Indicator)\s*\{`)
)

// Definition is one indicator definition found in a file.
type Definition struct {
	Name     string
	Path     string
	Category string
	Line     int // 0-based line of the match
}

// Extract scans text line by line for indicator definitions matching the
// file's category. Files of an unknown category yield no definitions.
func Extract(path, category, text string) []Definition {
	var re *regexp.Regexp
	switch category {
	case model.CategoryPython:
		re = rePython
	case model.CategoryCython:
		re = reCython
	case model.CategoryRust:
		re = reRust
	default:
		return nil
	}

	var defs []Definition
	for i, line := range strings.Split(text, "\n") {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		defs = append(defs, Definition{
			Name:     m[1],
			Path:     path,
			Category: category,
			Line:     i,
		})
	}
	return defs
}
