// Package source discovers candidate files from a content tree. A Source
// yields a finite, deterministic sequence of (path, text) pairs so that
// downstream chunk identities are reproducible across runs.
package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/quantfort/parityscan/pkg/model"
)

// FileEntry is one discovered file with its decoded text content.
type FileEntry struct {
	Path     string // forward-slash path relative to the source root
	Text     string
	Category string
}

// Target restricts discovery to one subtree and a set of extensions.
// Extension matching is case-insensitive on the full path suffix.
type Target struct {
	Path       string
	Extensions []string
}

// Source produces the files of one snapshot. Implementations must be
// deterministic: the same snapshot always yields the same entries in the
// same order. Unreadable or non-text files are skipped, not fatal.
type Source interface {
	// Revision identifies the snapshot; it prefixes chunk identities.
	Revision() string
	// Files returns all matching entries in traversal order.
	Files(ctx context.Context) ([]FileEntry, error)
}

// CategoryForPath classifies a file by extension.
func CategoryForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".py"):
		return model.CategoryPython
	case strings.HasSuffix(lower, ".pyx"), strings.HasSuffix(lower, ".pxd"):
		return model.CategoryCython
	case strings.HasSuffix(lower, ".rs"), strings.HasSuffix(lower, ".r"):
		return model.CategoryRust
	default:
		return model.CategoryUnknown
	}
}

func matchesTarget(path string, targets []Target) bool {
	if len(targets) == 0 {
		return CategoryForPath(path) != model.CategoryUnknown
	}
	lower := strings.ToLower(path)
	for _, t := range targets {
		prefix := strings.TrimSuffix(filepath.ToSlash(t.Path), "/")
		if prefix != "" && !strings.HasPrefix(path, prefix+"/") && path != prefix {
			continue
		}
		for _, ext := range t.Extensions {
			if strings.HasSuffix(lower, strings.ToLower(ext)) {
				return true
			}
		}
	}
	return false
}

// DirSource walks a live directory tree. WalkDir visits entries in lexical
// order, which keeps discovery deterministic for an unchanged tree.
type DirSource struct {
	root    string
	targets []Target
	log     *zap.Logger
}

// NewDirSource creates a directory-backed source rooted at root.
func NewDirSource(root string, targets []Target, log *zap.Logger) *DirSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSource{root: root, targets: targets, log: log}
}

// Revision returns the fixed filesystem marker. Directory trees have no
// version hash; identities derived from them are only stable while the tree
// is unchanged.
func (s *DirSource) Revision() string { return "FS" }

// Files walks the root and returns every matching, decodable file.
func (s *DirSource) Files(ctx context.Context) ([]FileEntry, error) {
	var entries []FileEntry

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Inaccessible subtree: record and move on.
			s.log.Warn("skipping unreadable path",
				zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchesTarget(rel, s.targets) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable file",
				zap.String("path", rel), zap.Error(err))
			return nil
		}
		if !utf8.Valid(data) {
			s.log.Warn("skipping non-text file", zap.String("path", rel))
			return nil
		}

		entries = append(entries, FileEntry{
			Path:     rel,
			Text:     string(data),
			Category: CategoryForPath(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
