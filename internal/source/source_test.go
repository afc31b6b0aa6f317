package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfort/parityscan/pkg/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCategoryForPath(t *testing.T) {
	assert.Equal(t, model.CategoryPython, CategoryForPath("a/b/sma.py"))
	assert.Equal(t, model.CategoryCython, CategoryForPath("sma.pyx"))
	assert.Equal(t, model.CategoryCython, CategoryForPath("sma.pxd"))
	assert.Equal(t, model.CategoryRust, CategoryForPath("src/sma.rs"))
	assert.Equal(t, model.CategoryPython, CategoryForPath("UPPER.PY"))
	assert.Equal(t, model.CategoryUnknown, CategoryForPath("readme.md"))
}

func TestDirSource_DiscoversKnownCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "py/sma.py", "class Sma: pass\n")
	writeFile(t, root, "cy/sma.pyx", "cdef class Sma: pass\n")
	writeFile(t, root, "rust/sma.rs", "pub struct Sma {}\n")
	writeFile(t, root, "README.md", "docs\n")

	src := NewDirSource(root, nil, nil)
	entries, err := src.Files(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 3)
	paths := []string{entries[0].Path, entries[1].Path, entries[2].Path}
	assert.Equal(t, []string{"cy/sma.pyx", "py/sma.py", "rust/sma.rs"}, paths,
		"lexical traversal order")
	assert.Equal(t, "FS", src.Revision())
}

func TestDirSource_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "b\n")
	writeFile(t, root, "a.py", "a\n")
	writeFile(t, root, "sub/c.rs", "c\n")

	src := NewDirSource(root, nil, nil)
	first, err := src.Files(context.Background())
	require.NoError(t, err)
	second, err := src.Files(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDirSource_TargetFiltering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "indicators/sma.py", "py\n")
	writeFile(t, root, "indicators/sma.pyx", "cy\n")
	writeFile(t, root, "other/sma.py", "elsewhere\n")

	targets := []Target{{Path: "indicators", Extensions: []string{".py"}}}
	src := NewDirSource(root, targets, nil)
	entries, err := src.Files(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "indicators/sma.py", entries[0].Path)
}

func TestDirSource_SkipsDotDirsAndBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/objects/junk.py", "hidden\n")
	writeFile(t, root, "ok.py", "visible\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.py"), []byte{0xff, 0xfe, 0x00, 0x41}, 0o644))

	src := NewDirSource(root, nil, nil)
	entries, err := src.Files(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "ok.py", entries[0].Path)
}

func TestMatchesTarget_EmptyTargetsUseCategories(t *testing.T) {
	assert.True(t, matchesTarget("a/b.py", nil))
	assert.False(t, matchesTarget("a/b.md", nil))
}

func TestMatchesTarget_PrefixBoundary(t *testing.T) {
	targets := []Target{{Path: "ind", Extensions: []string{".py"}}}
	assert.True(t, matchesTarget("ind/sma.py", targets))
	assert.False(t, matchesTarget("indicators/sma.py", targets),
		"prefix must match a whole path segment")
}
