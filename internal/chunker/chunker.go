// Package chunker splits file content into bounded-size text chunks with
// stable, reproducible identifiers.
package chunker

import (
	"fmt"
	"path"
	"strings"

	"github.com/quantfort/parityscan/pkg/model"
)

// DefaultMaxLines caps chunk size. Large files split into consecutive
// fixed-size windows so each embedding request stays well under upstream
// request limits.
const DefaultMaxLines = 300

// Chunker splits file text into bounded, identity-stable chunks.
type Chunker struct {
	maxLines int
}

// New creates a Chunker. maxLines <= 0 selects DefaultMaxLines.
func New(maxLines int) *Chunker {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Chunker{maxLines: maxLines}
}

// ChunkFile splits text into ordered chunks of at most maxLines lines.
//
// Identity is derived from (revision, path, start, end) only, never from a
// counter, so re-chunking the same unmodified file reproduces identical
// identities. Any edit to a file shifts its line ranges and therefore
// invalidates all of that file's chunk identities; the stale identities stay
// in the ledger and store, and the new content is embedded under fresh keys.
//
// An empty file yields no chunks. A file shorter than maxLines yields one
// chunk spanning the whole file.
func (c *Chunker) ChunkFile(revision, filePath, category, text string) []model.ContentItem {
	if text == "" {
		return nil
	}

	lines := splitLines(text)
	total := len(lines)
	if total == 0 {
		return nil
	}
	unit := UnitName(filePath)

	items := make([]model.ContentItem, 0, (total+c.maxLines-1)/c.maxLines)
	for start := 0; start < total; start += c.maxLines {
		end := start + c.maxLines
		if end > total {
			end = total
		}
		chunkText := strings.Join(lines[start:end], "\n")

		items = append(items, model.ContentItem{
			Identity:   ChunkIdentity(revision, filePath, start, end),
			Text:       chunkText,
			Category:   category,
			OriginPath: filePath,
			StartLine:  start,
			EndLine:    end,
			UnitName:   unit,
			TextHash:   model.HashText(chunkText),
		})
	}
	return items
}

// ChunkIdentity builds the stable key for one chunk.
func ChunkIdentity(revision, filePath string, start, end int) string {
	return fmt.Sprintf("%s::%s::chunk_%d_%d", revision, filePath, start, end)
}

// UnitName derives the comparison-unit name for a file: its basename minus
// the extension. Ports of the same indicator share a basename across
// language trees, which is what groups them into one report row.
func UnitName(filePath string) string {
	base := path.Base(filePath)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// splitLines matches the line accounting used at discovery time: a trailing
// newline does not produce an empty final line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
