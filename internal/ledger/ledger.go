// Package ledger maintains the durable record of discovered items and their
// embedding-completion status. It is the authority on "what has been
// discovered"; the vector store is the authority on "what is queryable".
// Reconcile keeps the two consistent after a crash.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrLedgerIO marks fatal ledger read/write failures. The pipeline cannot
// proceed safely without a consistent ledger, so callers must abort on it.
var ErrLedgerIO = errors.New("ledger io failure")

// header is the fixed column set. Loading tolerates extra or missing
// columns; a missing processed column defaults to false.
var header = []string{"filename", "unit_name", "category", "processed"}

// Row is one discovered item. Rows are append/update only; the pipeline
// never deletes them.
type Row struct {
	Identity  string
	UnitName  string
	Category  string
	Processed bool
}

// Ledger holds all rows in memory, in discovery order, and persists them as
// a CSV file via atomic whole-file rewrite.
type Ledger struct {
	path  string
	rows  []Row
	index map[string]int // identity -> rows offset
	dirty bool
}

// Load reads the ledger at path. A missing file yields an empty ledger; any
// other failure is ErrLedgerIO.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, index: make(map[string]int)}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrLedgerIO, path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate schema drift
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrLedgerIO, path, err)
	}
	if len(records) == 0 {
		return l, nil
	}

	cols := columnIndexes(records[0])
	for _, rec := range records[1:] {
		row := Row{
			Identity:  field(rec, cols["filename"]),
			UnitName:  field(rec, cols["unit_name"]),
			Category:  field(rec, cols["category"]),
			Processed: parseBool(field(rec, cols["processed"])),
		}
		if row.Identity == "" {
			continue
		}
		if _, dup := l.index[row.Identity]; dup {
			continue
		}
		l.index[row.Identity] = len(l.rows)
		l.rows = append(l.rows, row)
	}
	return l, nil
}

func columnIndexes(head []string) map[string]int {
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	// Missing columns map to -1 so field() returns "".
	for _, name := range header {
		if _, ok := cols[name]; !ok {
			cols[name] = -1
		}
	}
	return cols
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Lookup reports whether identity is known and whether it has been
// processed.
func (l *Ledger) Lookup(identity string) (processed, known bool) {
	i, ok := l.index[identity]
	if !ok {
		return false, false
	}
	return l.rows[i].Processed, true
}

// RecordDiscovered adds a row for a newly discovered item. Re-discovering a
// known identity is a no-op: the existing row, including its processed flag,
// is preserved.
func (l *Ledger) RecordDiscovered(row Row) {
	if _, known := l.index[row.Identity]; known {
		return
	}
	row.Processed = false
	l.index[row.Identity] = len(l.rows)
	l.rows = append(l.rows, row)
	l.dirty = true
}

// MarkProcessed flips a row to processed. Only the batch orchestrator calls
// this, and only after the corresponding store write succeeded.
func (l *Ledger) MarkProcessed(identity string) {
	if i, ok := l.index[identity]; ok && !l.rows[i].Processed {
		l.rows[i].Processed = true
		l.dirty = true
	}
}

// Reconcile cross-checks processed claims against the store's actual key
// set. A row claiming processed whose identity is absent from the store
// (prior crash mid-batch) is demoted to unprocessed so the next run
// re-embeds it. Returns the number of demoted rows.
func (l *Ledger) Reconcile(storeIDs map[string]struct{}) int {
	repaired := 0
	for i := range l.rows {
		if !l.rows[i].Processed {
			continue
		}
		if _, ok := storeIDs[l.rows[i].Identity]; !ok {
			l.rows[i].Processed = false
			l.dirty = true
			repaired++
		}
	}
	return repaired
}

// ProcessedSet returns the identities currently marked processed.
func (l *Ledger) ProcessedSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, row := range l.rows {
		if row.Processed {
			set[row.Identity] = struct{}{}
		}
	}
	return set
}

// Snapshot returns a copy of all rows in discovery order.
func (l *Ledger) Snapshot() []Row {
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *Ledger) Len() int { return len(l.rows) }

// Save persists the ledger with an atomic whole-file rewrite: write to a
// temp file in the same directory, fsync, then rename over the target. A
// crash mid-save leaves the previous file intact.
func (l *Ledger) Save() error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrLedgerIO, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write header: %v", ErrLedgerIO, err)
	}
	for _, row := range l.rows {
		rec := []string{row.Identity, row.UnitName, row.Category, fmt.Sprintf("%t", row.Processed)}
		if err := w.Write(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("%w: write row %s: %v", ErrLedgerIO, row.Identity, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: flush: %v", ErrLedgerIO, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync: %v", ErrLedgerIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", ErrLedgerIO, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrLedgerIO, l.path, err)
	}
	l.dirty = false
	return nil
}
