// Package vectorstore persists embedded records and serves similarity
// queries. The store's id key space doubles as the dedup set the pipeline
// reconciles the ledger against.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrWrite marks a failed upsert; the owning batch stays uncommitted.
	ErrWrite = errors.New("vector store write failed")
	// ErrDimensionMismatch is returned when a query vector's dimension
	// differs from the records being searched.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Record is what lives in the store: the embedding plus the payload fields
// mirrored from the content item for retrieval-time display.
type Record struct {
	ID         string
	Vector     []float32
	Text       string
	Category   string
	OriginPath string
	Provider   string
	Model      string
}

// Match is one similarity query result, highest score first.
type Match struct {
	ID         string
	Score      float64
	Text       string
	Category   string
	OriginPath string
}

// Store is the persistence contract the pipeline and report generator
// depend on. Upsert is idempotent per id: re-upserting the same id must not
// create duplicates.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	QuerySimilar(ctx context.Context, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
