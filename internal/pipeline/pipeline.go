// Package pipeline orchestrates one collection run: discover files, chunk
// them, reconcile the ledger against the vector store, and embed whatever is
// not yet stored, in fixed-size sequential batches.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantfort/parityscan/internal/chunker"
	"github.com/quantfort/parityscan/internal/embedder"
	"github.com/quantfort/parityscan/internal/indicators"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/source"
	"github.com/quantfort/parityscan/internal/vectorstore"
	"github.com/quantfort/parityscan/pkg/model"
)

// Pipeline wires the collection stages together. It owns no goroutines:
// batches run strictly one after another so a failure never leaves later
// work half-committed.
type Pipeline struct {
	source    source.Source
	chunker   *chunker.Chunker
	ledger    *ledger.Ledger
	store     vectorstore.Store
	embedder  embedder.Embedder
	batchSize int
	log       *zap.Logger
}

// Options configures a Pipeline.
type Options struct {
	Source    source.Source
	Chunker   *chunker.Chunker
	Ledger    *ledger.Ledger
	Store     vectorstore.Store
	Embedder  embedder.Embedder
	BatchSize int
	Logger    *zap.Logger
}

// New creates a Pipeline. BatchSize <= 0 selects the default of 50.
func New(opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Chunker == nil {
		opts.Chunker = chunker.New(0)
	}
	return &Pipeline{
		source:    opts.Source,
		chunker:   opts.Chunker,
		ledger:    opts.Ledger,
		store:     opts.Store,
		embedder:  opts.Embedder,
		batchSize: opts.BatchSize,
		log:       opts.Logger,
	}
}

// Result summarizes one run.
type Result struct {
	RunID            string
	Revision         string
	FilesScanned     int
	ChunksDiscovered int
	ChunksEmbedded   int
	ChunksSkipped    int
	BatchesCommitted int
	BatchesFailed    int
	IndicatorsFound  int
	Repaired         int
	Errors           []string
	Duration         time.Duration

	// Items holds every chunk discovered this run, in discovery order, for
	// inventory output.
	Items []model.ContentItem
}

// Run executes one full collection pass. A failed batch is recorded and the
// run continues with the next batch; only ledger persistence failures abort,
// since continuing without a durable ledger would corrupt dedup state.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		Revision: p.source.Revision(),
	}
	log := p.log.With(zap.String("run_id", res.RunID), zap.String("revision", res.Revision))

	files, err := p.source.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	res.FilesScanned = len(files)
	log.Info("discovery complete", zap.Int("files", len(files)))

	// Chunk everything first so the ledger records the full snapshot before
	// any embedding starts.
	var items []model.ContentItem
	seen := make(map[string]string) // identity -> text hash
	for _, f := range files {
		defs := indicators.Extract(f.Path, f.Category, f.Text)
		res.IndicatorsFound += len(defs)

		for _, item := range p.chunker.ChunkFile(res.Revision, f.Path, f.Category, f.Text) {
			if prev, dup := seen[item.Identity]; dup {
				if prev != item.TextHash {
					log.Warn("identity collision with differing content",
						zap.String("identity", item.Identity))
				}
				continue
			}
			seen[item.Identity] = item.TextHash
			items = append(items, item)
			p.ledger.RecordDiscovered(ledger.Row{
				Identity: item.Identity,
				UnitName: item.UnitName,
				Category: item.Category,
			})
		}
	}
	res.ChunksDiscovered = len(items)
	res.Items = items

	// Persist discoveries before embedding so an interrupted run still
	// leaves every discovered identity on record as unprocessed.
	if err := p.ledger.Save(); err != nil {
		return nil, err
	}

	storeIDs, err := p.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list store ids: %w", err)
	}

	res.Repaired = p.ledger.Reconcile(storeIDs)
	if res.Repaired > 0 {
		log.Warn("repaired ledger rows missing from store", zap.Int("repaired", res.Repaired))
		if err := p.ledger.Save(); err != nil {
			return nil, err
		}
	}

	// Pending = discovered this run, absent from the store, and not already
	// marked processed. Discovery order is preserved.
	var pending []model.ContentItem
	for _, item := range items {
		if _, stored := storeIDs[item.Identity]; stored {
			res.ChunksSkipped++
			continue
		}
		if processed, _ := p.ledger.Lookup(item.Identity); processed {
			res.ChunksSkipped++
			continue
		}
		pending = append(pending, item)
	}
	log.Info("dedup complete",
		zap.Int("pending", len(pending)), zap.Int("skipped", res.ChunksSkipped))

	for batchStart := 0; batchStart < len(pending); batchStart += p.batchSize {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		batchEnd := batchStart + p.batchSize
		if batchEnd > len(pending) {
			batchEnd = len(pending)
		}
		batch := pending[batchStart:batchEnd]
		batchNum := batchStart/p.batchSize + 1

		if err := p.commitBatch(ctx, batch); err != nil {
			res.BatchesFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("batch %d: %v", batchNum, err))
			log.Error("batch failed, continuing",
				zap.Int("batch", batchNum), zap.Int("size", len(batch)), zap.Error(err))
			continue
		}

		res.BatchesCommitted++
		res.ChunksEmbedded += len(batch)
		log.Info("batch committed",
			zap.Int("batch", batchNum), zap.Int("size", len(batch)))

		// Ledger persistence failures are fatal: the store write already
		// happened and the next run's reconcile would be inconsistent.
		if err := p.ledger.Save(); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	log.Info("run complete",
		zap.Int("embedded", res.ChunksEmbedded),
		zap.Int("batches_committed", res.BatchesCommitted),
		zap.Int("batches_failed", res.BatchesFailed),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// commitBatch embeds one batch and writes it to the store as a unit. The
// ledger rows are flipped to processed only after the store write succeeds,
// so a crash between the two leaves rows reconcile can repair.
func (p *Pipeline) commitBatch(ctx context.Context, batch []model.ContentItem) error {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.Text
	}

	resp, err := p.embedder.EmbedBatch(ctx, embedder.BatchRequest{Texts: texts})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embeddings) != len(batch) {
		return fmt.Errorf("embed: expected %d vectors, got %d", len(batch), len(resp.Embeddings))
	}

	records := make([]vectorstore.Record, len(batch))
	for i, item := range batch {
		records[i] = vectorstore.Record{
			ID:         item.Identity,
			Vector:     resp.Embeddings[i].Vector,
			Text:       item.Text,
			Category:   item.Category,
			OriginPath: item.OriginPath,
			Provider:   resp.Provider,
			Model:      resp.Model,
		}
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return err
	}

	for _, item := range batch {
		p.ledger.MarkProcessed(item.Identity)
	}
	return nil
}

// WriteInventory renders the run's discovered chunks as companion files: a
// plain-text listing and a Markdown listing with fenced code blocks. Both
// are ordered by identity so diffs across runs stay readable.
func WriteInventory(dir string, items []model.ContentItem) error {
	sorted := make([]model.ContentItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Identity < sorted[j].Identity })

	var txt, md strings.Builder
	md.WriteString("# Collected Code Chunks\n")
	for _, item := range sorted {
		txt.WriteString(item.Identity)
		txt.WriteString("\n")
		txt.WriteString(item.Text)
		txt.WriteString("\n\n")

		md.WriteString("\n## ")
		md.WriteString(item.Identity)
		md.WriteString("\n\n```")
		md.WriteString(fenceLanguage(item.Category))
		md.WriteString("\n")
		md.WriteString(item.Text)
		md.WriteString("\n```\n")
	}

	if err := os.WriteFile(filepath.Join(dir, "collected_code_chunks.txt"), []byte(txt.String()), 0o644); err != nil {
		return fmt.Errorf("write chunk inventory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "collected_code_chunks.md"), []byte(md.String()), 0o644); err != nil {
		return fmt.Errorf("write chunk inventory: %w", err)
	}
	return nil
}

func fenceLanguage(category string) string {
	switch category {
	case model.CategoryPython, model.CategoryCython:
		return "python"
	case model.CategoryRust:
		return "rust"
	default:
		return ""
	}
}
