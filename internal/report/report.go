// Package report builds Markdown parity reports over the collected corpus.
// For each comparison unit it retrieves the most relevant stored chunks,
// asks a completion model for a structured judgement, and renders one table
// row. Every unit always yields exactly one row: a failed or malformed
// completion produces a deterministic fallback row, never a missing one.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantfort/parityscan/internal/embedder"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/llm"
	"github.com/quantfort/parityscan/internal/vectorstore"
	"github.com/quantfort/parityscan/pkg/model"
)

// fallbackNotes is the fixed message used when a unit's completion call
// fails or returns something unusable.
const fallbackNotes = "request failed"

// Generator produces report rows for comparison units.
type Generator struct {
	store       vectorstore.Store
	embedder    embedder.Embedder
	completer   llm.Completer
	topK        int
	parallelism int
	log         *zap.Logger
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Store       vectorstore.Store
	Embedder    embedder.Embedder
	Completer   llm.Completer
	TopK        int
	Parallelism int
	Logger      *zap.Logger
}

// NewGenerator creates a Generator. TopK <= 0 selects 8; Parallelism <= 0
// selects 4.
func NewGenerator(opts GeneratorOptions) *Generator {
	if opts.TopK <= 0 {
		opts.TopK = 8
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{
		store:       opts.Store,
		embedder:    opts.Embedder,
		completer:   opts.Completer,
		topK:        opts.TopK,
		parallelism: opts.Parallelism,
		log:         opts.Logger,
	}
}

// UnitsFromLedger groups ledger rows into comparison units by unit name.
// Each unit lists the distinct (category, path) implementations found for
// it. Units come back sorted by name; implementations sorted by category.
func UnitsFromLedger(rows []ledger.Row) []model.ComparisonUnit {
	type implKey struct{ category, path string }

	byName := make(map[string]map[implKey]struct{})
	for _, row := range rows {
		if row.UnitName == "" {
			continue
		}
		path := originFromIdentity(row.Identity)
		if path == "" {
			continue
		}
		impls, ok := byName[row.UnitName]
		if !ok {
			impls = make(map[implKey]struct{})
			byName[row.UnitName] = impls
		}
		impls[implKey{row.Category, path}] = struct{}{}
	}

	units := make([]model.ComparisonUnit, 0, len(byName))
	for name, impls := range byName {
		unit := model.ComparisonUnit{Name: name}
		for key := range impls {
			unit.Implementations = append(unit.Implementations, model.Implementation{
				Category: key.category,
				Path:     key.path,
			})
		}
		unit.SortImplementations()
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units
}

// originFromIdentity extracts the file path from a chunk identity of the
// form revision::path::chunk_start_end.
func originFromIdentity(identity string) string {
	parts := strings.Split(identity, "::")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[1:len(parts)-1], "::")
}

// Generate produces one row per unit. Units are processed with bounded
// parallelism; a unit's failure never fails the run, it just downgrades that
// unit to the fallback row. The returned rows are ordered like units.
func (g *Generator) Generate(ctx context.Context, units []model.ComparisonUnit) []model.ReportRow {
	rows := make([]model.ReportRow, len(units))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelism)
	for i, unit := range units {
		eg.Go(func() error {
			rows[i] = g.generateRow(ctx, unit)
			return nil
		})
	}
	// Workers always return nil; Wait only orders the writes to rows.
	_ = eg.Wait()

	return rows
}

func (g *Generator) generateRow(ctx context.Context, unit model.ComparisonUnit) model.ReportRow {
	row, err := g.tryGenerateRow(ctx, unit)
	if err != nil {
		g.log.Warn("report row fell back",
			zap.String("unit", unit.Name), zap.Error(err))
		return fallbackRow(unit)
	}
	return row
}

func (g *Generator) tryGenerateRow(ctx context.Context, unit model.ComparisonUnit) (model.ReportRow, error) {
	emb, err := g.embedder.Embed(ctx, unit.QueryText())
	if err != nil {
		return model.ReportRow{}, fmt.Errorf("embed query: %w", err)
	}

	matches, err := g.store.QuerySimilar(ctx, emb.Vector, g.topK)
	if err != nil {
		return model.ReportRow{}, fmt.Errorf("retrieve context: %w", err)
	}

	resp, err := g.completer.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(unit, matches),
	})
	if err != nil {
		return model.ReportRow{}, fmt.Errorf("complete: %w", err)
	}

	row, err := parseRow(unit, resp.Text)
	if err != nil {
		return model.ReportRow{}, fmt.Errorf("parse response: %w", err)
	}
	return row, nil
}

const systemPrompt = `You are reviewing ports of the same trading indicator across Python, Cython, and Rust. Judge whether the implementations agree in behavior (parity) and whether they appear adequately tested (coverage). Respond with exactly one JSON object and nothing else.`

// buildPrompt assembles the per-unit instruction with the retrieved chunks
// inlined as context.
func buildPrompt(unit model.ComparisonUnit, matches []vectorstore.Match) string {
	var b strings.Builder

	b.WriteString("Component: ")
	b.WriteString(unit.Name)
	b.WriteString("\n\nKnown implementations:\n")
	for _, impl := range unit.Implementations {
		fmt.Fprintf(&b, "- %s: %s\n", impl.Category, impl.Path)
	}

	b.WriteString("\nRetrieved code context:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "\n--- %s (score %.3f) ---\n%s\n", m.ID, m.Score, m.Text)
	}

	fmt.Fprintf(&b, `
Respond with exactly one JSON object in this shape:
{"unit": %q, "parity": "pass" or "fail", "coverage": "pass" or "fail", "notes": "<one short sentence>"}
`, unit.Name)
	return b.String()
}

// parseRow extracts the JSON object from a completion response. Surrounding
// prose is tolerated; anything without a valid object, or with a status
// outside pass/fail, is an error so the caller falls back.
func parseRow(unit model.ComparisonUnit, text string) (model.ReportRow, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.ReportRow{}, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Unit     string `json:"unit"`
		Parity   string `json:"parity"`
		Coverage string `json:"coverage"`
		Notes    string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return model.ReportRow{}, fmt.Errorf("decode JSON: %w", err)
	}

	parity := model.Status(strings.ToLower(strings.TrimSpace(parsed.Parity)))
	coverage := model.Status(strings.ToLower(strings.TrimSpace(parsed.Coverage)))
	if !parity.Valid() || !coverage.Valid() {
		return model.ReportRow{}, fmt.Errorf("invalid status values %q/%q", parsed.Parity, parsed.Coverage)
	}

	return model.ReportRow{
		Unit:            unit.Name,
		Implementations: unit.Implementations,
		Parity:          parity,
		Coverage:        coverage,
		Notes:           strings.TrimSpace(parsed.Notes),
	}, nil
}

// fallbackRow is the deterministic row used when judgement could not be
// obtained for a unit.
func fallbackRow(unit model.ComparisonUnit) model.ReportRow {
	return model.ReportRow{
		Unit:            unit.Name,
		Implementations: unit.Implementations,
		Parity:          model.StatusFail,
		Coverage:        model.StatusFail,
		Notes:           fallbackNotes,
	}
}
