package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/quantfort/parityscan/internal/config"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/llm"
	"github.com/quantfort/parityscan/internal/logging"
	"github.com/quantfort/parityscan/internal/report"
	"github.com/quantfort/parityscan/internal/vectorstore"
	"github.com/quantfort/parityscan/pkg/model"
)

// runReport builds the Markdown parity report over the collected corpus.
// Every comparison unit yields a row even when its completion call fails.
func runReport(args []string) error {
	flags := pflag.NewFlagSet("report", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to parityscan.yaml")
	ledgerPath := flags.String("ledger", "", "ledger CSV path (overrides config)")
	storePath := flags.String("store", "", "vector store path (overrides config)")
	output := flags.String("output", "", "aggregate report path (overrides config)")
	reportDir := flags.String("report-dir", "", "per-unit report directory (overrides config)")
	topK := flags.Int("top-k", 0, "chunks retrieved per unit (overrides config)")
	parallel := flags.Int("parallel", 4, "units judged concurrently")
	debug := flags.Bool("debug", false, "enable debug logging")
	logFile := flags.String("log-file", "", "also log JSON to this file (rotated)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *ledgerPath != "" {
		cfg.LedgerPath = *ledgerPath
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *output != "" {
		cfg.ReportPath = *output
	}
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}

	log := logging.New(*debug, *logFile)
	defer func() { _ = log.Sync() }()

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
	}
	units := report.UnitsFromLedger(led.Snapshot())
	if len(units) == 0 {
		return fmt.Errorf("ledger %s holds no comparison units; run collect first", cfg.LedgerPath)
	}

	store, err := vectorstore.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	completer, err := buildCompleter(cfg)
	if err != nil {
		return err
	}

	gen := report.NewGenerator(report.GeneratorOptions{
		Store:       store,
		Embedder:    emb,
		Completer:   completer,
		TopK:        cfg.TopK,
		Parallelism: *parallel,
		Logger:      log,
	})

	rows := gen.Generate(context.Background(), units)

	now := time.Now()
	if err := report.WriteReports(cfg.ReportDir, cfg.ReportPath, rows, now); err != nil {
		return err
	}

	failed := 0
	for _, row := range rows {
		if row.Parity == model.StatusFail {
			failed++
		}
	}
	fmt.Printf("Report written: %s (%d units, %d flagged)\n",
		cfg.ReportPath, len(rows), failed)
	fmt.Printf("Per-unit pages: %s\n", filepath.Clean(cfg.ReportDir))
	return nil
}

func buildCompleter(cfg *config.Config) (llm.Completer, error) {
	pc := llm.ProviderConfig{
		Type:    cfg.Completion.Type,
		Model:   cfg.Completion.Model,
		BaseURL: cfg.Completion.BaseURL,
	}
	if pc.Type == "" {
		pc.Type = "openai"
	}
	return llm.New(pc)
}
