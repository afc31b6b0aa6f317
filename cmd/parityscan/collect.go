package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/quantfort/parityscan/internal/chunker"
	"github.com/quantfort/parityscan/internal/config"
	"github.com/quantfort/parityscan/internal/embedder"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/logging"
	"github.com/quantfort/parityscan/internal/pipeline"
	"github.com/quantfort/parityscan/internal/source"
	"github.com/quantfort/parityscan/internal/vectorstore"
)

// runCollect scans the configured snapshot and embeds every chunk not yet in
// the store. Failed batches are reported in the summary, not as a process
// failure; only setup and ledger problems return an error.
func runCollect(args []string) error {
	flags := pflag.NewFlagSet("collect", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to parityscan.yaml")
	dir := flags.String("dir", "", "scan a plain directory instead of a git branch")
	repo := flags.String("repo", "", "git repository path (overrides config)")
	branch := flags.String("branch", "", "git branch (overrides config)")
	batchSize := flags.Int("batch-size", 0, "chunks per embedding batch (overrides config)")
	inventory := flags.Bool("inventory", false, "write collected_code_chunks.{txt,md} next to the ledger")
	jsonOut := flags.Bool("json", false, "print the run summary as JSON")
	debug := flags.Bool("debug", false, "enable debug logging")
	logFile := flags.String("log-file", "", "also log JSON to this file (rotated)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, *dir, *repo)
	if err != nil {
		return err
	}
	if *branch != "" {
		cfg.Branch = *branch
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}

	log := logging.New(*debug, *logFile)
	defer func() { _ = log.Sync() }()

	src, err := buildSource(cfg, *dir, log)
	if err != nil {
		return err
	}

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
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

	p := pipeline.New(pipeline.Options{
		Source:    src,
		Chunker:   chunker.New(cfg.ChunkLines),
		Ledger:    led,
		Store:     store,
		Embedder:  emb,
		BatchSize: cfg.BatchSize,
		Logger:    log,
	})

	res, err := p.Run(context.Background())
	if err != nil {
		return err
	}

	if *inventory {
		if err := pipeline.WriteInventory(".", res.Items); err != nil {
			log.Warn("inventory write failed", zap.Error(err))
		}
	}

	if *jsonOut {
		return printJSON(res)
	}
	printCollectSummary(res)
	return nil
}

// loadConfig builds the effective config from file and flag overrides. With
// no config file, --dir or --repo must supply the scan root.
func loadConfig(configPath, dir, repo string) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if repo != "" {
			cfg.RepoPath = repo
		}
		return cfg, nil
	}

	cfg := config.Default()
	switch {
	case repo != "":
		cfg.RepoPath = repo
	case dir != "":
		cfg.RepoPath = dir
	default:
		return nil, fmt.Errorf("one of --config, --repo, or --dir is required")
	}
	return cfg, nil
}

func buildSource(cfg *config.Config, dir string, log *zap.Logger) (source.Source, error) {
	targets := make([]source.Target, len(cfg.Targets))
	for i, t := range cfg.Targets {
		targets[i] = source.Target{Path: t.Path, Extensions: t.Extensions}
	}

	if dir != "" {
		return source.NewDirSource(dir, targets, log), nil
	}
	return source.NewGitSource(cfg.RepoPath, cfg.Branch, targets, log)
}

func buildEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	if cfg.Embedding.Type == "" {
		return embedder.NewFromEnv()
	}
	return embedder.New(embedder.Config{
		Provider: cfg.Embedding.Type,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCollectSummary(res *pipeline.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	_, _ = bold.Printf("Collection run %s (revision %s)\n", res.RunID, res.Revision)
	fmt.Printf("  Files scanned:     %d\n", res.FilesScanned)
	fmt.Printf("  Chunks discovered: %d\n", res.ChunksDiscovered)
	fmt.Printf("  Indicators found:  %d\n", res.IndicatorsFound)
	fmt.Printf("  Already stored:    %d\n", res.ChunksSkipped)
	_, _ = green.Printf("  Chunks embedded:   %d (%d batches)\n", res.ChunksEmbedded, res.BatchesCommitted)
	if res.Repaired > 0 {
		_, _ = yellow.Printf("  Ledger repaired:   %d rows\n", res.Repaired)
	}
	if res.BatchesFailed > 0 {
		_, _ = red.Printf("  Batches failed:    %d\n", res.BatchesFailed)
		for _, msg := range res.Errors {
			_, _ = red.Printf("    - %s\n", msg)
		}
	}
	fmt.Printf("  Duration:          %s\n", res.Duration.Round(time.Millisecond))
}
