package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/quantfort/parityscan/internal/config"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/vectorstore"
)

// runStatus prints the ledger and store counters without modifying either.
func runStatus(args []string) error {
	flags := pflag.NewFlagSet("status", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to parityscan.yaml")
	ledgerPath := flags.String("ledger", "", "ledger CSV path (overrides config)")
	storePath := flags.String("store", "", "vector store path (overrides config)")
	jsonOut := flags.Bool("json", false, "print status as JSON")
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

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
	}

	store, err := vectorstore.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stored, err := store.Count(context.Background())
	if err != nil {
		return err
	}

	processed := 0
	for _, row := range led.Snapshot() {
		if row.Processed {
			processed++
		}
	}
	pendingRepair := processed - stored

	if *jsonOut {
		return printJSON(map[string]interface{}{
			"ledger": map[string]interface{}{
				"path":        cfg.LedgerPath,
				"rows":        led.Len(),
				"processed":   processed,
				"unprocessed": led.Len() - processed,
			},
			"store": map[string]interface{}{
				"path":   cfg.StorePath,
				"chunks": stored,
				"driver": vectorstore.DriverName,
				"mode":   vectorstore.BuildMode,
			},
		})
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Println("Ledger")
	fmt.Printf("  Path:        %s\n", cfg.LedgerPath)
	fmt.Printf("  Rows:        %d\n", led.Len())
	_, _ = green.Printf("  Processed:   %d\n", processed)
	fmt.Printf("  Unprocessed: %d\n", led.Len()-processed)

	_, _ = bold.Println("Store")
	fmt.Printf("  Path:        %s\n", cfg.StorePath)
	fmt.Printf("  Chunks:      %d\n", stored)
	fmt.Printf("  Driver:      %s (%s)\n", vectorstore.DriverName, vectorstore.BuildMode)

	if pendingRepair > 0 {
		_, _ = yellow.Printf("\n%d processed rows exceed stored chunks; the next collect run will reconcile.\n", pendingRepair)
	}
	return nil
}

// mcpPaths resolves store and ledger paths for MCP serve mode from flags.
func mcpPaths(args []string) (storePath, ledgerPath string) {
	flags := pflag.NewFlagSet("mcp", pflag.ExitOnError)
	store := flags.String("store", config.DefaultStorePath, "vector store path")
	led := flags.String("ledger", config.DefaultLedgerPath, "ledger CSV path")
	_ = flags.Parse(args)
	return *store, *led
}
