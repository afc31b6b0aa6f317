package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/mcp"
	"github.com/quantfort/parityscan/internal/vectorstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `parityscan collects indicator source code into a vector store and
generates cross-language parity reports.

Usage:
  parityscan collect [flags]   scan a snapshot and embed new chunks
  parityscan report  [flags]   generate the Markdown parity report
  parityscan status  [flags]   show ledger and store counters
  parityscan mcp     [flags]   serve the corpus over MCP on stdio
  parityscan --version         print build information

Run "parityscan <command> --help" for command flags.
`

func main() {
	// Optional .env for API keys and endpoints.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "--version", "version":
		fmt.Printf("parityscan\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vectorstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vectorstore.DriverName)
		fmt.Printf("Vector Extension: %v\n", vectorstore.VectorExtensionAvailable)
		return
	case "collect":
		err = runCollect(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	// Embedding and report failures are absorbed into the run summary; an
	// error reaching here means setup failed or the ledger is unusable.
	if err != nil {
		fmt.Fprintf(os.Stderr, "parityscan: %v\n", err)
		if errors.Is(err, ledger.ErrLedgerIO) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// runMCP serves the collected corpus over stdio until interrupted.
func runMCP(args []string) error {
	storePath, ledgerPath := mcpPaths(args)

	// Log to stderr; stdout carries the protocol.
	log.SetOutput(os.Stderr)
	log.Printf("parityscan MCP server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s, Vector Extension: %v",
		vectorstore.BuildMode, vectorstore.DriverName, vectorstore.VectorExtensionAvailable)

	srv, err := mcp.NewServer(storePath, ledgerPath)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
		return nil
	case err := <-errChan:
		return err
	}
}
