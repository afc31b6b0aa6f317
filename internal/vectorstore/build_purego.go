//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package vectorstore

// Compiled when building without CGO or without the sqlite_vec tag. Uses the
// pure Go SQLite driver; similarity ranking runs in Go.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use.
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if the vector extension is available.
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
