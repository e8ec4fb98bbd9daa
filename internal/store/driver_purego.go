//go:build !sqlite_vec

package store

// Default build: cgo-free modernc.org/sqlite driver. Dense-vector search
// falls back to the pure-Go brute-force cosine scan in
// internal/vectorstore; slower on large corpora but requires no C
// toolchain, matching this module's "single process against a local
// project tree" non-goal of distributed/production infrastructure.

import (
	_ "modernc.org/sqlite"
)

const (
	DriverName         = "sqlite"
	VectorExtAvailable = false
	BuildMode          = "purego"
)
