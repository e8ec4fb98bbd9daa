//go:build sqlite_vec

package store

// Built with `CGO_ENABLED=1 go build -tags sqlite_vec`. Uses the cgo
// sqlite3 driver plus github.com/asg017/sqlite-vec-go-bindings so the
// local VectorStore implementation (internal/vectorstore) can delegate
// dense-vector search to the sqlite-vec extension instead of the pure-Go
// brute-force cosine scan.

import (
	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

const (
	DriverName         = "sqlite3"
	VectorExtAvailable = true
	BuildMode          = "cgo"
)
