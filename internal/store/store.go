// Package store is the single-writer, many-reader relational persistence
// layer backing the File Tracker (C1), the reference graph's symbol/
// reference tables (C3/C4), and document metadata (C6). The File
// Tracker's writes go through Store.WithTx, matching spec §5's "BEGIN /
// work / COMMIT | ROLLBACK around a user-supplied function" shared-resource
// policy; some other packages (learned weights, vector rows, reference
// resolution) issue single-statement writes directly on DB().
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Store wraps a *sql.DB opened against a project's index.db.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and applies
// any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// SQLite tolerates exactly one writer; the whole system treats the
	// index as single-writer/many-reader (spec §5), so a single
	// connection removes any need for our own write-lock.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory store, used by tests and by short-lived
// benchmark snapshots (C13 operates on snapshots of C1/C6 data).
func OpenMemory() (*Store, error) {
	return Open("file::memory:?cache=shared")
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("bootstrap schema_version: %w", err)
	}
	var applied int
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&applied)
	for i := applied; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for packages (tracker, docindex,
// symbolgraph) that issue their own statements against the shared schema.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic — the transactional API spec §5 requires as the
// tracker's only write path.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
