// Package tracker implements the File Tracker (C1): durable per-file
// state (content hash, mtime, chunk/document ids, per-type enrichment
// status) with a fast mtime-compare path and a SHA-256 fallback.
package tracker

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	serrors "github.com/standardbeagle/semindex/internal/errors"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
)

// Tracker is the File Tracker. All mutation goes through Store.WithTx so
// a crash between writes leaves at most a tracker/document-index
// divergence, reconciled by delete-then-reingest (spec §5).
type Tracker struct {
	store *store.Store
}

// New wraps an already-opened Store.
func New(s *store.Store) *Tracker {
	return &Tracker{store: s}
}

// fileRow mirrors the files table for scan convenience.
type fileRow struct {
	path            string
	contentHash     string
	mtime           int64
	chunkIDs        []string
	enrichmentState map[model.DocumentType]model.EnrichmentStatus
}

func scanFileRow(row *sql.Rows) (*fileRow, error) {
	var r fileRow
	var chunkJSON, stateJSON string
	if err := row.Scan(&r.path, &r.contentHash, &r.mtime, &chunkJSON, &stateJSON); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(chunkJSON), &r.chunkIDs)
	r.enrichmentState = map[model.DocumentType]model.EnrichmentStatus{}
	_ = json.Unmarshal([]byte(stateJSON), &r.enrichmentState)
	return &r, nil
}

// Diff compares currentPaths against tracked state, returning the four
// buckets from §4.1's contract. The fast path is an mtime compare; only
// on an mtime change is the file's SHA-256 recomputed and compared
// against the stored hash, after which a hash match just refreshes mtime.
func (t *Tracker) Diff(ctx context.Context, currentPaths []string) (*model.DiffResult, error) {
	tracked := map[string]fileRow{}
	rows, err := t.store.DB().QueryContext(ctx, "SELECT path, content_hash, mtime, chunk_ids, enrichment_state FROM files")
	if err != nil {
		return nil, serrors.NewStorageError("diff.query", err, true)
	}
	for rows.Next() {
		r, err := scanFileRow(rows)
		if err != nil {
			rows.Close()
			return nil, serrors.NewStorageError("diff.scan", err, true)
		}
		tracked[r.path] = *r
	}
	rows.Close()

	result := &model.DiffResult{}
	seen := map[string]bool{}

	for _, path := range currentPaths {
		seen[path] = true
		prior, known := tracked[path]

		info, statErr := os.Stat(path)
		if statErr != nil {
			// An I/O error during hashing surfaces as "modified" so the
			// pipeline re-examines it on the next pass (spec §4.1 failure
			// clause), rather than silently dropping the file.
			if known {
				result.Modified = append(result.Modified, path)
			} else {
				result.New = append(result.New, path)
			}
			continue
		}

		if !known {
			result.New = append(result.New, path)
			continue
		}

		if info.ModTime().Unix() == prior.mtime {
			result.Unchanged = append(result.Unchanged, path)
			continue
		}

		hash, hashErr := hashFile(path)
		if hashErr != nil {
			result.Modified = append(result.Modified, path)
			continue
		}
		if hash == prior.contentHash {
			// Content identical despite mtime churn: refresh mtime only.
			_ = t.store.WithTx(ctx, func(tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "UPDATE files SET mtime=? WHERE path=?", info.ModTime().Unix(), path)
				return err
			})
			result.Unchanged = append(result.Unchanged, path)
			continue
		}
		result.Modified = append(result.Modified, path)
	}

	for path := range tracked {
		if !seen[path] {
			result.Deleted = append(result.Deleted, path)
		}
	}

	return result, nil
}

func hashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// MarkIndexed idempotently upserts a file's tracked state. Per §4.1, this
// resets enrichment to pending when the content hash changes from what
// was previously stored (a fresh file, or a modification), and leaves it
// untouched on a no-op re-index with an identical hash.
func (t *Tracker) MarkIndexed(ctx context.Context, path, hash string, chunkIDs []string) error {
	return t.store.WithTx(ctx, func(tx *sql.Tx) error {
		var priorHash string
		err := tx.QueryRowContext(ctx, "SELECT content_hash FROM files WHERE path=?", path).Scan(&priorHash)
		changed := err == sql.ErrNoRows || priorHash != hash

		chunkJSON, _ := json.Marshal(chunkIDs)
		state := map[model.DocumentType]model.EnrichmentStatus{}
		if !changed {
			var stateJSON string
			_ = tx.QueryRowContext(ctx, "SELECT enrichment_state FROM files WHERE path=?", path).Scan(&stateJSON)
			_ = json.Unmarshal([]byte(stateJSON), &state)
		}
		stateJSON, _ := json.Marshal(state)

		info, statErr := os.Stat(path)
		var mtime int64
		if statErr == nil {
			mtime = info.ModTime().Unix()
		} else {
			mtime = time.Now().Unix()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO files(path, content_hash, mtime, chunk_ids, indexed_at, enrichment_state)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				content_hash=excluded.content_hash,
				mtime=excluded.mtime,
				chunk_ids=excluded.chunk_ids,
				indexed_at=excluded.indexed_at,
				enrichment_state=excluded.enrichment_state
		`, path, hash, mtime, string(chunkJSON), time.Now().Unix(), string(stateJSON))
		if err != nil {
			return serrors.NewStorageError("mark_indexed", err, true)
		}
		return nil
	})
}

// Remove drops a file's tracked row and, transactionally, every document
// tied to it — FileState cascades per the data model's lifecycle rule.
func (t *Tracker) Remove(ctx context.Context, path string) error {
	return t.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE file_path=?", path); err != nil {
			return serrors.NewStorageError("remove.documents", err, true)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM symbols WHERE file_path=?", path); err != nil {
			return serrors.NewStorageError("remove.symbols", err, true)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM refs WHERE file_path=?", path); err != nil {
			return serrors.NewStorageError("remove.refs", err, true)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path=?", path); err != nil {
			return serrors.NewStorageError("remove.files", err, true)
		}
		return nil
	})
}

// EnrichmentState returns the per-type status map for path.
func (t *Tracker) EnrichmentState(ctx context.Context, path string) (map[model.DocumentType]model.EnrichmentStatus, error) {
	var stateJSON string
	err := t.store.DB().QueryRowContext(ctx, "SELECT enrichment_state FROM files WHERE path=?", path).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return map[model.DocumentType]model.EnrichmentStatus{}, nil
	}
	if err != nil {
		return nil, serrors.NewStorageError("enrichment_state", err, true)
	}
	state := map[model.DocumentType]model.EnrichmentStatus{}
	_ = json.Unmarshal([]byte(stateJSON), &state)
	return state, nil
}

// SetEnrichment atomically updates one (path, docType) pair's status.
func (t *Tracker) SetEnrichment(ctx context.Context, path string, docType model.DocumentType, status model.EnrichmentStatus) error {
	return t.store.WithTx(ctx, func(tx *sql.Tx) error {
		var stateJSON string
		err := tx.QueryRowContext(ctx, "SELECT enrichment_state FROM files WHERE path=?", path).Scan(&stateJSON)
		if err != nil {
			return serrors.NewStorageError("set_enrichment.read", err, true)
		}
		state := map[model.DocumentType]model.EnrichmentStatus{}
		_ = json.Unmarshal([]byte(stateJSON), &state)
		state[docType] = status
		newJSON, _ := json.Marshal(state)

		var enrichedAt interface{}
		if status == model.EnrichmentComplete {
			enrichedAt = time.Now().Unix()
		}
		_, err = tx.ExecContext(ctx, "UPDATE files SET enrichment_state=?, enriched_at=COALESCE(?, enriched_at) WHERE path=?", string(newJSON), enrichedAt, path)
		if err != nil {
			return serrors.NewStorageError("set_enrichment.write", err, true)
		}
		return nil
	})
}

// NeedsEnrichment reports whether docType is not yet complete for path,
// per §4.1: `needs_enrichment(path, doc_type) ↔ state[doc_type] ≠ complete`.
func (t *Tracker) NeedsEnrichment(ctx context.Context, path string, docType model.DocumentType) (bool, error) {
	state, err := t.EnrichmentState(ctx, path)
	if err != nil {
		return false, err
	}
	return state[docType] != model.EnrichmentComplete, nil
}

// ChunkIDs returns the tracked chunk/document ids for path.
func (t *Tracker) ChunkIDs(ctx context.Context, path string) ([]string, error) {
	var chunkJSON string
	err := t.store.DB().QueryRowContext(ctx, "SELECT chunk_ids FROM files WHERE path=?", path).Scan(&chunkJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, serrors.NewStorageError("chunk_ids", err, true)
	}
	var ids []string
	_ = json.Unmarshal([]byte(chunkJSON), &ids)
	return ids, nil
}

// ContentHash returns the stored hash for path, or "" if untracked.
func (t *Tracker) ContentHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := t.store.DB().QueryRowContext(ctx, "SELECT content_hash FROM files WHERE path=?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("content_hash: %w", err)
	}
	return hash, nil
}
