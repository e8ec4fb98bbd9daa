//go:build !sqlite_vec

package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
)

// BruteForce is the default (cgo-free) vectorstore.Store: vectors live in
// the `vectors` table (internal/store schemaV2) for durability, mirrored
// into memory for an O(n) cosine scan on every query. Adequate for the
// single-project corpora this tool targets; large corpora want the
// sqlite_vec build tag instead.
type BruteForce struct {
	db        *sql.DB
	dimension int

	mu      sync.RWMutex
	vectors map[string][]float32
}

// Open loads every persisted vector into memory and returns a ready Store.
func Open(db *sql.DB, dimension int) (*BruteForce, error) {
	bf := &BruteForce{db: db, dimension: dimension, vectors: map[string][]float32{}}
	rows, err := db.Query("SELECT id, vector FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		bf.vectors[id] = decodeVector(raw)
	}
	return bf, rows.Err()
}

func (bf *BruteForce) Upsert(ctx context.Context, id string, vector []float32) error {
	raw := encodeVector(vector)
	_, err := bf.db.ExecContext(ctx, `
		INSERT INTO vectors(id, vector) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET vector=excluded.vector
	`, id, raw)
	if err != nil {
		return fmt.Errorf("upsert vector %s: %w", id, err)
	}
	bf.mu.Lock()
	bf.vectors[id] = vector
	bf.mu.Unlock()
	return nil
}

func (bf *BruteForce) Search(_ context.Context, query []float32, k int) ([]Result, error) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	results := make([]Result, 0, len(bf.vectors))
	for id, vec := range bf.vectors {
		results = append(results, Result{ID: id, Score: cosineSimilarity(query, vec)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (bf *BruteForce) Delete(ctx context.Context, id string) error {
	return bf.DeleteMany(ctx, []string{id})
}

func (bf *BruteForce) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := bf.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "DELETE FROM vectors WHERE id = ?")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	bf.mu.Lock()
	for _, id := range ids {
		delete(bf.vectors, id)
	}
	bf.mu.Unlock()
	return nil
}

func (bf *BruteForce) Dimension() int { return bf.dimension }
func (bf *BruteForce) Close() error   { return nil }

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(raw []byte) []float32 {
	v := make([]float32, len(raw)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return v
}
