//go:build sqlite_vec

package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// SQLiteVec delegates similarity search to the sqlite-vec extension's
// vec0 virtual table, avoiding the brute-force scan's O(n) query cost.
// String document ids are mapped to the integer rowids vec0 requires via
// a small side table, so the rest of C6 never has to know vec0 exists.
type SQLiteVec struct {
	db        *sql.DB
	dimension int
}

// OpenSQLiteVec creates (if absent) the vec0 virtual table and id-mapping
// side table for the given dimension and returns a ready Store.
func OpenSQLiteVec(db *sql.DB, dimension int) (*SQLiteVec, error) {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS vec_id_map (rowid INTEGER PRIMARY KEY AUTOINCREMENT, doc_id TEXT UNIQUE NOT NULL)",
		fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(embedding float[%d])", dimension),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("init vec0 store: %w", err)
		}
	}
	return &SQLiteVec{db: db, dimension: dimension}, nil
}

func (s *SQLiteVec) rowidFor(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	var rowid int64
	err := tx.QueryRowContext(ctx, "SELECT rowid FROM vec_id_map WHERE doc_id = ?", id).Scan(&rowid)
	if err == sql.ErrNoRows {
		res, insErr := tx.ExecContext(ctx, "INSERT INTO vec_id_map(doc_id) VALUES (?)", id)
		if insErr != nil {
			return 0, insErr
		}
		return res.LastInsertId()
	}
	return rowid, err
}

func (s *SQLiteVec) Upsert(ctx context.Context, id string, vector []float32) error {
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return fmt.Errorf("serialize vector %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	rowid, err := s.rowidFor(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_documents WHERE rowid = ?", rowid); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO vec_documents(rowid, embedding) VALUES (?, ?)", rowid, blob); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteVec) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query vector: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.doc_id, v.distance
		FROM vec_documents v
		JOIN vec_id_map m ON m.rowid = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("vec0 search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		// vec0 returns L2 distance; convert to a similarity score so
		// callers treat this Store identically to BruteForce's cosine.
		out = append(out, Result{ID: id, Score: 1.0 / (1.0 + distance)})
	}
	return out, rows.Err()
}

func (s *SQLiteVec) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

func (s *SQLiteVec) DeleteMany(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		rowid, err := s.rowidFor(ctx, tx, id)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_documents WHERE rowid = ?", rowid); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_id_map WHERE rowid = ?", rowid); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteVec) Dimension() int { return s.dimension }
func (s *SQLiteVec) Close() error   { return nil }
