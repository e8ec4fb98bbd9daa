// Package symbolstore persists the Symbol & Reference Extractor's output
// (C3) into the `symbols`/`refs` tables `internal/store/schema.go`
// already declares, and reloads the whole project's graph for C4's
// PageRank pass. Grounded on internal/tracker.Tracker's WithTx/upsert
// idiom (same package family, same store.Store).
package symbolstore

import (
	"context"
	"database/sql"

	serrors "github.com/standardbeagle/semindex/internal/errors"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
)

// Store is the symbol-graph persistence layer.
type Store struct {
	store *store.Store
}

// New wraps an already-opened Store.
func New(s *store.Store) *Store {
	return &Store{store: s}
}

// ReplaceForFile atomically drops path's prior symbols/refs and inserts
// the freshly extracted set, matching C5's "file-hash change deletes
// prior records before re-extraction" idempotency posture applied to the
// symbol graph instead of documents.
func (s *Store) ReplaceForFile(ctx context.Context, path string, symbols []model.SymbolDefinition, refs []model.SymbolReference) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM symbols WHERE file_path=?", path); err != nil {
			return serrors.NewStorageError("symbolstore.replace.delete_symbols", err, true)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM refs WHERE file_path=?", path); err != nil {
			return serrors.NewStorageError("symbolstore.replace.delete_refs", err, true)
		}
		for _, sym := range symbols {
			if err := insertSymbol(ctx, tx, sym); err != nil {
				return err
			}
		}
		for _, ref := range refs {
			if err := insertRef(ctx, tx, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertSymbol(ctx context.Context, tx *sql.Tx, sym model.SymbolDefinition) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO symbols(id, kind, name, file_path, start_line, end_line, signature, docstring, parent_id, is_exported, language, pagerank_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, name=excluded.name, file_path=excluded.file_path,
			start_line=excluded.start_line, end_line=excluded.end_line,
			signature=excluded.signature, docstring=excluded.docstring,
			parent_id=excluded.parent_id, is_exported=excluded.is_exported,
			language=excluded.language
	`, sym.ID, string(sym.Kind), sym.Name, sym.FilePath, sym.StartLine, sym.EndLine,
		sym.Signature, sym.Docstring, sym.ParentID, boolToInt(sym.IsExported), sym.Language, sym.PageRankScore)
	if err != nil {
		return serrors.NewStorageError("symbolstore.insert_symbol", err, true)
	}
	return nil
}

func insertRef(ctx context.Context, tx *sql.Tx, ref model.SymbolReference) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO refs(from_symbol_id, to_symbol_name, to_symbol_id, kind, file_path, line, is_resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_symbol_id, to_symbol_name, kind) DO UPDATE SET
			to_symbol_id=excluded.to_symbol_id, file_path=excluded.file_path,
			line=excluded.line, is_resolved=excluded.is_resolved
	`, ref.FromSymbolID, ref.ToSymbolName, ref.ToSymbolID, string(ref.Kind), ref.FilePath, ref.Line, boolToInt(ref.IsResolved))
	if err != nil {
		return serrors.NewStorageError("symbolstore.insert_ref", err, true)
	}
	return nil
}

// AllSymbols loads every tracked symbol, across the whole project — the
// input PageRank needs to rank callers/callees that span files untouched
// by the current incremental pass.
func (s *Store) AllSymbols(ctx context.Context) ([]model.SymbolDefinition, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		"SELECT id, kind, name, file_path, start_line, end_line, signature, docstring, parent_id, is_exported, language, pagerank_score FROM symbols")
	if err != nil {
		return nil, serrors.NewStorageError("symbolstore.all_symbols", err, true)
	}
	defer rows.Close()

	var out []model.SymbolDefinition
	for rows.Next() {
		var sym model.SymbolDefinition
		var kind string
		var parentID sql.NullString
		var isExported int
		if err := rows.Scan(&sym.ID, &kind, &sym.Name, &sym.FilePath, &sym.StartLine, &sym.EndLine,
			&sym.Signature, &sym.Docstring, &parentID, &isExported, &sym.Language, &sym.PageRankScore); err != nil {
			return nil, serrors.NewStorageError("symbolstore.all_symbols.scan", err, true)
		}
		sym.Kind = model.SymbolKind(kind)
		sym.IsExported = isExported != 0
		if parentID.Valid {
			v := parentID.String
			sym.ParentID = &v
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AllRefs loads every tracked reference, across the whole project.
func (s *Store) AllRefs(ctx context.Context) ([]model.SymbolReference, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		"SELECT from_symbol_id, to_symbol_name, to_symbol_id, kind, file_path, line, is_resolved FROM refs")
	if err != nil {
		return nil, serrors.NewStorageError("symbolstore.all_refs", err, true)
	}
	defer rows.Close()

	var out []model.SymbolReference
	for rows.Next() {
		var ref model.SymbolReference
		var kind string
		var toID sql.NullString
		var resolved int
		if err := rows.Scan(&ref.FromSymbolID, &ref.ToSymbolName, &toID, &kind, &ref.FilePath, &ref.Line, &resolved); err != nil {
			return nil, serrors.NewStorageError("symbolstore.all_refs.scan", err, true)
		}
		ref.Kind = model.ReferenceKind(kind)
		ref.IsResolved = resolved != 0
		if toID.Valid {
			v := toID.String
			ref.ToSymbolID = &v
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ResolveRef persists one reference's resolution outcome (to_symbol_id,
// is_resolved) after §4.4's candidate disambiguation runs.
func (s *Store) ResolveRef(ctx context.Context, ref model.SymbolReference) error {
	_, err := s.store.DB().ExecContext(ctx,
		"UPDATE refs SET to_symbol_id=?, is_resolved=? WHERE from_symbol_id=? AND to_symbol_name=? AND kind=?",
		ref.ToSymbolID, boolToInt(ref.IsResolved), ref.FromSymbolID, ref.ToSymbolName, string(ref.Kind))
	if err != nil {
		return serrors.NewStorageError("symbolstore.resolve_ref", err, true)
	}
	return nil
}

// UpdatePageRankScores bulk-writes §4.4's post-normalisation scores back
// onto their symbols.
func (s *Store) UpdatePageRankScores(ctx context.Context, scores map[string]float64) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "UPDATE symbols SET pagerank_score=? WHERE id=?")
		if err != nil {
			return serrors.NewStorageError("symbolstore.update_scores.prepare", err, true)
		}
		defer stmt.Close()
		for id, score := range scores {
			if _, err := stmt.ExecContext(ctx, score, id); err != nil {
				return serrors.NewStorageError("symbolstore.update_scores.exec", err, true)
			}
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
