// Package docindex implements the Typed Document Index (C6): the single
// store of record for every enrichment document, fused retrieval over its
// vector and keyword channels, and the per-file lifecycle operations the
// rest of the pipeline (C1, C5) depends on.
package docindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
	"github.com/standardbeagle/semindex/internal/vectorstore"
)

// Index is C6's concrete implementation: relational document storage in
// internal/store, a pluggable vectorstore.Store for the dense channel, and
// an in-process BM25 index for the keyword channel.
type Index struct {
	db      *sql.DB
	vectors vectorstore.Store
	bm25    *bm25Index

	typeWeights map[model.DocumentType]float64
}

// Open constructs an Index backed by s and vectors, and rebuilds the BM25
// channel from whatever documents already persisted.
func Open(ctx context.Context, s *store.Store, vectors vectorstore.Store) (*Index, error) {
	idx := &Index{
		db:          s.DB(),
		vectors:     vectors,
		bm25:        newBM25Index(),
		typeWeights: model.DefaultStaticTypeWeights,
	}
	rows, err := idx.db.QueryContext(ctx, "SELECT id, content FROM documents")
	if err != nil {
		return nil, fmt.Errorf("load documents for bm25: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		idx.bm25.Add(id, content)
	}
	return idx, rows.Err()
}

// Insert upserts one document: relational row, BM25 postings, and (if
// Vector is populated) the dense-vector channel. Insert is idempotent
// under the §4.5 document-id contract — the same (type,path,name,content)
// overwrites in place rather than duplicating.
func (idx *Index) Insert(ctx context.Context, doc model.Document) error {
	sourceIDs, err := json.Marshal(doc.SourceIDs)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc.Payload)
	if err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	var enrichedAt sql.NullInt64
	if doc.EnrichedAt != nil {
		enrichedAt = sql.NullInt64{Int64: doc.EnrichedAt.Unix(), Valid: true}
	}

	_, err = idx.db.ExecContext(ctx, `
		INSERT INTO documents(id, document_type, file_path, file_hash, content, source_ids, payload, created_at, enriched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_type=excluded.document_type,
			file_path=excluded.file_path,
			file_hash=excluded.file_hash,
			content=excluded.content,
			source_ids=excluded.source_ids,
			payload=excluded.payload,
			created_at=excluded.created_at,
			enriched_at=excluded.enriched_at
	`, doc.ID, string(doc.Type), doc.FilePath, doc.FileHash, doc.Content, string(sourceIDs), string(payload), doc.CreatedAt.Unix(), enrichedAt)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}

	idx.bm25.Add(doc.ID, doc.Content)

	if len(doc.Vector) > 0 && idx.vectors != nil {
		if err := idx.vectors.Upsert(ctx, doc.ID, doc.Vector); err != nil {
			return fmt.Errorf("upsert vector %s: %w", doc.ID, err)
		}
	}
	return nil
}

// SaveDocuments inserts docs one at a time, satisfying enrichment.Sink so
// the Enrichment Orchestrator (C5) can write straight into this index.
func (idx *Index) SaveDocuments(ctx context.Context, docs []model.Document) error {
	for _, doc := range docs {
		if err := idx.Insert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// GetByFile returns every document persisted for path.
func (idx *Index) GetByFile(ctx context.Context, path string) ([]model.Document, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, document_type, file_path, file_hash, content, source_ids, payload, created_at, enriched_at
		FROM documents WHERE file_path = ?
	`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// DeleteByFile removes every document tied to path from all three
// channels — the reconciliation path spec §4.5/§6 requires on file-hash
// change or file deletion.
func (idx *Index) DeleteByFile(ctx context.Context, path string) error {
	rows, err := idx.db.QueryContext(ctx, "SELECT id FROM documents WHERE file_path = ?", path)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := idx.db.ExecContext(ctx, "DELETE FROM documents WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("delete documents for %s: %w", path, err)
	}
	for _, id := range ids {
		idx.bm25.Remove(id)
	}
	if idx.vectors != nil && len(ids) > 0 {
		if err := idx.vectors.DeleteMany(ctx, ids); err != nil {
			return fmt.Errorf("delete vectors for %s: %w", path, err)
		}
	}
	return nil
}

// Stats reports per-type document counts.
type Stats struct {
	TotalDocuments int
	ByType         map[model.DocumentType]int
}

func (idx *Index) Stats(ctx context.Context) (Stats, error) {
	rows, err := idx.db.QueryContext(ctx, "SELECT document_type, COUNT(*) FROM documents GROUP BY document_type")
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats := Stats{ByType: map[model.DocumentType]int{}}
	for rows.Next() {
		var docType string
		var count int
		if err := rows.Scan(&docType, &count); err != nil {
			return Stats{}, err
		}
		stats.ByType[model.DocumentType(docType)] = count
		stats.TotalDocuments += count
	}
	return stats, rows.Err()
}

// SearchRequest parameterizes Search; Weights defaults to the static RRF
// weights when the caller has no learned override (C9 supplies one).
type SearchRequest struct {
	QueryText   string
	QueryVector []float32
	Limit       int
	DocTypes    []model.DocumentType // empty means no document-type restriction
	ChunkKinds  []model.UnitType     // empty means no restriction; matches code_chunk Payload.ChunkType
	FileBoosts  map[string]float64   // from C9's learned weights
	// TypeWeights overrides the Index's static per-type weighting
	// (config.Search.SearchWeights or C9's blended DocumentTypeWeights);
	// nil falls back to the Index's own typeWeights field.
	TypeWeights map[model.DocumentType]float64
	VectorWeight, BM25Weight float64
}

// ScoredDocument is one fused, boosted search hit.
type ScoredDocument struct {
	Document model.Document
	Score    float64
}

// Search runs the vector and keyword channels, fuses them by RRF, applies
// type weight and learned file boosts, and returns the top Limit hits.
// Per spec §4.8, a store error degrades to an empty result rather than
// propagating — callers treat "no results" and "backend down" alike.
func (idx *Index) Search(ctx context.Context, req SearchRequest) []ScoredDocument {
	vectorWeight, bm25Weight := req.VectorWeight, req.BM25Weight
	if vectorWeight == 0 && bm25Weight == 0 {
		vectorWeight, bm25Weight = model.DefaultVectorWeight, model.DefaultBM25Weight
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 30
	}

	var vectorRanked []string
	if len(req.QueryVector) > 0 && idx.vectors != nil {
		results, err := idx.vectors.Search(ctx, req.QueryVector, limit*3)
		if err == nil {
			for _, r := range results {
				vectorRanked = append(vectorRanked, r.ID)
			}
		}
	}

	var bm25Ranked []string
	if req.QueryText != "" {
		for _, s := range idx.bm25.Search(req.QueryText, limit*3) {
			bm25Ranked = append(bm25Ranked, s.id)
		}
	}

	fused := fuseRRF(vectorRanked, bm25Ranked, vectorWeight, bm25Weight)
	if len(fused) == 0 {
		return nil
	}

	ids := make([]string, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	docs, err := idx.fetchByIDs(ctx, ids)
	if err != nil {
		return nil
	}

	typeFilter := map[model.DocumentType]bool{}
	for _, t := range req.DocTypes {
		typeFilter[t] = true
	}
	chunkKindFilter := map[string]bool{}
	for _, k := range req.ChunkKinds {
		chunkKindFilter[string(k)] = true
	}

	typeWeights := idx.typeWeights
	if req.TypeWeights != nil {
		typeWeights = req.TypeWeights
	}

	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		if len(typeFilter) > 0 && !typeFilter[doc.Type] {
			continue
		}
		if len(chunkKindFilter) > 0 && doc.Type == model.DocCodeChunk && !chunkKindFilter[doc.Payload.ChunkType] {
			continue
		}
		score := fused[doc.ID] * typeWeights[doc.Type]
		if boost, ok := req.FileBoosts[doc.FilePath]; ok {
			score *= boost
		}
		scored = append(scored, ScoredDocument{Document: doc, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (idx *Index) fetchByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT id, document_type, file_path, file_hash, content, source_ids, payload, created_at, enriched_at
		FROM documents WHERE id IN (%s)
	`, strings.Join(placeholders, ","))
	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]model.Document, error) {
	var out []model.Document
	for rows.Next() {
		var doc model.Document
		var docType, sourceIDs, payload string
		var createdAt int64
		var enrichedAt sql.NullInt64
		if err := rows.Scan(&doc.ID, &docType, &doc.FilePath, &doc.FileHash, &doc.Content, &sourceIDs, &payload, &createdAt, &enrichedAt); err != nil {
			return nil, err
		}
		doc.Type = model.DocumentType(docType)
		doc.CreatedAt = time.Unix(createdAt, 0)
		if enrichedAt.Valid {
			t := time.Unix(enrichedAt.Int64, 0)
			doc.EnrichedAt = &t
		}
		_ = json.Unmarshal([]byte(sourceIDs), &doc.SourceIDs)
		_ = json.Unmarshal([]byte(payload), &doc.Payload)
		out = append(out, doc)
	}
	return out, rows.Err()
}
