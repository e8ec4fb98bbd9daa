package store

// schemaV1 creates the index.db tables named in spec §6: files, metadata,
// documents, plus symbols/references which the spec's data model (§3)
// requires but leaves the storage shape to the implementation. Migrations
// are additive — a later version only ever ADDs columns with defaults,
// never drops or renames, per §4.1's "schema migrations apply additively".
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    mtime INTEGER NOT NULL,
    chunk_ids TEXT NOT NULL DEFAULT '[]',
    indexed_at INTEGER NOT NULL,
    enrichment_state TEXT NOT NULL DEFAULT '{}',
    enriched_at INTEGER
);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    document_type TEXT NOT NULL,
    file_path TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    content TEXT NOT NULL,
    source_ids TEXT NOT NULL DEFAULT '[]',
    payload TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    enriched_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_documents_file ON documents(file_path);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);

CREATE TABLE IF NOT EXISTS symbols (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    signature TEXT NOT NULL DEFAULT '',
    docstring TEXT NOT NULL DEFAULT '',
    parent_id TEXT,
    is_exported INTEGER NOT NULL DEFAULT 0,
    language TEXT NOT NULL DEFAULT '',
    pagerank_score REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);

CREATE TABLE IF NOT EXISTS refs (
    from_symbol_id TEXT NOT NULL,
    to_symbol_name TEXT NOT NULL,
    to_symbol_id TEXT,
    kind TEXT NOT NULL,
    file_path TEXT NOT NULL,
    line INTEGER NOT NULL,
    is_resolved INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (from_symbol_id, to_symbol_name, kind)
);
CREATE INDEX IF NOT EXISTS idx_refs_to ON refs(to_symbol_id);

CREATE TABLE IF NOT EXISTS learned_weights (
    use_case TEXT PRIMARY KEY,
    payload TEXT NOT NULL
);
`

// schemaV2 adds the brute-force vector backing table used by the purego
// build of internal/vectorstore. The cgo/sqlite-vec build manages its own
// virtual table independently and never touches this one; both satisfy
// the same vectorstore.Store contract so C6 is indifferent to which is
// active.
const schemaV2 = `
CREATE TABLE IF NOT EXISTS vectors (
    id TEXT PRIMARY KEY,
    vector BLOB NOT NULL
);
`

// schemaV3 adds the benchmark run-state table (C13). One row per run,
// keyed by run id, holding the whole phase state machine as a JSON
// payload so a resumed run can reload {total, completed, is_complete,
// error} per phase without a join.
const schemaV3 = `
CREATE TABLE IF NOT EXISTS benchmark_runs (
    run_id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// migrations lists every schema revision in order. Future revisions are
// appended here and must only add columns/tables.
var migrations = []string{schemaV1, schemaV2, schemaV3}
