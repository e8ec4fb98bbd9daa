package model

import "time"

// EnrichmentStatus is the per-(file, doc type) state tracked by the File
// Tracker (C1) and consulted by the Enrichment Orchestrator (C5).
type EnrichmentStatus string

const (
	EnrichmentPending    EnrichmentStatus = "pending"
	EnrichmentInProgress EnrichmentStatus = "in_progress"
	EnrichmentComplete   EnrichmentStatus = "complete"
	EnrichmentFailed     EnrichmentStatus = "failed"
)

// FileState is the ownership unit in the tracker: one row per ingested
// file, cascading to its chunks and documents on removal.
type FileState struct {
	Path             string
	ContentHash      string
	Mtime            time.Time
	ChunkIDs         []string
	IndexedAt        time.Time
	EnrichmentState  map[DocumentType]EnrichmentStatus
	EnrichedAt       *time.Time
}

// NeedsEnrichment reports whether docType is not yet complete for this
// file, per §4.1's contract.
func (f *FileState) NeedsEnrichment(docType DocumentType) bool {
	if f.EnrichmentState == nil {
		return true
	}
	return f.EnrichmentState[docType] != EnrichmentComplete
}

// ResetEnrichment marks every tracked type pending; called whenever a
// file's content changes (§4.1: "modifying a file resets all enrichment
// states to pending").
func (f *FileState) ResetEnrichment() {
	for t := range f.EnrichmentState {
		f.EnrichmentState[t] = EnrichmentPending
	}
}

// DiffResult is the output of File Tracker's diff operation.
type DiffResult struct {
	New      []string
	Modified []string
	Deleted  []string
	Unchanged []string
}
