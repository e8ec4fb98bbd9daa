// Package enrichment implements the Enrichment Orchestrator (C5): for a
// set of files and a configured set of target document types, it produces
// every document whose enrichment state is not yet complete, honoring the
// document-type dependency DAG (model.DocumentType.Dependencies) and
// preferring batched extraction when the corpus allows it.
package enrichment

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/semindex/internal/debug"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/tracker"
)

// Request is the input an extractor receives for one file.
type Request struct {
	FilePath  string
	FileHash  string
	Language  string
	Content   string
	CodeUnits []model.CodeUnit
	PriorDocs []model.Document

	// ProjectName/ProjectDependencies carry the C12 dependency-manifest
	// parse (internal/manifest) for the whole project, not just this
	// file — the only whole-project context a per-file Request affords,
	// used by ProjectDocExtractor to ground its blurb in what the
	// project actually depends on.
	ProjectName         string
	ProjectDependencies []string
}

// Extractor produces zero or more documents of its type for one file.
type Extractor interface {
	DocumentType() model.DocumentType
	Extract(ctx context.Context, req Request) ([]model.Document, error)
}

// BatchExtractor is implemented by extractors (file_summary, symbol_summary)
// that support processing multiple files in a single underlying call.
// The orchestrator selects this path when ≥2 items of the type are ready
// simultaneously, falling back to Extractor.Extract per item on failure.
type BatchExtractor interface {
	Extractor
	ExtractBatch(ctx context.Context, reqs []Request) ([][]model.Document, error)
}

// Sink persists the documents an extractor produces (the orchestrator
// itself records enrichment outcomes in the File Tracker) — kept as an
// interface so the orchestrator has no direct dependency on the document
// index.
type Sink interface {
	SaveDocuments(ctx context.Context, docs []model.Document) error
}

// Orchestrator runs C5's scheduling loop.
type Orchestrator struct {
	tracker        *tracker.Tracker
	sink           Sink
	extractors     map[model.DocumentType]Extractor
	maxConcurrency int
}

// New constructs an Orchestrator. extractors is keyed by the document type
// each one produces; maxConcurrency bounds per-type item-level parallelism.
func New(t *tracker.Tracker, sink Sink, extractors []Extractor, maxConcurrency int) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	byType := make(map[model.DocumentType]Extractor, len(extractors))
	for _, e := range extractors {
		byType[e.DocumentType()] = e
	}
	return &Orchestrator{tracker: t, sink: sink, extractors: byType, maxConcurrency: maxConcurrency}
}

// Run enrichs every file in reqs for every configured target type,
// processing types in dependency order so a type's prerequisites are
// always complete for a file before that file becomes eligible for it.
func (o *Orchestrator) Run(ctx context.Context, reqs []Request, targetTypes []model.DocumentType) error {
	order := topologicalOrder(targetTypes)
	byPath := make(map[string]Request, len(reqs))
	for _, r := range reqs {
		byPath[r.FilePath] = r
	}

	for _, docType := range order {
		extractor, ok := o.extractors[docType]
		if !ok {
			continue
		}

		ready, err := o.readyFiles(ctx, reqs, docType)
		if err != nil {
			return err
		}
		if len(ready) == 0 {
			continue
		}

		var readyReqs []Request
		for _, path := range ready {
			readyReqs = append(readyReqs, byPath[path])
		}

		if batch, ok := extractor.(BatchExtractor); ok && len(readyReqs) >= 2 {
			if err := o.runBatch(ctx, batch, readyReqs); err == nil {
				continue
			}
			debug.Log("enrichment", "batch extraction failed for %s, falling back to per-item", docType)
		}

		if err := o.runPerItem(ctx, extractor, readyReqs); err != nil {
			return err
		}
	}
	return nil
}

// readyFiles returns the subset of reqs whose docType is not yet complete
// and whose dependency types are all complete.
func (o *Orchestrator) readyFiles(ctx context.Context, reqs []Request, docType model.DocumentType) ([]string, error) {
	deps := docType.Dependencies()
	var out []string
	for _, r := range reqs {
		state, err := o.tracker.EnrichmentState(ctx, r.FilePath)
		if err != nil {
			return nil, err
		}
		if state[docType] == model.EnrichmentComplete {
			continue
		}
		ready := true
		for _, dep := range deps {
			if state[dep] != model.EnrichmentComplete {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, r.FilePath)
		}
	}
	return out, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, extractor BatchExtractor, reqs []Request) error {
	docType := extractor.DocumentType()
	for _, r := range reqs {
		_ = o.tracker.SetEnrichment(ctx, r.FilePath, docType, model.EnrichmentInProgress)
	}

	results, err := extractor.ExtractBatch(ctx, reqs)
	if err != nil {
		return err
	}

	for i, r := range reqs {
		var docs []model.Document
		if i < len(results) {
			docs = results[i]
		}
		if err := o.sink.SaveDocuments(ctx, docs); err != nil {
			_ = o.tracker.SetEnrichment(ctx, r.FilePath, docType, model.EnrichmentFailed)
			continue
		}
		_ = o.tracker.SetEnrichment(ctx, r.FilePath, docType, model.EnrichmentComplete)
	}
	return nil
}

// runPerItem processes reqs with bounded concurrency via an errgroup and a
// semaphore channel (the pack's worker-pool idiom). A per-item failure is
// caught, recorded as `failed` for that (file, type), and does not abort
// the other items — per spec §4.5's failure rule.
func (o *Orchestrator) runPerItem(ctx context.Context, extractor Extractor, reqs []Request) error {
	docType := extractor.DocumentType()
	sem := make(chan struct{}, o.maxConcurrency)
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, r := range reqs {
		r := r
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			_ = o.tracker.SetEnrichment(gctx, r.FilePath, docType, model.EnrichmentInProgress)
			docs, err := extractor.Extract(gctx, r)
			if err != nil {
				debug.Log("enrichment", "extract %s for %s failed: %v", docType, r.FilePath, err)
				_ = o.tracker.SetEnrichment(gctx, r.FilePath, docType, model.EnrichmentFailed)
				return nil
			}

			mu.Lock()
			saveErr := o.sink.SaveDocuments(gctx, docs)
			mu.Unlock()
			if saveErr != nil {
				_ = o.tracker.SetEnrichment(gctx, r.FilePath, docType, model.EnrichmentFailed)
				return nil
			}
			_ = o.tracker.SetEnrichment(gctx, r.FilePath, docType, model.EnrichmentComplete)
			return nil
		})
	}
	return g.Wait()
}

// topologicalOrder orders targetTypes (plus anything they transitively
// depend on) so every type appears after its dependencies.
func topologicalOrder(targetTypes []model.DocumentType) []model.DocumentType {
	visited := map[model.DocumentType]bool{}
	var order []model.DocumentType

	var visit func(t model.DocumentType)
	visit = func(t model.DocumentType) {
		if visited[t] {
			return
		}
		visited[t] = true
		deps := append([]model.DocumentType{}, t.Dependencies()...)
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
		for _, dep := range deps {
			visit(dep)
		}
		order = append(order, t)
	}
	for _, t := range targetTypes {
		visit(t)
	}
	return order
}
