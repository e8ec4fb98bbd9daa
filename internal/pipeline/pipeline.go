package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/semindex/internal/config"
	"github.com/standardbeagle/semindex/internal/debug"
	"github.com/standardbeagle/semindex/internal/docindex"
	"github.com/standardbeagle/semindex/internal/enrichment"
	"github.com/standardbeagle/semindex/internal/idgen"
	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/manifest"
	"github.com/standardbeagle/semindex/internal/metrics"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/parser"
	"github.com/standardbeagle/semindex/internal/symbolgraph"
	"github.com/standardbeagle/semindex/internal/symbolstore"
	"github.com/standardbeagle/semindex/internal/tracker"
)

// Pipeline is the C1-C6 ingestion engine. One Pipeline is built per open
// project and reused across both the one-shot CLI run and every watcher
// (C12) callback.
type Pipeline struct {
	cfg        *config.Config
	scanner    *scanner
	tracker    *tracker.Tracker
	symbols    *symbolstore.Store
	index      *docindex.Index
	embedder   llm.Embedder
	extractors []enrichment.Extractor
	metrics    *metrics.Metrics

	vecCacheMu sync.Mutex
	vecCache   map[uint64][]float32
}

// New assembles a Pipeline from its already-opened collaborators.
// extractors may be nil/empty — enrichment then never runs, which is the
// correct behavior for a caller that only wants C1-C4's structural index.
func New(cfg *config.Config, t *tracker.Tracker, ss *symbolstore.Store, idx *docindex.Index, embedder llm.Embedder, extractors []enrichment.Extractor, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		scanner:    newScanner(cfg),
		tracker:    t,
		symbols:    ss,
		index:      idx,
		embedder:   embedder,
		extractors: extractors,
		metrics:    m,
	}
}

// Result summarizes one Ingest call for callers that report progress
// (the CLI's one-shot run and the watcher's per-event log line).
type Result struct {
	New, Modified, Deleted, Unchanged int
	ParseErrors                       int
	SymbolsResolved                   int
}

// Ingest runs a full C1-C6 pass over root: diff against tracked state,
// re-parse and re-extract every new/modified file, delete tracked state
// for removed files, rebuild the project-wide reference graph, and run
// enrichment over whatever is now eligible.
func (p *Pipeline) Ingest(ctx context.Context, root string) (Result, error) {
	paths, err := p.scanner.scan(ctx, root)
	if err != nil {
		return Result{}, err
	}

	diff, err := p.tracker.Diff(ctx, paths)
	if err != nil {
		return Result{}, err
	}

	var result Result
	result.Unchanged = len(diff.Unchanged)

	for _, path := range diff.Deleted {
		if err := p.removeFile(ctx, path); err != nil {
			return result, err
		}
		result.Deleted++
	}

	manifestInfo := manifest.Load(root)

	changed := append(append([]string{}, diff.New...), diff.Modified...)
	var reqs []enrichment.Request
	for _, path := range changed {
		req, parsed, err := p.ingestFile(ctx, path, manifestInfo)
		if err != nil {
			debug.Log("pipeline", "ingest %s failed: %v", path, err)
			result.ParseErrors++
			if lang, ok := parser.LanguageForExt(extOf(path)); ok {
				p.metrics.RecordParseError(lang)
			} else {
				p.metrics.RecordParseError("unknown")
			}
			continue
		}
		if parsed {
			reqs = append(reqs, req)
		}
	}
	result.New = len(diff.New)
	result.Modified = len(diff.Modified)

	resolved, err := p.rebuildGraph(ctx)
	if err != nil {
		return result, err
	}
	result.SymbolsResolved = resolved

	if p.cfg.Enrichment.Enabled && len(reqs) > 0 && len(p.extractors) > 0 {
		orch := enrichment.New(p.tracker, p.index, p.extractors, p.cfg.Performance.ParallelFileWorkers)
		if err := orch.Run(ctx, reqs, p.cfg.Enrichment.Types); err != nil {
			return result, err
		}
	}

	return result, nil
}

// ingestFile parses one file, extracts its CodeUnits, persists the
// code_chunk documents, extracts+persists its symbol/reference set, and
// marks the file indexed. It returns (zero Request, false, nil) for an
// unsupported extension — not an error, per C2's "unsupported extensions
// are skipped" rule.
func (p *Pipeline) ingestFile(ctx context.Context, path string, manifestInfo manifest.Info) (enrichment.Request, bool, error) {
	start := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		return enrichment.Request{}, false, err
	}
	hash := contentHash(source)

	ext := extOf(path)
	pt, ok, err := parser.Parse(ctx, path, ext, source, hash)
	if err != nil {
		return enrichment.Request{}, false, err
	}
	if !ok {
		// Unsupported language: still track the file so its presence is
		// diffed correctly, but it contributes no units/symbols/docs.
		return enrichment.Request{}, false, p.tracker.MarkIndexed(ctx, path, hash, nil)
	}
	defer pt.Close()

	units, err := parser.ExtractUnits(pt)
	if err != nil {
		return enrichment.Request{}, false, err
	}

	if err := p.index.DeleteByFile(ctx, path); err != nil {
		return enrichment.Request{}, false, err
	}

	nameByID := make(map[string]string, len(units))
	for _, u := range units {
		if u.Name != nil {
			nameByID[u.ID] = *u.Name
		}
	}

	var chunkIDs []string
	for _, u := range units {
		if u.UnitType == model.UnitFile {
			continue
		}
		doc := codeChunkDocument(u, nameByID)
		if p.embedder != nil {
			if vec, ok := p.cachedVector(doc.Content); ok {
				doc.Vector = vec
			} else {
				vec, err := p.embedder.Embed(ctx, doc.Content)
				if err == nil {
					doc.Vector = vec
					p.cacheVector(doc.Content, vec)
				}
			}
		}
		if err := p.index.Insert(ctx, doc); err != nil {
			return enrichment.Request{}, false, err
		}
		chunkIDs = append(chunkIDs, doc.ID)
	}

	symbols := symbolgraph.ExtractSymbols(units)
	refs := symbolgraph.ExtractReferences(pt, symbols)
	if err := p.symbols.ReplaceForFile(ctx, path, symbols, refs); err != nil {
		return enrichment.Request{}, false, err
	}

	if err := p.tracker.MarkIndexed(ctx, path, hash, chunkIDs); err != nil {
		return enrichment.Request{}, false, err
	}

	priorDocs, err := p.index.GetByFile(ctx, path)
	if err != nil {
		return enrichment.Request{}, false, err
	}

	p.metrics.RecordFileIndexed(pt.Language, time.Since(start))

	return enrichment.Request{
		FilePath:            path,
		FileHash:            hash,
		Language:            pt.Language,
		Content:             string(source),
		CodeUnits:           units,
		PriorDocs:           priorDocs,
		ProjectName:         manifestInfo.Name,
		ProjectDependencies: manifestInfo.Dependencies,
	}, true, nil
}

// chunkDedupKey returns a fast, non-cryptographic hash of a chunk's
// content for the in-memory embedding cache below. It is a cache key
// only: idgen.Document's sha256 digest remains the document's identity,
// this just lets byte-identical chunks (duplicated boilerplate, vendored
// copies) skip a redundant embedder call within one Ingest run.
func chunkDedupKey(content string) uint64 {
	return xxhash.Sum64String(content)
}

func (p *Pipeline) cachedVector(content string) ([]float32, bool) {
	p.vecCacheMu.Lock()
	defer p.vecCacheMu.Unlock()
	vec, ok := p.vecCache[chunkDedupKey(content)]
	return vec, ok
}

func (p *Pipeline) cacheVector(content string, vec []float32) {
	p.vecCacheMu.Lock()
	defer p.vecCacheMu.Unlock()
	if p.vecCache == nil {
		p.vecCache = make(map[uint64][]float32)
	}
	p.vecCache[chunkDedupKey(content)] = vec
}

// removeFile drops a file's tracked state (cascading to symbols/refs and
// documents, per internal/tracker.Remove) and its document-index entries.
func (p *Pipeline) removeFile(ctx context.Context, path string) error {
	if err := p.index.DeleteByFile(ctx, path); err != nil {
		return err
	}
	return p.tracker.Remove(ctx, path)
}

// rebuildGraph reloads every tracked symbol/reference, resolves names,
// persists resolutions, and recomputes PageRank over the whole project —
// C4 operates on the complete graph, not just the files one Ingest call
// touched, so cross-file callers/callees stay correct under incremental
// indexing.
func (p *Pipeline) rebuildGraph(ctx context.Context) (int, error) {
	symbols, err := p.symbols.AllSymbols(ctx)
	if err != nil {
		return 0, err
	}
	refs, err := p.symbols.AllRefs(ctx)
	if err != nil {
		return 0, err
	}

	bySymbolID := make(map[string]model.SymbolDefinition, len(symbols))
	byName := map[string][]model.SymbolDefinition{}
	for _, s := range symbols {
		bySymbolID[s.ID] = s
		byName[s.Name] = append(byName[s.Name], s)
	}

	// store.Store is single-writer (SetMaxOpenConns(1)); resolving
	// sequentially avoids piling up goroutines that would only serialize
	// on that one connection anyway.
	resolved := symbolgraph.ResolveReferences(refs, bySymbolID, byName)
	resolvedCount := 0
	for _, ref := range resolved {
		if !ref.IsResolved {
			continue
		}
		resolvedCount++
		p.metrics.RecordSymbolResolved(string(ref.Kind))
		if err := p.symbols.ResolveRef(ctx, ref); err != nil {
			return resolvedCount, err
		}
	}

	ids := make([]string, len(symbols))
	for i, s := range symbols {
		ids[i] = s.ID
	}
	graph := symbolgraph.BuildGraph(ids, resolved)
	scores := symbolgraph.PageRank(graph)
	symbolgraph.ApplyScores(symbols, scores)
	if err := p.symbols.UpdatePageRankScores(ctx, scores); err != nil {
		return resolvedCount, err
	}
	return resolvedCount, nil
}

func codeChunkDocument(u model.CodeUnit, nameByID map[string]string) model.Document {
	name := u.Name
	var parentName *string
	if u.ParentID != nil {
		if n, ok := nameByID[*u.ParentID]; ok && n != "" {
			parentName = &n
		}
	}
	sig := u.Signature
	id := idgen.Document(string(model.DocCodeChunk), u.FilePath, derefOr(name, ""), u.Content)
	return model.Document{
		ID:       id,
		Type:     model.DocCodeChunk,
		FilePath: u.FilePath,
		FileHash: u.FileHash,
		Content:  u.Content,
		Payload: model.DocumentPayload{
			StartLine:  u.StartLine,
			EndLine:    u.EndLine,
			ChunkType:  string(u.UnitType),
			Name:       name,
			ParentName: parentName,
			Signature:  &sig,
			Language:   u.Language,
		},
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == os.PathSeparator {
			break
		}
	}
	return ""
}

// contentHash matches internal/tracker's own hashFile algorithm so the
// hash this pipeline writes to files/symbols/documents is the same value
// Diff later recomputes and compares against.
func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
