package enrichment

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
	"github.com/standardbeagle/semindex/internal/tracker"
)

func newTestOrchestrator(t *testing.T, extractors []Extractor) (*Orchestrator, *tracker.Tracker, *fakeSink) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	tr := tracker.New(s)
	sink := &fakeSink{}
	return New(tr, sink, extractors, 4), tr, sink
}

type fakeSink struct {
	mu   sync.Mutex
	docs []model.Document
}

func (f *fakeSink) SaveDocuments(_ context.Context, docs []model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

type fakeExtractor struct {
	docType model.DocumentType
	fail    map[string]bool
}

func (e *fakeExtractor) DocumentType() model.DocumentType { return e.docType }

func (e *fakeExtractor) Extract(_ context.Context, req Request) ([]model.Document, error) {
	if e.fail[req.FilePath] {
		return nil, fmt.Errorf("boom: %s", req.FilePath)
	}
	return []model.Document{{Type: e.docType, FilePath: req.FilePath, Content: "doc for " + req.FilePath}}, nil
}

type fakeBatchExtractor struct {
	fakeExtractor
	batchCalls int
	batchErr   error
}

func (e *fakeBatchExtractor) ExtractBatch(_ context.Context, reqs []Request) ([][]model.Document, error) {
	e.batchCalls++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]model.Document, len(reqs))
	for i, r := range reqs {
		out[i] = []model.Document{{Type: e.docType, FilePath: r.FilePath, Content: "batched " + r.FilePath}}
	}
	return out, nil
}

func mustTrack(t *testing.T, tr *tracker.Tracker, path string) {
	t.Helper()
	require.NoError(t, tr.MarkIndexed(context.Background(), path, "hash-"+path, nil))
}

func TestRunRespectsDependencyOrder(t *testing.T) {
	chunkExtractor := &fakeExtractor{docType: model.DocCodeChunk}
	summaryExtractor := &fakeExtractor{docType: model.DocFileSummary}
	orch, tr, sink := newTestOrchestrator(t, []Extractor{chunkExtractor, summaryExtractor})

	ctx := context.Background()
	mustTrack(t, tr, "a.go")

	err := orch.Run(ctx, []Request{{FilePath: "a.go"}}, []model.DocumentType{model.DocFileSummary})
	require.NoError(t, err)
	require.Equal(t, 2, sink.count())

	state, err := tr.EnrichmentState(ctx, "a.go")
	require.NoError(t, err)
	require.Equal(t, model.EnrichmentComplete, state[model.DocCodeChunk])
	require.Equal(t, model.EnrichmentComplete, state[model.DocFileSummary])
}

func TestRunMarksPerItemFailureWithoutBlockingOthers(t *testing.T) {
	chunkExtractor := &fakeExtractor{docType: model.DocCodeChunk, fail: map[string]bool{"bad.go": true}}
	orch, tr, sink := newTestOrchestrator(t, []Extractor{chunkExtractor})

	ctx := context.Background()
	mustTrack(t, tr, "good.go")
	mustTrack(t, tr, "bad.go")

	err := orch.Run(ctx, []Request{{FilePath: "good.go"}, {FilePath: "bad.go"}}, []model.DocumentType{model.DocCodeChunk})
	require.NoError(t, err)
	require.Equal(t, 1, sink.count())

	goodState, err := tr.EnrichmentState(ctx, "good.go")
	require.NoError(t, err)
	require.Equal(t, model.EnrichmentComplete, goodState[model.DocCodeChunk])

	badState, err := tr.EnrichmentState(ctx, "bad.go")
	require.NoError(t, err)
	require.Equal(t, model.EnrichmentFailed, badState[model.DocCodeChunk])
}

func TestRunUsesBatchPathWhenEnoughItemsReady(t *testing.T) {
	batch := &fakeBatchExtractor{fakeExtractor: fakeExtractor{docType: model.DocFileSummary}}
	chunkExtractor := &fakeExtractor{docType: model.DocCodeChunk}
	orch, tr, sink := newTestOrchestrator(t, []Extractor{chunkExtractor, batch})

	ctx := context.Background()
	mustTrack(t, tr, "a.go")
	mustTrack(t, tr, "b.go")

	err := orch.Run(ctx, []Request{{FilePath: "a.go"}, {FilePath: "b.go"}}, []model.DocumentType{model.DocFileSummary})
	require.NoError(t, err)
	require.Equal(t, 1, batch.batchCalls)
	require.Equal(t, 4, sink.count()) // 2 code_chunk + 2 file_summary
}

func TestRunFallsBackToPerItemWhenBatchFails(t *testing.T) {
	batch := &fakeBatchExtractor{fakeExtractor: fakeExtractor{docType: model.DocFileSummary}, batchErr: fmt.Errorf("provider down")}
	chunkExtractor := &fakeExtractor{docType: model.DocCodeChunk}
	orch, tr, sink := newTestOrchestrator(t, []Extractor{chunkExtractor, batch})

	ctx := context.Background()
	mustTrack(t, tr, "a.go")
	mustTrack(t, tr, "b.go")

	err := orch.Run(ctx, []Request{{FilePath: "a.go"}, {FilePath: "b.go"}}, []model.DocumentType{model.DocFileSummary})
	require.NoError(t, err)
	require.Equal(t, 1, batch.batchCalls)

	state, err := tr.EnrichmentState(ctx, "a.go")
	require.NoError(t, err)
	require.Equal(t, model.EnrichmentComplete, state[model.DocFileSummary])
}
