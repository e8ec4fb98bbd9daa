package enrichment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/model"
)

type fakeLLM struct {
	response string
	calls    int
}

func (f *fakeLLM) Complete(_ context.Context, _ []llm.Message, _ llm.CompleteOptions) (*llm.Completion, error) {
	return &llm.Completion{Content: f.response}, nil
}

func (f *fakeLLM) CompleteJSON(_ context.Context, _ []llm.Message, _ llm.CompleteOptions, out interface{}) error {
	f.calls++
	return json.Unmarshal([]byte(f.response), out)
}

func (f *fakeLLM) Model() string { return "fake" }

func strp(s string) *string { return &s }

func TestFileSummaryExtractorBatchProducesOneDocPerFile(t *testing.T) {
	fake := &fakeLLM{response: `{"files": [
		{"summary": "handles auth", "responsibilities": ["validate tokens"], "exports": ["ValidateToken"], "dependencies": [], "patterns": ["middleware"]},
		{"summary": "handles storage", "responsibilities": ["persist rows"], "exports": ["Save"], "dependencies": [], "patterns": []}
	]}`}
	e := NewFileSummaryExtractor(fake)

	reqs := []Request{
		{FilePath: "auth.go", FileHash: "h1", Content: "package auth"},
		{FilePath: "store.go", FileHash: "h2", Content: "package store"},
	}
	out, err := e.ExtractBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "handles auth", out[0][0].Payload.Summary)
	require.Equal(t, "handles storage", out[1][0].Payload.Summary)
	require.Equal(t, 1, fake.calls)
}

func TestSymbolSummaryExtractorSkipsFilesWithNoExportedCallables(t *testing.T) {
	fake := &fakeLLM{response: `{"symbols": []}`}
	e := NewSymbolSummaryExtractor(fake)

	req := Request{FilePath: "helpers.go", CodeUnits: []model.CodeUnit{
		{UnitType: model.UnitFunction, Name: strp("helper"), Metadata: model.UnitMetadata{IsExported: false}},
	}}
	out, err := e.Extract(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, 0, fake.calls)
}

func TestSymbolSummaryExtractorDescribesExportedFunction(t *testing.T) {
	fake := &fakeLLM{response: `{"symbols": [
		{"name": "ValidateToken", "description": "checks a bearer token", "parameters": [{"name": "tok", "description": "the token"}], "returns": "error", "side_effects": [], "usage_context": "middleware"}
	]}`}
	e := NewSymbolSummaryExtractor(fake)

	req := Request{FilePath: "auth.go", CodeUnits: []model.CodeUnit{
		{UnitType: model.UnitFunction, Name: strp("ValidateToken"), FilePath: "auth.go", Content: "func ValidateToken() error", Metadata: model.UnitMetadata{IsExported: true}},
	}}
	out, err := e.Extract(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "ValidateToken", out[0].Payload.SymbolName)
	require.Equal(t, "checks a bearer token", out[0].Content)
}

func TestIdiomExtractorReturnsNoDocumentWhenNotFound(t *testing.T) {
	fake := &fakeLLM{response: `{"found": false}`}
	e := NewIdiomExtractor(fake)

	docs, err := e.Extract(context.Background(), Request{FilePath: "plain.go", Content: "package plain"})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestAntiPatternExtractorProducesDocumentWhenFound(t *testing.T) {
	fake := &fakeLLM{response: `{"found": true, "title": "god object", "description": "does too much", "code_sample": "type X struct{}", "tags": ["smell"]}`}
	e := NewAntiPatternExtractor(fake)

	docs, err := e.Extract(context.Background(), Request{FilePath: "big.go", FileHash: "h", Content: "package big"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, model.DocAntiPattern, docs[0].Type)
	require.Equal(t, "god object", docs[0].Payload.Title)
}

func TestProjectDocExtractorUsesPriorFileSummary(t *testing.T) {
	fake := &fakeLLM{response: `{"found": true, "title": "auth module", "description": "validates requests", "code_sample": "", "tags": []}`}
	e := NewProjectDocExtractor(fake)

	req := Request{
		FilePath: "auth.go",
		PriorDocs: []model.Document{
			{Type: model.DocFileSummary, Payload: model.DocumentPayload{Summary: "handles auth"}},
		},
	}
	docs, err := e.Extract(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "auth module", docs[0].Payload.Title)
}
