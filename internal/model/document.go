package model

import "time"

// DocumentType is the closed enumeration of indexable record shapes (spec
// §1 non-goal: "not a general document store").
type DocumentType string

const (
	DocCodeChunk      DocumentType = "code_chunk"
	DocFileSummary     DocumentType = "file_summary"
	DocSymbolSummary   DocumentType = "symbol_summary"
	DocIdiom           DocumentType = "idiom"
	DocUsageExample    DocumentType = "usage_example"
	DocAntiPattern     DocumentType = "anti_pattern"
	DocProjectDoc      DocumentType = "project_doc"
	DocFrameworkDoc    DocumentType = "framework_doc"
	DocBestPractice    DocumentType = "best_practice"
	DocAPIReference    DocumentType = "api_reference"
)

// Dependencies returns the document types that must be complete before
// this type may be extracted for a file, per the §3 dependency DAG.
// code_chunk and the three externally-sourced types have no dependencies.
func (t DocumentType) Dependencies() []DocumentType {
	switch t {
	case DocFileSummary:
		return []DocumentType{DocCodeChunk}
	case DocSymbolSummary:
		return []DocumentType{DocCodeChunk}
	case DocIdiom:
		return []DocumentType{DocCodeChunk, DocFileSummary}
	case DocUsageExample:
		return []DocumentType{DocCodeChunk, DocSymbolSummary}
	case DocAntiPattern:
		return []DocumentType{DocCodeChunk}
	case DocProjectDoc:
		return []DocumentType{DocFileSummary, DocIdiom}
	default:
		return nil
	}
}

// IsExternallySourced reports whether a type is populated from outside the
// enrichment pipeline (no internal dependency, per §4.5).
func (t DocumentType) IsExternallySourced() bool {
	switch t {
	case DocFrameworkDoc, DocBestPractice, DocAPIReference:
		return true
	default:
		return false
	}
}

// Document is the tagged union persisted by the Typed Document Index
// (C6). Only the fields relevant to Type are populated; retrieval
// channels carry the header (everything above Payload) and the renderer
// switches on Type.
type Document struct {
	ID          string
	Type        DocumentType
	FilePath    string
	FileHash    string
	Content     string // embedded + BM25-indexed text
	SourceIDs   []string
	CreatedAt   time.Time
	EnrichedAt  *time.Time
	Vector      []float32

	Payload DocumentPayload
}

// DocumentPayload holds the specialisation fields for every document
// type. Only the fields matching Document.Type are meaningful; this
// mirrors the teacher's tagged-union pattern for parser BlockBoundary
// types, generalised to enrichment documents.
type DocumentPayload struct {
	// code_chunk
	StartLine  int
	EndLine    int
	ChunkType  string
	Name       *string
	ParentName *string
	Signature  *string

	// file_summary
	Summary          string
	Responsibilities []string
	Exports          []string
	Dependencies     []string
	Patterns         []string
	Language         string

	// symbol_summary
	SymbolName      string
	SymbolType      string
	Parameters      []ParameterDoc
	ReturnDesc      *string
	SideEffects     []string
	UsageContext    *string

	// idiom | usage_example | anti_pattern | project_doc | framework_doc |
	// best_practice | api_reference: a small free-form structured payload,
	// each keyed by the type's own convention.
	Title       string
	Description string
	CodeSample  string
	Tags        []string
}

// ParameterDoc documents one parameter of a symbol_summary.
type ParameterDoc struct {
	Name        string
	Description string
}
