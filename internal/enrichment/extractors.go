package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/standardbeagle/semindex/internal/idgen"
	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/model"
)

// maxSnippetChars bounds how much of a file's content reaches a single
// prompt, mirroring the truncation retriever.buildRerankPrompt already
// applies per candidate (there 500 chars; a whole-file summary prompt
// affords more).
const maxSnippetChars = 4000

func snippet(s string) string {
	if len(s) <= maxSnippetChars {
		return s
	}
	return s[:maxSnippetChars]
}

func completeJSON(ctx context.Context, l llm.LLM, prompt string, out interface{}) error {
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return l.CompleteJSON(ctx, messages, llm.CompleteOptions{Temperature: 0}, out)
}

// FileSummaryExtractor produces one file_summary document per file,
// describing its responsibilities, exports, dependencies, and patterns.
// It implements BatchExtractor: the orchestrator prefers one combined
// call over N files when ≥2 are ready at once.
type FileSummaryExtractor struct {
	llm llm.LLM
}

func NewFileSummaryExtractor(l llm.LLM) *FileSummaryExtractor {
	return &FileSummaryExtractor{llm: l}
}

func (e *FileSummaryExtractor) DocumentType() model.DocumentType { return model.DocFileSummary }

func (e *FileSummaryExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	results, err := e.ExtractBatch(ctx, []Request{req})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

type fileSummaryResp struct {
	Summary          string   `json:"summary"`
	Responsibilities []string `json:"responsibilities"`
	Exports          []string `json:"exports"`
	Dependencies     []string `json:"dependencies"`
	Patterns         []string `json:"patterns"`
}

func (e *FileSummaryExtractor) ExtractBatch(ctx context.Context, reqs []Request) ([][]model.Document, error) {
	var b strings.Builder
	b.WriteString("For each file below, summarize its purpose. Reply as JSON " +
		`{"files": [{"summary": "...", "responsibilities": ["..."], "exports": ["..."], "dependencies": ["..."], "patterns": ["..."]}]}` +
		" with one entry per file, in the same order.\n\n")
	for i, r := range reqs {
		fmt.Fprintf(&b, "--- file %d: %s ---\n%s\n\n", i, r.FilePath, snippet(r.Content))
	}

	var parsed struct {
		Files []fileSummaryResp `json:"files"`
	}
	if err := completeJSON(ctx, e.llm, b.String(), &parsed); err != nil {
		return nil, err
	}

	out := make([][]model.Document, len(reqs))
	for i, r := range reqs {
		if i >= len(parsed.Files) {
			out[i] = nil
			continue
		}
		fs := parsed.Files[i]
		out[i] = []model.Document{{
			ID:       idgen.Document(string(model.DocFileSummary), r.FilePath, "", r.FileHash),
			Type:     model.DocFileSummary,
			FilePath: r.FilePath,
			FileHash: r.FileHash,
			Content:  fs.Summary,
			Payload: model.DocumentPayload{
				Summary:          fs.Summary,
				Responsibilities: fs.Responsibilities,
				Exports:          fs.Exports,
				Dependencies:     fs.Dependencies,
				Patterns:         fs.Patterns,
				Language:         r.Language,
			},
		}}
	}
	return out, nil
}

// SymbolSummaryExtractor produces one symbol_summary document per
// exported function/method in a file. It batches across files in one
// call, the same way FileSummaryExtractor does, since a per-symbol call
// would multiply request volume by the average symbol count per file.
type SymbolSummaryExtractor struct {
	llm llm.LLM
}

func NewSymbolSummaryExtractor(l llm.LLM) *SymbolSummaryExtractor {
	return &SymbolSummaryExtractor{llm: l}
}

func (e *SymbolSummaryExtractor) DocumentType() model.DocumentType { return model.DocSymbolSummary }

func (e *SymbolSummaryExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	results, err := e.ExtractBatch(ctx, []Request{req})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

type symbolSummaryResp struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Parameters   []parameterDoc `json:"parameters"`
	Returns      string         `json:"returns"`
	SideEffects  []string       `json:"side_effects"`
	UsageContext string         `json:"usage_context"`
}

type parameterDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func exportedCallables(units []model.CodeUnit) []model.CodeUnit {
	var out []model.CodeUnit
	for _, u := range units {
		if (u.UnitType == model.UnitFunction || u.UnitType == model.UnitMethod) && u.Metadata.IsExported {
			out = append(out, u)
		}
	}
	return out
}

func (e *SymbolSummaryExtractor) ExtractBatch(ctx context.Context, reqs []Request) ([][]model.Document, error) {
	type target struct {
		reqIdx int
		unit   model.CodeUnit
	}
	var targets []target
	var b strings.Builder
	b.WriteString("For each exported function/method below, describe what it does. Reply as JSON " +
		`{"symbols": [{"name": "...", "description": "...", "parameters": [{"name": "...", "description": "..."}], "returns": "...", "side_effects": ["..."], "usage_context": "..."}]}` +
		" with one entry per symbol, in the same order.\n\n")
	for ri, r := range reqs {
		for _, u := range exportedCallables(r.CodeUnits) {
			targets = append(targets, target{reqIdx: ri, unit: u})
			name := ""
			if u.Name != nil {
				name = *u.Name
			}
			fmt.Fprintf(&b, "--- %s (%s) ---\n%s\n\n", name, r.FilePath, snippet(u.Content))
		}
	}
	if len(targets) == 0 {
		return make([][]model.Document, len(reqs)), nil
	}

	var parsed struct {
		Symbols []symbolSummaryResp `json:"symbols"`
	}
	if err := completeJSON(ctx, e.llm, b.String(), &parsed); err != nil {
		return nil, err
	}

	out := make([][]model.Document, len(reqs))
	for i, t := range targets {
		if i >= len(parsed.Symbols) {
			continue
		}
		ss := parsed.Symbols[i]
		name := ""
		if t.unit.Name != nil {
			name = *t.unit.Name
		}
		returns := ss.Returns
		var usage *string
		if ss.UsageContext != "" {
			usage = &ss.UsageContext
		}
		params := make([]model.ParameterDoc, len(ss.Parameters))
		for pi, p := range ss.Parameters {
			params[pi] = model.ParameterDoc{Name: p.Name, Description: p.Description}
		}
		doc := model.Document{
			ID:       idgen.Document(string(model.DocSymbolSummary), t.unit.FilePath, name, t.unit.Content),
			Type:     model.DocSymbolSummary,
			FilePath: t.unit.FilePath,
			FileHash: t.unit.FileHash,
			Content:  ss.Description,
			Payload: model.DocumentPayload{
				SymbolName:   name,
				SymbolType:   string(t.unit.UnitType),
				Parameters:   params,
				ReturnDesc:   strPtrOrNil(returns),
				SideEffects:  ss.SideEffects,
				UsageContext: usage,
			},
		}
		out[t.reqIdx] = append(out[t.reqIdx], doc)
	}
	return out, nil
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// findPriorDoc returns the first prior document of docType for req, if
// any — used by dependents to pull in their prerequisite's text rather
// than re-deriving it.
func findPriorDoc(req Request, docType model.DocumentType) (model.Document, bool) {
	for _, d := range req.PriorDocs {
		if d.Type == docType {
			return d, true
		}
	}
	return model.Document{}, false
}

// foundPatternResp is the common shape for the three "does this file
// exhibit X" extractors (idiom, anti_pattern) and the usage-example
// generator below: the LLM may legitimately find nothing, which is not
// an error — it just yields zero documents for this file.
type foundPatternResp struct {
	Found       bool     `json:"found"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CodeSample  string   `json:"code_sample"`
	Tags        []string `json:"tags"`
}

func patternDocument(docType model.DocumentType, req Request, r foundPatternResp) model.Document {
	return model.Document{
		ID:       idgen.Document(string(docType), req.FilePath, r.Title, req.FileHash),
		Type:     docType,
		FilePath: req.FilePath,
		FileHash: req.FileHash,
		Content:  r.Title + ": " + r.Description,
		Payload: model.DocumentPayload{
			Title:       r.Title,
			Description: r.Description,
			CodeSample:  r.CodeSample,
			Tags:        r.Tags,
		},
	}
}

// IdiomExtractor looks for one notable language/library idiom per file,
// using its file_summary (when already produced this pass) for context.
type IdiomExtractor struct{ llm llm.LLM }

func NewIdiomExtractor(l llm.LLM) *IdiomExtractor { return &IdiomExtractor{llm: l} }

func (e *IdiomExtractor) DocumentType() model.DocumentType { return model.DocIdiom }

func (e *IdiomExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	fileContext := ""
	if fs, ok := findPriorDoc(req, model.DocFileSummary); ok {
		fileContext = fs.Payload.Summary
	}
	prompt := fmt.Sprintf("Does this file demonstrate one notable, reusable language or library idiom "+
		"(not a generic pattern)? File summary: %s\n\nCode:\n%s\n\n"+
		`Reply as JSON {"found": bool, "title": "...", "description": "...", "code_sample": "...", "tags": ["..."]}. Set found=false if nothing stands out.`,
		fileContext, snippet(req.Content))

	var resp foundPatternResp
	if err := completeJSON(ctx, e.llm, prompt, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return []model.Document{patternDocument(model.DocIdiom, req, resp)}, nil
}

// AntiPatternExtractor looks for one notable anti-pattern per file.
type AntiPatternExtractor struct{ llm llm.LLM }

func NewAntiPatternExtractor(l llm.LLM) *AntiPatternExtractor { return &AntiPatternExtractor{llm: l} }

func (e *AntiPatternExtractor) DocumentType() model.DocumentType { return model.DocAntiPattern }

func (e *AntiPatternExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	prompt := fmt.Sprintf("Does this file contain one notable anti-pattern or code smell worth flagging?\n\nCode:\n%s\n\n"+
		`Reply as JSON {"found": bool, "title": "...", "description": "...", "code_sample": "...", "tags": ["..."]}. Set found=false if nothing stands out.`,
		snippet(req.Content))

	var resp foundPatternResp
	if err := completeJSON(ctx, e.llm, prompt, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return []model.Document{patternDocument(model.DocAntiPattern, req, resp)}, nil
}

// UsageExampleExtractor asks for one representative call-site example
// per file, grounded on its symbol_summary docs when available.
type UsageExampleExtractor struct{ llm llm.LLM }

func NewUsageExampleExtractor(l llm.LLM) *UsageExampleExtractor { return &UsageExampleExtractor{llm: l} }

func (e *UsageExampleExtractor) DocumentType() model.DocumentType { return model.DocUsageExample }

func (e *UsageExampleExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	var symbolNames []string
	for _, d := range req.PriorDocs {
		if d.Type == model.DocSymbolSummary {
			symbolNames = append(symbolNames, d.Payload.SymbolName)
		}
	}
	prompt := fmt.Sprintf("Write one realistic usage example for a function or method exported from this file "+
		"(candidates: %s). Show a short call-site snippet.\n\nCode:\n%s\n\n"+
		`Reply as JSON {"found": bool, "title": "...", "description": "...", "code_sample": "...", "tags": ["..."]}. Set found=false if the file exports nothing worth exemplifying.`,
		strings.Join(symbolNames, ", "), snippet(req.Content))

	var resp foundPatternResp
	if err := completeJSON(ctx, e.llm, prompt, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return []model.Document{patternDocument(model.DocUsageExample, req, resp)}, nil
}

// ProjectDocExtractor produces a short "how this file fits into the
// project" blurb, one per file. The only whole-project context it gets
// is the Request's ProjectName/ProjectDependencies (the parsed dependency
// manifest); it produces no single project-level document.
type ProjectDocExtractor struct{ llm llm.LLM }

func NewProjectDocExtractor(l llm.LLM) *ProjectDocExtractor { return &ProjectDocExtractor{llm: l} }

func (e *ProjectDocExtractor) DocumentType() model.DocumentType { return model.DocProjectDoc }

func (e *ProjectDocExtractor) Extract(ctx context.Context, req Request) ([]model.Document, error) {
	summary := ""
	if fs, ok := findPriorDoc(req, model.DocFileSummary); ok {
		summary = fs.Payload.Summary
	}
	idiomNote := ""
	if id, ok := findPriorDoc(req, model.DocIdiom); ok {
		idiomNote = id.Payload.Title
	}
	projectContext := req.ProjectName
	if len(req.ProjectDependencies) > 0 {
		projectContext = fmt.Sprintf("%s (depends on: %s)", projectContext, strings.Join(req.ProjectDependencies, ", "))
	}
	prompt := fmt.Sprintf("Write a short project-documentation blurb for file %s, part of project %s, given its "+
		"summary (%s) and notable idiom (%s).\n\n"+
		`Reply as JSON {"found": bool, "title": "...", "description": "...", "code_sample": "...", "tags": ["..."]}. Set found=true unless the file is too trivial to document.`,
		req.FilePath, projectContext, summary, idiomNote)

	var resp foundPatternResp
	if err := completeJSON(ctx, e.llm, prompt, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return []model.Document{patternDocument(model.DocProjectDoc, req, resp)}, nil
}

// BuildExtractors constructs one Extractor per requested document type
// that has an LLM-backed implementation, skipping any type with no
// extractor (externally-sourced types, or code_chunk which the pipeline
// populates directly). A nil LLM yields a nil slice: callers
// without an LLM configured get C1-C4's structural index only, per
// Pipeline.New's documented nil-extractors behavior.
func BuildExtractors(l llm.LLM, types []model.DocumentType) []Extractor {
	if l == nil {
		return nil
	}
	var out []Extractor
	for _, t := range types {
		switch t {
		case model.DocFileSummary:
			out = append(out, NewFileSummaryExtractor(l))
		case model.DocSymbolSummary:
			out = append(out, NewSymbolSummaryExtractor(l))
		case model.DocIdiom:
			out = append(out, NewIdiomExtractor(l))
		case model.DocUsageExample:
			out = append(out, NewUsageExampleExtractor(l))
		case model.DocAntiPattern:
			out = append(out, NewAntiPatternExtractor(l))
		case model.DocProjectDoc:
			out = append(out, NewProjectDocExtractor(l))
		}
	}
	return out
}
