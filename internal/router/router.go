// Package router implements the Query Router (C7): a cheap rule-based
// intent classifier with an optional LLM fallback, and the strategy
// table that turns an intent into retrieval parameters for C8.
package router

import (
	"context"
	"regexp"
	"strings"

	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/model"
)

// Intent is the closed classification set.
type Intent string

const (
	IntentSymbolLookup Intent = "symbol_lookup"
	IntentStructural   Intent = "structural"
	IntentLocation     Intent = "location"
	IntentSimilarity   Intent = "similarity"
	IntentSemantic     Intent = "semantic" // default
)

// PrimaryChannel is the retrieval channel a Strategy steers toward.
type PrimaryChannel string

const (
	ChannelSymbolKeyword  PrimaryChannel = "symbol_keyword"
	ChannelKeywordHybrid  PrimaryChannel = "keyword_hybrid"
	ChannelPathFilter     PrimaryChannel = "path_filter"
	ChannelVectorHybrid   PrimaryChannel = "vector_hybrid"
)

// Strategy is C7's output: how C8 should search for this query.
type Strategy struct {
	Intent       Intent
	Primary      PrimaryChannel
	UnitTypes    []model.UnitType
	VectorWeight float64
	BM25Weight   float64
	Entities     Entities
}

// Entities are extracted hints a downstream retriever applies as filters.
type Entities struct {
	NameHint  string   // candidate symbol name, for symbol_lookup
	PathHints []string // folder/extension hints, for location
}

const defaultMinConfidence = 0.6

var (
	pascalOrCamel  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	symbolKeyword  = regexp.MustCompile(`(?i)\b(function|class|type|interface|enum|def|func)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	structuralWord = regexp.MustCompile(`(?i)\b(calls|invokes|uses|imports|extends|implements|inherits|depends|callers|callees|dependencies|dependents|methods (in|of|on))\b`)
	structuralWh   = regexp.MustCompile(`(?i)\b(what|who)\s+(calls|uses|imports)\b`)
	locationPhrase = regexp.MustCompile(`(?i)\b(in the .+ folder|tests?/specs? for)\b`)
	fileExtension  = regexp.MustCompile(`\.[A-Za-z]{1,5}\b`)
	similarityWord = regexp.MustCompile(`(?i)\b(similar|like|same as|pattern|example of|code (like|similar))\b`)
)

// Router runs the rule-based classifier, consulting an optional LLM
// fallback when the rule's confidence is below 0.85.
type Router struct {
	llm           llm.LLM
	minConfidence float64
}

// New constructs a Router. classifier may be nil — in which case only
// the rule-based pass ever runs.
func New(classifier llm.LLM, minConfidence float64) *Router {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	return &Router{llm: classifier, minConfidence: minConfidence}
}

// Route classifies query and returns its retrieval Strategy. Classifier
// failure degrades to the rule output (never the overall `semantic`
// fallback, which is reserved for downstream C8 search-store errors).
func (r *Router) Route(ctx context.Context, query string) Strategy {
	intent, confidence, entities := classifyByRule(query)

	if confidence < 0.85 && r.llm != nil {
		if llmIntent, llmConfidence, ok := r.classifyByLLM(ctx, query); ok && llmConfidence >= r.minConfidence {
			intent = llmIntent
		}
	}

	return strategyFor(intent, entities)
}

// classifyByRule implements §4.7's trigger-pattern table, in descending
// priority order. Confidence is fixed per matched rule; no match falls
// through to `semantic` at a low confidence so an LLM fallback (if any)
// always gets a chance to override it.
func classifyByRule(query string) (Intent, float64, Entities) {
	trimmed := strings.TrimSpace(query)

	if m := symbolKeyword.FindStringSubmatch(trimmed); m != nil {
		return IntentSymbolLookup, 0.9, Entities{NameHint: m[2]}
	}
	if isBareIdentifier(trimmed) {
		return IntentSymbolLookup, 0.88, Entities{NameHint: trimmed}
	}
	if structuralWord.MatchString(trimmed) || structuralWh.MatchString(trimmed) {
		return IntentStructural, 0.9, Entities{}
	}
	if locationPhrase.MatchString(trimmed) || fileExtension.MatchString(trimmed) {
		return IntentLocation, 0.87, Entities{PathHints: extractPathHints(trimmed)}
	}
	if similarityWord.MatchString(trimmed) {
		return IntentSimilarity, 0.9, Entities{}
	}
	return IntentSemantic, 0.5, Entities{}
}

// isBareIdentifier reports whether query is a single PascalCase or
// camelCase token with no surrounding natural-language words.
func isBareIdentifier(query string) bool {
	if !pascalOrCamel.MatchString(query) {
		return false
	}
	hasUpper, hasLower := false, false
	for _, r := range query {
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
		if r >= 'a' && r <= 'z' {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

func extractPathHints(query string) []string {
	var hints []string
	for _, m := range fileExtension.FindAllString(query, -1) {
		hints = append(hints, m)
	}
	return hints
}

type llmIntentResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (r *Router) classifyByLLM(ctx context.Context, query string) (Intent, float64, bool) {
	var resp llmIntentResponse
	messages := []llm.Message{{
		Role: llm.RoleUser,
		Content: "Classify this code-search query into exactly one of: symbol_lookup, structural, location, similarity, semantic. " +
			"Reply as JSON {\"intent\": \"...\", \"confidence\": 0.0-1.0}. Query: " + query,
	}}
	if err := r.llm.CompleteJSON(ctx, messages, llm.CompleteOptions{Temperature: 0}, &resp); err != nil {
		return "", 0, false
	}
	intent := Intent(resp.Intent)
	switch intent {
	case IntentSymbolLookup, IntentStructural, IntentLocation, IntentSimilarity, IntentSemantic:
		return intent, resp.Confidence, true
	default:
		return "", 0, false
	}
}

// strategyFor implements §4.7's strategy-mapping table.
func strategyFor(intent Intent, entities Entities) Strategy {
	switch intent {
	case IntentSymbolLookup:
		return Strategy{
			Intent: intent, Primary: ChannelSymbolKeyword,
			UnitTypes:    []model.UnitType{model.UnitFunction, model.UnitMethod, model.UnitClass, model.UnitInterface, model.UnitTypeDecl},
			VectorWeight: 0.30, BM25Weight: 0.70, Entities: entities,
		}
	case IntentStructural:
		return Strategy{
			Intent: intent, Primary: ChannelKeywordHybrid,
			UnitTypes:    []model.UnitType{model.UnitClass, model.UnitInterface, model.UnitFunction},
			VectorWeight: 0.40, BM25Weight: 0.60, Entities: entities,
		}
	case IntentLocation:
		return Strategy{Intent: intent, Primary: ChannelPathFilter, Entities: entities}
	case IntentSimilarity:
		return Strategy{Intent: intent, Primary: ChannelVectorHybrid, VectorWeight: 0.80, BM25Weight: 0.20, Entities: entities}
	default:
		return Strategy{Intent: IntentSemantic, Primary: ChannelVectorHybrid, VectorWeight: 0.60, BM25Weight: 0.40, Entities: entities}
	}
}
