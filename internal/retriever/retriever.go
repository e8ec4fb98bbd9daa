// Package retriever implements the Hybrid Retriever (C8): routes a query,
// searches both channels through the Typed Document Index, fuses and
// boosts results, optionally reranks with an LLM, and formats the
// surviving units into a token-budgeted context per §4.8.1.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/standardbeagle/semindex/internal/debug"
	"github.com/standardbeagle/semindex/internal/docindex"
	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/router"
	"github.com/standardbeagle/semindex/internal/semantic"
	"github.com/standardbeagle/semindex/internal/tokenest"
	"github.com/standardbeagle/semindex/internal/weights"
)

const (
	defaultInitialLimit   = 30
	defaultFinalLimit     = 10
	defaultMinRerankScore = 3
	defaultMaxTokens      = 8000

	// nameHintThreshold is deliberately looser than semantic's package
	// default (0.80): a symbol_lookup NameHint is already router-matched
	// against the literal query text, so this pass only needs to catch
	// near-misses (GetUserById vs GetUserByID), not unrelated candidates.
	nameHintThreshold = 0.70
)

// Retriever ties the router, document index, learned weights, reranker,
// and context formatter into one query-to-context pipeline.
type Retriever struct {
	router       *router.Router
	index        *docindex.Index
	embedder     llm.Embedder
	weights      *weights.Store
	searchWeights map[model.UseCase]map[model.DocumentType]float64
	reranker     llm.LLM // optional
	estimator    tokenest.Estimator
	fuzzy        *semantic.FuzzyMatcher
}

// Options configures a Retriever; all fields but the required
// collaborators have spec-mandated defaults.
type Options struct {
	Router   *router.Router
	Index    *docindex.Index
	Embedder llm.Embedder
	Weights  *weights.Store
	Reranker llm.LLM // nil disables reranking
	Estimator tokenest.Estimator

	// SearchWeights is config.Config.Search.SearchWeights — the per-use-case
	// document-type weight baseline (§6 searchWeights.<use_case>). It is the
	// type-weight fallback used when C9 has not yet accumulated enough
	// feedback to override it.
	SearchWeights map[model.UseCase]map[model.DocumentType]float64
}

func New(opts Options) *Retriever {
	estimator := opts.Estimator
	if estimator == nil {
		estimator = tokenest.CharHeuristic{}
	}
	return &Retriever{
		router: opts.Router, index: opts.Index, embedder: opts.Embedder,
		weights: opts.Weights, searchWeights: opts.SearchWeights,
		reranker: opts.Reranker, estimator: estimator,
		fuzzy: semantic.NewFuzzyMatcher(nameHintThreshold, semantic.JaroWinkler),
	}
}

// Request parameterizes Query.
type Request struct {
	Text         string
	UseCase      model.UseCase
	InitialLimit int
	FinalLimit   int
	MaxTokens    int
	EnableRerank bool
}

// Result is Query's output: the formatted context plus the ranked
// documents it was built from, for callers that want the raw list too.
type Result struct {
	Context string
	Docs    []docindex.ScoredDocument
	Intent  router.Intent
}

// Query runs the full C8 pipeline. Every failure mode degrades rather
// than propagating: an embedding error just skips the vector channel, a
// reranker error falls back to fused order, and docindex.Search itself
// never raises on a store error.
func (r *Retriever) Query(ctx context.Context, req Request) Result {
	initialLimit := req.InitialLimit
	if initialLimit <= 0 {
		initialLimit = defaultInitialLimit
	}
	finalLimit := req.FinalLimit
	if finalLimit <= 0 {
		finalLimit = defaultFinalLimit
	}

	strategy := r.router.Route(ctx, req.Text)

	var queryVector []float32
	if r.embedder != nil {
		if v, err := r.embedder.Embed(ctx, req.Text); err == nil {
			queryVector = v
		} else {
			debug.Log("retriever", "embed query failed, vector channel disabled: %v", err)
		}
	}

	useCase := req.UseCase
	if useCase == "" {
		useCase = model.UseCaseSearch
	}

	active := weights.ActiveWeights{VectorWeight: strategy.VectorWeight, BM25Weight: strategy.BM25Weight}
	var fileBoosts map[string]float64
	typeWeights := r.searchWeights[useCase]
	if r.weights != nil {
		if learned, err := r.weights.GetActiveWeights(ctx, useCase); err == nil {
			fileBoosts = learned.FileBoosts
			if len(learned.DocumentTypeWeights) > 0 {
				typeWeights = learned.DocumentTypeWeights
			}
			// C9's blend is a per-use-case global split; the router's
			// strategy carries a per-intent shift (§4.7). Neither source
			// should silently win over the other, so average them —
			// GetActiveWeights already degrades to the global defaults
			// until feedback_count reaches min_samples, so this still
			// tracks the router's intent shift closely in the common
			// no-feedback-yet case.
			active.VectorWeight = (strategy.VectorWeight + learned.VectorWeight) / 2
			active.BM25Weight = (strategy.BM25Weight + learned.BM25Weight) / 2
		}
	}

	docs := r.index.Search(ctx, docindex.SearchRequest{
		QueryText:    req.Text,
		QueryVector:  queryVector,
		Limit:        initialLimit,
		ChunkKinds:   strategy.UnitTypes,
		FileBoosts:   fileBoosts,
		TypeWeights:  typeWeights,
		VectorWeight: active.VectorWeight,
		BM25Weight:   active.BM25Weight,
	})

	if strategy.Intent == router.IntentSymbolLookup && strategy.Entities.NameHint != "" {
		docs = r.boostByNameHint(strategy.Entities.NameHint, docs)
	}

	if req.EnableRerank && r.reranker != nil && len(docs) > 0 {
		docs = r.rerank(ctx, req.Text, docs)
	}

	if len(docs) > finalLimit {
		docs = docs[:finalLimit]
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	formatted := r.formatContext(docs, maxTokens)

	return Result{Context: formatted, Docs: docs, Intent: strategy.Intent}
}

// boostByNameHint raises a symbol_lookup candidate's score in proportion
// to how closely its chunk name matches the router's extracted NameHint,
// so a misspelled or partially-typed identifier ("GetUserById") still
// ranks its intended target ("GetUserByID") above unrelated BM25/vector
// matches. Candidates with no Name (non-code_chunk documents) are
// unaffected.
func (r *Retriever) boostByNameHint(hint string, docs []docindex.ScoredDocument) []docindex.ScoredDocument {
	for i, d := range docs {
		if d.Document.Payload.Name == nil {
			continue
		}
		sim := r.fuzzy.Similarity(hint, *d.Document.Payload.Name)
		if sim >= nameHintThreshold {
			docs[i].Score += sim * 10
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	return docs
}

type rerankScore struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// rerank asks the LLM to score each candidate 0-10, drops anything below
// min_rerank_score, and sorts the survivors desc. A malformed or failed
// LLM call is logged and the fused order is kept unchanged.
func (r *Retriever) rerank(ctx context.Context, query string, docs []docindex.ScoredDocument) []docindex.ScoredDocument {
	prompt := buildRerankPrompt(query, docs)
	var parsed struct {
		Scores []rerankScore `json:"scores"`
	}
	if err := r.reranker.CompleteJSON(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.CompleteOptions{Temperature: 0}, &parsed); err != nil {
		debug.Log("retriever", "rerank failed, keeping fused order: %v", err)
		return docs
	}

	byID := map[string]int{}
	for _, s := range parsed.Scores {
		byID[s.ID] = s.Score
	}

	kept := make([]docindex.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		score, ok := byID[d.Document.ID]
		if !ok || score < defaultMinRerankScore {
			continue
		}
		d.Score = float64(score)
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return docs
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	return kept
}

func buildRerankPrompt(query string, docs []docindex.ScoredDocument) string {
	prompt := fmt.Sprintf("Score each candidate 0-10 for relevance to the query %q. Reply as JSON {\"scores\": [{\"id\": \"...\", \"score\": N}, ...]}.\n\n", query)
	for _, d := range docs {
		prompt += fmt.Sprintf("id=%s path=%s\n%s\n\n", d.Document.ID, d.Document.FilePath, truncate(d.Document.Content, 500))
	}
	return prompt
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
