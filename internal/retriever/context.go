package retriever

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/semindex/internal/docindex"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/tokenest"
)

const (
	primaryShare    = 0.50
	supportingShare = 0.25
	summariesShare  = 0.25
	maxSummaryFiles = 5
)

// formatContext implements §4.8.1: primary (first 60% of results) gets
// half the token budget and is emitted first; the remaining results
// (supporting) get a quarter and are emitted in the middle; up to 5
// distinct files, each represented by the content of its highest-ranked
// retrieved document, get the last quarter and are emitted last (no
// file_summary document is fetched beyond those in the results) — so
// the "lost in the middle" attention sag falls on the least load-bearing
// material rather than on the primary hits.
func (r *Retriever) formatContext(docs []docindex.ScoredDocument, maxTokens int) string {
	if len(docs) == 0 {
		return ""
	}

	primaryCount := int(float64(len(docs)) * 0.6)
	if primaryCount == 0 {
		primaryCount = 1
	}
	if primaryCount > len(docs) {
		primaryCount = len(docs)
	}
	primary := docs[:primaryCount]
	supporting := docs[primaryCount:]
	summaries := distinctFileSummaries(docs, maxSummaryFiles)

	var b strings.Builder
	r.emitSection(&b, primary, int(float64(maxTokens)*primaryShare))
	r.emitSection(&b, supporting, int(float64(maxTokens)*supportingShare))
	r.emitSummaries(&b, summaries, int(float64(maxTokens)*summariesShare))

	return b.String()
}

func (r *Retriever) emitSection(b *strings.Builder, docs []docindex.ScoredDocument, tokenBudget int) {
	spent := 0
	for _, d := range docs {
		header := formatHeader(d.Document)
		body := d.Document.Content
		unit := header + "\n" + body + "\n\n"
		unitTokens := r.estimator.Estimate(unit)

		if spent+unitTokens > tokenBudget {
			remaining := tokenBudget - spent
			if remaining <= 0 {
				b.WriteString("...[truncated: token budget exhausted]\n\n")
				return
			}
			b.WriteString(header + "\n")
			b.WriteString(truncateToTokens(body, remaining, r.estimator))
			b.WriteString("\n...[truncated]\n\n")
			return
		}
		b.WriteString(unit)
		spent += unitTokens
	}
}

func (r *Retriever) emitSummaries(b *strings.Builder, docs []model.Document, tokenBudget int) {
	spent := 0
	for _, doc := range docs {
		unit := fmt.Sprintf("## Summary: %s\n%s\n\n", doc.FilePath, doc.Payload.Summary)
		unitTokens := r.estimator.Estimate(unit)
		if spent+unitTokens > tokenBudget {
			b.WriteString("...[truncated: summary budget exhausted]\n\n")
			return
		}
		b.WriteString(unit)
		spent += unitTokens
	}
}

func distinctFileSummaries(docs []docindex.ScoredDocument, limit int) []model.Document {
	var out []model.Document
	seen := map[string]bool{}
	for _, d := range docs {
		if seen[d.Document.FilePath] {
			continue
		}
		seen[d.Document.FilePath] = true
		out = append(out, model.Document{FilePath: d.Document.FilePath, Payload: model.DocumentPayload{Summary: d.Document.Content}})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func formatHeader(doc model.Document) string {
	name := ""
	if doc.Payload.Name != nil {
		name = *doc.Payload.Name
	}
	return fmt.Sprintf("## %s:%d-%d %s", doc.FilePath, doc.Payload.StartLine, doc.Payload.EndLine, name)
}

func truncateToTokens(text string, tokenBudget int, estimator tokenest.Estimator) string {
	if estimator.Estimate(text) <= tokenBudget {
		return text
	}
	// Binary search the longest prefix fitting the budget; cheap enough
	// at this scale and avoids assuming any fixed chars-per-token ratio.
	lo, hi := 0, len(text)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if estimator.Estimate(text[:mid]) <= tokenBudget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return text[:lo]
}
