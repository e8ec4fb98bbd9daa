package docindex

import (
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/surgebase/porter2"
)

// bm25 const tuning per Robertson/Sparck Jones's original BM25Okapi.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25Index is an in-memory inverted index over stemmed document tokens,
// rebuilt from the documents table on Open and kept current incrementally
// thereafter. Porter2 stemming (`internal/semantic`'s own dependency,
// reused here for the keyword channel) lets "authenticate"/"authenticating"
// collide the way the vector channel's embeddings already do semantically.
type bm25Index struct {
	mu sync.RWMutex

	postings map[string]map[string]int // term -> docID -> term frequency
	docLen   map[string]int
	totalLen int
	docCount int
}

func newBM25Index() *bm25Index {
	return &bm25Index{
		postings: map[string]map[string]int{},
		docLen:   map[string]int{},
	}
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(f)
		if len(f) < 2 {
			continue
		}
		tokens = append(tokens, porter2.Stem(f))
	}
	return tokens
}

func (idx *bm25Index) Add(docID, content string) {
	tokens := tokenize(content)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(docID)

	freq := map[string]int{}
	for _, t := range tokens {
		freq[t]++
	}
	for term, f := range freq {
		if idx.postings[term] == nil {
			idx.postings[term] = map[string]int{}
		}
		idx.postings[term][docID] = f
	}
	idx.docLen[docID] = len(tokens)
	idx.totalLen += len(tokens)
	idx.docCount++
}

func (idx *bm25Index) Remove(docID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(docID)
}

func (idx *bm25Index) removeLocked(docID string) {
	length, ok := idx.docLen[docID]
	if !ok {
		return
	}
	for term, postings := range idx.postings {
		if _, ok := postings[docID]; ok {
			delete(postings, docID)
			if len(postings) == 0 {
				delete(idx.postings, term)
			}
		}
	}
	delete(idx.docLen, docID)
	idx.totalLen -= length
	idx.docCount--
}

// Search returns doc ids ranked by BM25 score against query, highest first.
func (idx *bm25Index) Search(query string, limit int) []scoredID {
	terms := tokenize(query)
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.docCount == 0 {
		return nil
	}
	avgLen := float64(idx.totalLen) / float64(idx.docCount)

	scores := map[string]float64{}
	for _, term := range terms {
		postings := idx.postings[term]
		if len(postings) == 0 {
			continue
		}
		idf := math.Log(1 + (float64(idx.docCount)-float64(len(postings))+0.5)/(float64(len(postings))+0.5))
		for docID, tf := range postings {
			dl := float64(idx.docLen[docID])
			denom := float64(tf) + bm25K1*(1-bm25B+bm25B*dl/avgLen)
			scores[docID] += idf * (float64(tf) * (bm25K1 + 1) / denom)
		}
	}

	out := make([]scoredID, 0, len(scores))
	for id, score := range scores {
		out = append(out, scoredID{id: id, score: score})
	}
	sortScoredDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type scoredID struct {
	id    string
	score float64
}

func sortScoredDesc(s []scoredID) {
	// insertion sort over every document that matched a query term; the
	// caller truncates to limit only after this sort.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
