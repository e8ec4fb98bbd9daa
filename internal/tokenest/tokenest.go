// Package tokenest provides the pluggable token estimator C8's context
// formatting and C10's repo-map budget both need: a tiktoken-backed
// estimator when available, falling back to the 4-chars/token
// approximation spec §4.8.1 names as its default.
package tokenest

import (
	"github.com/pkoukk/tiktoken-go"
)

// Estimator reports an approximate token count for text.
type Estimator interface {
	Estimate(text string) int
}

// CharHeuristic is the spec's stated default: len(text)/4.
type CharHeuristic struct{}

func (CharHeuristic) Estimate(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

// Tiktoken wraps a cl100k_base encoding for an exact-ish count against
// OpenAI-family models.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktoken loads the cl100k_base encoding. Falls back to nil, ok=false
// if the encoding can't be loaded (e.g. no network access for its vocab
// file on first use) — callers should fall back to CharHeuristic.
func NewTiktoken() (*Tiktoken, bool) {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return nil, false
	}
	return &Tiktoken{encoding: enc}, true
}

func (t *Tiktoken) Estimate(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// New returns the best available estimator: Tiktoken if its encoding
// loads, CharHeuristic otherwise.
func New() Estimator {
	if t, ok := NewTiktoken(); ok {
		return t
	}
	return CharHeuristic{}
}
