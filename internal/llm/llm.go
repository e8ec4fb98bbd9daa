// Package llm defines the two abstract collaborators the enrichment and
// retrieval pipelines depend on but never implement directly: an Embedder
// and an LLM. Concrete providers live elsewhere and are wired in by the
// host process; this package only fixes the contract.
package llm

import "context"

// Embedder produces deterministic vector embeddings from text, per
// (model, text). Mirrors the provider interface shape used across the
// pack's embedding clients (Embed/EmbedBatch/Dimension/Model/Close).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
	Close() error
}

// Role distinguishes chat-message authorship for Complete/CompleteJSON.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompleteOptions configures a single completion call.
type CompleteOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// Usage reports token accounting for a completion, when the provider
// exposes it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the result of an LLM call.
type Completion struct {
	Content string
	Model   string
	Usage   *Usage
}

// LLM completes chat-style prompts, with a JSON-validating variant for
// structured extraction (C5's per-document-type extractors, C13's judge
// prompts). Rate-limit errors are distinguished via internal/errors's
// EmbeddingError/LLMError RemoteErrorKind so callers can back off; every
// other error propagates.
type LLM interface {
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*Completion, error)
	// CompleteJSON completes and unmarshals the response into out, which
	// must be a pointer. Implementations retry once on invalid JSON before
	// surfacing internal/errors.InvalidResponseError.
	CompleteJSON(ctx context.Context, messages []Message, opts CompleteOptions, out interface{}) error
	Model() string
}
