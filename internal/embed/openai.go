// Package embed provides concrete llm.Embedder implementations: an
// OpenAI-compatible HTTP client (the network path every provider in the
// pack hand-rolls rather than pulling in an SDK) and a deterministic local
// fallback for offline/test use.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	serrors "github.com/standardbeagle/semindex/internal/errors"
	"github.com/standardbeagle/semindex/internal/retry"
)

// OpenAICompatible talks to any OpenAI-embeddings-API-shaped endpoint
// (OpenAI itself, or a local server exposing the same contract).
type OpenAICompatible struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
	retryCfg  retry.Config
}

// Config configures an OpenAICompatible embedder.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// New constructs an OpenAICompatible embedder.
func New(cfg Config) *OpenAICompatible {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = 1536
	}
	return &OpenAICompatible{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     model,
		dimension: dim,
		retryCfg:  retry.Default(),
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed embeds a single text.
func (o *OpenAICompatible) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts in one request, retrying transient
// failures with exponential backoff.
func (o *OpenAICompatible) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.WithBackoff(ctx, o.retryCfg, func() ([][]float32, error) {
		return o.doEmbedBatch(ctx, texts)
	})
}

func (o *OpenAICompatible) doEmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: o.model})
	if err != nil {
		return nil, serrors.NewEmbeddingError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, serrors.NewEmbeddingError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, serrors.NewEmbeddingError(serrors.RemoteRecoverable, o.model, 0, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, serrors.NewEmbeddingError(serrors.RemoteRateLimited, o.model, 1000, fmt.Errorf("rate limited: %s", raw))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewEmbeddingError(serrors.RemoteNonRecoverable, o.model, 0, fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, serrors.NewEmbeddingError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}

func (o *OpenAICompatible) Dimension() int { return o.dimension }
func (o *OpenAICompatible) Model() string  { return o.model }
func (o *OpenAICompatible) Close() error   { return nil }
