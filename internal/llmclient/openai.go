// Package llmclient provides a concrete llm.LLM implementation against
// any OpenAI-compatible chat-completions endpoint.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	serrors "github.com/standardbeagle/semindex/internal/errors"
	"github.com/standardbeagle/semindex/internal/llm"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/retry"
)

// OpenAICompatible talks to a chat-completions endpoint sharing OpenAI's
// request/response shape.
type OpenAICompatible struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	model    string
	retryCfg retry.Config
}

// Config configures an OpenAICompatible LLM client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New constructs an OpenAICompatible LLM client.
func New(cfg Config) *OpenAICompatible {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompatible{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		model:    model,
		retryCfg: retry.Default(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenAICompatible) Model() string { return o.model }

// Complete issues one chat-completions call, retrying transient failures.
func (o *OpenAICompatible) Complete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (*llm.Completion, error) {
	return retry.WithBackoff(ctx, o.retryCfg, func() (*llm.Completion, error) {
		return o.doComplete(ctx, messages, opts)
	})
}

func (o *OpenAICompatible) doComplete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (*llm.Completion, error) {
	var wire []chatMessage
	if opts.System != "" {
		wire = append(wire, chatMessage{Role: "system", Content: opts.System})
	}
	for _, m := range messages {
		wire = append(wire, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    wire,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, serrors.NewLLMError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, serrors.NewLLMError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, serrors.NewLLMError(serrors.RemoteRecoverable, o.model, 0, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, serrors.NewLLMError(serrors.RemoteRateLimited, o.model, 2000, fmt.Errorf("rate limited: %s", raw))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewLLMError(serrors.RemoteNonRecoverable, o.model, 0, fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, serrors.NewLLMError(serrors.RemoteNonRecoverable, o.model, 0, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, serrors.NewLLMError(serrors.RemoteNonRecoverable, o.model, 0, fmt.Errorf("no choices returned"))
	}

	return &llm.Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage: &llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// CompleteJSON completes and unmarshals the response, retrying once with a
// corrective follow-up message on invalid JSON before surfacing
// InvalidResponseError.
func (o *OpenAICompatible) CompleteJSON(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions, out interface{}) error {
	completion, err := o.Complete(ctx, messages, opts)
	if err != nil {
		return err
	}
	content := extractJSON(completion.Content)
	if jsonErr := json.Unmarshal([]byte(content), out); jsonErr == nil {
		return nil
	}

	retryMessages := append(append([]llm.Message{}, messages...), llm.Message{
		Role:    llm.RoleUser,
		Content: "Your previous response was not valid JSON. Reply with only valid JSON, no prose.",
	})
	completion, err = o.Complete(ctx, retryMessages, opts)
	if err != nil {
		return err
	}
	content = extractJSON(completion.Content)
	if jsonErr := json.Unmarshal([]byte(content), out); jsonErr != nil {
		return serrors.NewInvalidResponseError(model.DocumentType(""), content, jsonErr.Error())
	}
	return nil
}

// extractJSON strips a surrounding ```json fenced block if present.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
