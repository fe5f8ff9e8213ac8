// Package ollama implements llm providers backed by a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kart-io/docbase/pkg/llm"
)

const providerName = "ollama"

func init() {
	llm.RegisterProvider(providerName, llm.Factory{
		NewEmbedding: func(cfg *llm.Config) (llm.EmbeddingProvider, error) {
			return newProvider(cfg)
		},
		NewChat: func(cfg *llm.Config) (llm.ChatProvider, error) {
			return newProvider(cfg)
		},
	})
}

// Provider talks to the Ollama HTTP API. It implements both
// llm.EmbeddingProvider and llm.ChatProvider.
type Provider struct {
	endpoint   string
	model      string
	maxRetries int
	client     *http.Client
}

var (
	_ llm.EmbeddingProvider = (*Provider)(nil)
	_ llm.ChatProvider      = (*Provider)(nil)
)

func newProvider(cfg *llm.Config) (*Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Provider{
		endpoint:   endpoint,
		model:      cfg.Model,
		maxRetries: retries,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return providerName }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed embeds a batch of texts via /api/embed.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embedRequest{Model: p.model, Input: texts}

	var resp embedResponse
	if err := p.doRequestWithRetry(ctx, "/api/embed", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("ollama: embed failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// EmbedSingle embeds a single text.
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Chat sends a message history via /api/chat with streaming disabled.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	reqBody := chatRequest{
		Model:    p.model,
		Messages: make([]chatMessage, 0, len(messages)),
		Stream:   false,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var resp chatResponse
	if err := p.doRequestWithRetry(ctx, "/api/chat", reqBody, &resp); err != nil {
		return "", fmt.Errorf("ollama: chat failed: %w", err)
	}
	return resp.Message.Content, nil
}

// Generate is a single-prompt convenience wrapper around Chat.
func (p *Provider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
	return p.Chat(ctx, messages)
}

// doRequestWithRetry posts a JSON body and decodes the JSON response,
// retrying on network errors and 5xx responses with linear backoff.
func (p *Provider) doRequestWithRetry(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		lastErr = p.doRequest(ctx, path, payload, respBody)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	if he, ok := err.(*httpError); ok {
		return he.status >= 500
	}
	// Network errors are retryable.
	return true
}

func (p *Provider) doRequest(ctx context.Context, path string, payload []byte, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
