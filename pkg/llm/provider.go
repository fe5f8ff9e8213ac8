// Package llm defines provider interfaces for embedding and chat models.
//
// Providers register themselves via init(), so importing a provider package
// is enough to make it available:
//
//	import _ "github.com/kart-io/docbase/pkg/llm/ollama"
//
//	embedder, err := llm.NewEmbeddingProvider(&llm.Config{Provider: "ollama", ...})
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem is the system prompt role.
	RoleSystem Role = "system"
	// RoleUser is the end-user role.
	RoleUser Role = "user"
	// RoleAssistant is the model response role.
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn sent to a ChatProvider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// EmbeddingProvider converts text into dense vectors.
type EmbeddingProvider interface {
	// Embed embeds a batch of texts. The returned slice is index-aligned
	// with the input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle embeds a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name.
	Name() string
}

// ChatProvider produces completions from chat messages.
type ChatProvider interface {
	// Chat sends a full message history and returns the assistant reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Generate is a convenience wrapper for a single prompt with an
	// optional system prompt.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// Config carries the connection settings shared by all providers.
type Config struct {
	// Provider selects the registered provider ("ollama", "openai").
	Provider string

	// Endpoint is the provider base URL.
	Endpoint string

	// APIKey authenticates requests where the provider requires it.
	APIKey string

	// Model is the model name for this provider instance.
	Model string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int
}

// Factory builds both provider kinds from a Config.
type Factory struct {
	NewEmbedding func(cfg *Config) (EmbeddingProvider, error)
	NewChat      func(cfg *Config) (ChatProvider, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterProvider registers a provider factory under name. It is intended
// to be called from provider package init() functions and panics on
// duplicate registration.
func RegisterProvider(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("llm: provider %q registered twice", name))
	}
	registry[name] = factory
}

// NewEmbeddingProvider builds an embedding provider from cfg.
func NewEmbeddingProvider(cfg *Config) (EmbeddingProvider, error) {
	factory, err := lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if factory.NewEmbedding == nil {
		return nil, fmt.Errorf("llm: provider %q does not support embeddings", cfg.Provider)
	}
	return factory.NewEmbedding(cfg)
}

// NewChatProvider builds a chat provider from cfg.
func NewChatProvider(cfg *Config) (ChatProvider, error) {
	factory, err := lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if factory.NewChat == nil {
		return nil, fmt.Errorf("llm: provider %q does not support chat", cfg.Provider)
	}
	return factory.NewChat(cfg)
}

func lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return Factory{}, fmt.Errorf("llm: unknown provider %q (registered: %v)", name, names())
	}
	return factory, nil
}

// names must be called with registryMu held.
func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
