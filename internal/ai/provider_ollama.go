package ai

import (
	"context"
	"net/http"
	"strings"
)

const defaultOllamaModel = "llama3:8b"

// OllamaProvider talks to a self-hosted Ollama through its
// OpenAI-compatible endpoint.
type OllamaProvider struct {
	chat    chatClient
	baseURL string
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaHTTPClient sets the HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.chat.client = client
	}
}

// WithOllamaModel sets the model used when a request names none.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.chat.model = model
		}
	}
}

// NewOllamaProvider creates an Ollama provider.
func NewOllamaProvider(baseURL string, opts ...OllamaOption) *OllamaProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	p := &OllamaProvider{
		baseURL: baseURL,
		chat: chatClient{
			label:    "ollama",
			endpoint: baseURL + "/v1/chat/completions",
			model:    defaultOllamaModel,
			client:   http.DefaultClient,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return p.chat.complete(ctx, req)
}

func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	return p.chat.probe(ctx, p.baseURL+"/api/tags")
}
