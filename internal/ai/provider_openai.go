package ai

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIProvider talks to OpenAI or any OpenAI-compatible API.
type OpenAIProvider struct {
	chat    chatClient
	baseURL string
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL points the provider at a compatible API.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.chat.client = client
	}
}

// WithModel sets the model used when a request names none.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.chat.model = model
		}
	}
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		baseURL: defaultOpenAIBaseURL,
		chat: chatClient{
			label:  "openai",
			apiKey: apiKey,
			model:  defaultOpenAIModel,
			client: http.DefaultClient,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.chat.endpoint = p.baseURL + "/chat/completions"
	return p
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return p.chat.complete(ctx, req)
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	return p.chat.probe(ctx, p.baseURL+"/models")
}
