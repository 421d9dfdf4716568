// Package ai is a small provider-agnostic completion gateway used to word
// revision questions. Providers are tried in registration order.
package ai

import "context"

// TaskType tags a request so logs and budgets can tell callers apart.
type TaskType int

const (
	TaskQuestionWriting TaskType = iota
	TaskQuestionReview
)

func (t TaskType) String() string {
	switch t {
	case TaskQuestionWriting:
		return "question_writing"
	case TaskQuestionReview:
		return "question_review"
	default:
		return "unknown"
	}
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output of a completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Completer is the narrow interface consumers depend on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Provider is a completion backend.
type Provider interface {
	Completer
	HealthCheck(ctx context.Context) error
}
