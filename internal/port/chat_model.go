package port

import "context"

// ChatInput carries a single completion request, optionally with an image.
type ChatInput struct {
	System      string
	Prompt      string
	ImageBytes  []byte
	ContentType string
	MaxTokens   int
	Temperature float64
}

// ChatOutput contains the model's reply.
type ChatOutput struct {
	Text      string
	ModelUsed string
}

// ChatModel abstracts an LLM chat completion provider.
type ChatModel interface {
	Complete(ctx context.Context, input ChatInput) (*ChatOutput, error)
}
