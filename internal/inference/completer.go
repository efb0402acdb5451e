// Package inference is the single gateway to the generative-text service.
// It turns provider answers into plain text or structured payloads, retries a
// rate-limited call once, and keeps request, token and cost accounting.
package inference

import (
	"context"

	"leadflow_backend/platform/ai"
)

// ErrRateLimited is matched with errors.Is on Completer errors.
var ErrRateLimited = ai.ErrRateLimited

// CompletionRequest is the provider-neutral shape of one call.
type CompletionRequest struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature *float64
}

// Completion is a provider answer. Token counts are zero when the provider
// did not report usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Completer is implemented by each model provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
