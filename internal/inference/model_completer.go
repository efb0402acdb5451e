package inference

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ModelCompleter drives an ADK model.LLM (the Moonshot adapter in production).
type ModelCompleter struct {
	llm model.LLM
}

func NewModelCompleter(llm model.LLM) *ModelCompleter {
	return &ModelCompleter{llm: llm}
}

func (c *ModelCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	llmReq := &model.LLMRequest{
		Model:    c.llm.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		Config:   cfg,
	}

	var out Completion
	var text strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return Completion{}, err
		}
		if resp == nil {
			continue
		}
		if resp.Content != nil {
			for _, part := range resp.Content.Parts {
				if part != nil && part.Text != "" {
					text.WriteString(part.Text)
				}
			}
		}
		if resp.UsageMetadata != nil {
			out.InputTokens += int(resp.UsageMetadata.PromptTokenCount)
			out.OutputTokens += int(resp.UsageMetadata.CandidatesTokenCount)
		}
	}

	out.Text = strings.TrimSpace(text.String())
	if out.Text == "" {
		return Completion{}, fmt.Errorf("%s returned no text", c.llm.Name())
	}
	return out, nil
}

var _ Completer = (*ModelCompleter)(nil)
