package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"smartstudy/internal/models"
)

// GeminiProvider is the primary adapter. It wraps the hosted Gemini model
// and parses structured quiz output from the raw completion text; a parse
// failure is a provider error, never a quota error.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		return nil, errors.New("gemini model name is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), nil)
	if err != nil {
		if quotaSignature(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("%w: gemini: %v", ErrProvider, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned an empty completion", ErrProvider)
	}

	result := &models.GenerationResult{
		Text:   text,
		Source: models.SourcePrimary,
	}

	if req.Kind == models.KindQuiz {
		items, err := parseQuizItems(text, req.Constraints)
		if err != nil {
			// A parsing bug must not trigger the fallback provider.
			return nil, fmt.Errorf("%w: parse gemini quiz: %v", ErrProvider, err)
		}
		result.Items = items
	}

	return result, nil
}
