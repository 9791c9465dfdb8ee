package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"smartstudy/internal/models"
)

type fakeProvider struct {
	name   string
	result *models.GenerationResult
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	return &res, nil
}

func TestRouterPrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "primary", result: &models.GenerationResult{Text: "answer"}}
	fallback := &fakeProvider{name: "fallback", result: &models.GenerationResult{Text: "other"}}
	router := NewRouter(primary, fallback)

	result, err := router.Generate(context.Background(), models.GenerationRequest{Kind: models.KindExplanation})
	require.NoError(t, err)

	assert.Equal(t, "answer", result.Text)
	assert.Equal(t, models.SourcePrimary, result.Source)
	assert.False(t, result.Degraded)
	assert.Equal(t, 0, fallback.calls, "fallback must not be called when primary succeeds")
}

func TestRouterQuotaHandsOff(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: fmt.Errorf("%w: out of tokens", ErrQuotaExceeded)}
	fallback := &fakeProvider{name: "fallback", result: &models.GenerationResult{Text: "backup"}}
	router := NewRouter(primary, fallback)

	result, err := router.Generate(context.Background(), models.GenerationRequest{Kind: models.KindExplanation})
	require.NoError(t, err)

	assert.Equal(t, "backup", result.Text)
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.True(t, result.Degraded)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestRouterNonQuotaErrorSurfacesUnchanged(t *testing.T) {
	primaryErr := fmt.Errorf("%w: connection refused", ErrProvider)
	primary := &fakeProvider{name: "primary", err: primaryErr}
	fallback := &fakeProvider{name: "fallback", result: &models.GenerationResult{Text: "backup"}}
	router := NewRouter(primary, fallback)

	_, err := router.Generate(context.Background(), models.GenerationRequest{Kind: models.KindExplanation})
	require.Error(t, err)

	assert.Equal(t, primaryErr, err)
	assert.Equal(t, 0, fallback.calls, "non-quota failures must not trigger the fallback")
}

func TestRouterBothFail(t *testing.T) {
	primaryErr := fmt.Errorf("%w: daily limit", ErrQuotaExceeded)
	fallbackErr := fmt.Errorf("%w: endpoint down", ErrProvider)
	primary := &fakeProvider{name: "primary", err: primaryErr}
	fallback := &fakeProvider{name: "fallback", err: fallbackErr}
	router := NewRouter(primary, fallback)

	_, err := router.Generate(context.Background(), models.GenerationRequest{Kind: models.KindQuiz})
	require.Error(t, err)

	var failed *GenerationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, primaryErr, failed.PrimaryErr)
	assert.Equal(t, fallbackErr, failed.FallbackErr)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestRouterMakesAtMostTwoCalls(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: fmt.Errorf("%w", ErrQuotaExceeded)}
	fallback := &fakeProvider{name: "fallback", err: fmt.Errorf("%w: no model loaded", ErrProvider)}
	router := NewRouter(primary, fallback)

	_, err := router.Generate(context.Background(), models.GenerationRequest{Kind: models.KindExplanation})
	require.Error(t, err)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestQuotaSignature(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gemini 429", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"gemini resource exhausted", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, true},
		{"gemini server error", genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, false},
		{"openai 429", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"openai 500", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, false},
		{"quota text", errors.New("you have exceeded your quota"), true},
		{"rate limit text", errors.New("Rate Limit reached"), true},
		{"plain network error", errors.New("dial tcp: connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quotaSignature(tt.err))
		})
	}
}
