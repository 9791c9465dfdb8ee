package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

var (
	// ErrQuotaExceeded marks backend-reported quota or rate-limit exhaustion.
	// Only the primary provider classifies failures this way; the router
	// recovers it by substituting the fallback provider.
	ErrQuotaExceeded = errors.New("provider quota exhausted")

	// ErrProvider marks any other backend failure: network, timeout, or a
	// malformed response. Never recovered by the router.
	ErrProvider = errors.New("provider request failed")
)

// GenerationFailedError reports that the fallback provider failed after the
// primary exhausted its quota. Both underlying causes are preserved.
type GenerationFailedError struct {
	PrimaryErr  error
	FallbackErr error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed: primary: %v; fallback: %v", e.PrimaryErr, e.FallbackErr)
}

func (e *GenerationFailedError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}

// quotaSignature reports whether err carries a quota/rate-limit signature
// from either backend SDK. Parse failures and other provider errors never
// match, so the router cannot mistake a parsing bug for exhaustion.
func quotaSignature(err error) bool {
	if err == nil {
		return false
	}

	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Status == "RESOURCE_EXHAUSTED"
	}

	var oerr *openai.APIError
	if errors.As(err, &oerr) {
		return oerr.HTTPStatusCode == http.StatusTooManyRequests
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}
