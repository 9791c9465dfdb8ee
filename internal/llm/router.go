package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"smartstudy/internal/models"
)

// Router is the single entry point for generation. Each call makes at most
// two backend calls: the primary, then the fallback if and only if the
// primary reported quota exhaustion. Non-quota primary failures surface
// unchanged so real bugs are never masked as fallback mode. There is no
// retry or backoff beyond that single handoff.
type Router struct {
	primary  Provider
	fallback Provider
}

func NewRouter(primary, fallback Provider) *Router {
	return &Router{primary: primary, fallback: fallback}
}

func (r *Router) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	result, primaryErr := r.primary.Generate(ctx, req)
	if primaryErr == nil {
		result.Source = models.SourcePrimary
		result.Degraded = false
		return result, nil
	}

	if !errors.Is(primaryErr, ErrQuotaExceeded) {
		return nil, primaryErr
	}

	fmt.Fprintf(os.Stderr, "primary provider %s exhausted, handing off to %s: %v\n",
		r.primary.Name(), r.fallback.Name(), primaryErr)

	result, fallbackErr := r.fallback.Generate(ctx, req)
	if fallbackErr != nil {
		return nil, &GenerationFailedError{PrimaryErr: primaryErr, FallbackErr: fallbackErr}
	}

	result.Source = models.SourceFallback
	result.Degraded = true
	return result, nil
}
