// Package llm routes generation requests to a primary language-model
// provider and transparently substitutes a secondary provider when the
// primary reports quota exhaustion. Both providers honor the same output
// contract, so callers only ever see a GenerationResult whose Degraded
// flag records which backend produced it.
package llm

import (
	"context"

	"smartstudy/internal/models"
)

// Provider is the capability interface both backends implement. Generate
// fails with an error wrapping ErrQuotaExceeded when the backend reports
// quota exhaustion, and with one wrapping ErrProvider for anything else.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}
