package driven

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// ScoreStore persists per-domain quiz scores.
type ScoreStore interface {
	// Load returns all recorded scores. A missing record yields an empty
	// collection, not an error.
	Load(ctx context.Context) (*domain.DomainScores, error)

	// Save replaces the score collection and stamps LastUpdated
	Save(ctx context.Context, scores *domain.DomainScores) error
}
