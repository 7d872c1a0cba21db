package driven

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// QuizStore persists quiz sessions and the session registry.
//
// The registry is a projection of the authoritative session records and may
// lag them. Readers must never trust a stale summary: they re-derive status
// and counts from the session record and rewrite the registry (self-healing).
// The store provides no transactions; last write wins.
type QuizStore interface {
	// WriteSession stores the full authoritative session record
	WriteSession(ctx context.Context, session *domain.QuizSession) error

	// ReadSession retrieves a session by ID.
	// Returns domain.ErrSessionNotFound when no record exists.
	ReadSession(ctx context.Context, id string) (*domain.QuizSession, error)

	// ListSummaries returns all registry entries, newest first
	ListSummaries(ctx context.Context) ([]*domain.SessionSummary, error)

	// SaveSummaries replaces the whole registry list
	SaveSummaries(ctx context.Context, list []*domain.SessionSummary) error

	// UpsertSummary inserts or updates a single registry entry
	UpsertSummary(ctx context.Context, entry *domain.SessionSummary) error
}
