package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QuizStore = (*QuizStore)(nil)

const (
	// Key prefixes for Redis
	quizSessionPrefix = "session:"
	quizRegistryKey   = "sessions:list"
)

// QuizStore implements driven.QuizStore using Redis.
// Each session is a JSON blob at its own key; the registry is a single
// JSON list rewritten on every update (last write wins, no transactions).
type QuizStore struct {
	client *redis.Client
}

// NewQuizStore creates a new Redis-backed QuizStore
func NewQuizStore(client *redis.Client) *QuizStore {
	return &QuizStore{client: client}
}

// WriteSession stores the full authoritative session record
func (s *QuizStore) WriteSession(ctx context.Context, session *domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, quizSessionPrefix+session.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("write session %s: %w", session.ID, err)
	}
	return nil
}

// ReadSession retrieves a session by ID
func (s *QuizStore) ReadSession(ctx context.Context, id string) (*domain.QuizSession, error) {
	data, err := s.client.Get(ctx, quizSessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var session domain.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// ListSummaries returns all registry entries
func (s *QuizStore) ListSummaries(ctx context.Context) ([]*domain.SessionSummary, error) {
	data, err := s.client.Get(ctx, quizRegistryKey).Bytes()
	if err == redis.Nil {
		return []*domain.SessionSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session registry: %w", err)
	}

	var list []*domain.SessionSummary
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal session registry: %w", err)
	}
	return list, nil
}

// SaveSummaries replaces the whole registry list
func (s *QuizStore) SaveSummaries(ctx context.Context, list []*domain.SessionSummary) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal session registry: %w", err)
	}
	if err := s.client.Set(ctx, quizRegistryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("write session registry: %w", err)
	}
	return nil
}

// UpsertSummary inserts or updates a single registry entry
func (s *QuizStore) UpsertSummary(ctx context.Context, entry *domain.SessionSummary) error {
	list, err := s.ListSummaries(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range list {
		if existing.ID == entry.ID {
			list[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, entry)
	}
	return s.SaveSummaries(ctx, list)
}

// Ping checks if the Redis backend is healthy
func (s *QuizStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
