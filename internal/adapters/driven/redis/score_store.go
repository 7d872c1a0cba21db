package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ScoreStore = (*ScoreStore)(nil)

const scoresKey = "domain:scores"

// ScoreStore implements driven.ScoreStore using Redis.
type ScoreStore struct {
	client *redis.Client
}

// NewScoreStore creates a new Redis-backed ScoreStore
func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

// Load returns all recorded scores; a missing key yields an empty collection
func (s *ScoreStore) Load(ctx context.Context) (*domain.DomainScores, error) {
	data, err := s.client.Get(ctx, scoresKey).Bytes()
	if err == redis.Nil {
		return &domain.DomainScores{Scores: []domain.DomainScore{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}

	var scores domain.DomainScores
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	if scores.Scores == nil {
		scores.Scores = []domain.DomainScore{}
	}
	return &scores, nil
}

// Save replaces the score collection and stamps LastUpdated
func (s *ScoreStore) Save(ctx context.Context, scores *domain.DomainScores) error {
	now := time.Now().UTC()
	scores.LastUpdated = &now

	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	if err := s.client.Set(ctx, scoresKey, data, 0).Err(); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}
