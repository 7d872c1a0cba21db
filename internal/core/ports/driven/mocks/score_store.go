package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// MockScoreStore is a mock implementation of ScoreStore for testing
type MockScoreStore struct {
	mu     sync.RWMutex
	scores *domain.DomainScores
}

// NewMockScoreStore creates a new MockScoreStore
func NewMockScoreStore() *MockScoreStore {
	return &MockScoreStore{}
}

func (m *MockScoreStore) Load(ctx context.Context) (*domain.DomainScores, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.scores == nil {
		return &domain.DomainScores{Scores: []domain.DomainScore{}}, nil
	}
	c := *m.scores
	c.Scores = append([]domain.DomainScore(nil), m.scores.Scores...)
	return &c, nil
}

func (m *MockScoreStore) Save(ctx context.Context, scores *domain.DomainScores) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	c := *scores
	c.Scores = append([]domain.DomainScore(nil), scores.Scores...)
	c.LastUpdated = &now
	m.scores = &c
	return nil
}
