package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// MockQuizStore is a mock implementation of QuizStore for testing.
// Sessions and registry entries are deep-copied on the way in and out so
// tests cannot accidentally share state with the service under test.
type MockQuizStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.QuizSession
	summaries []*domain.SessionSummary

	// Custom behavior hooks (optional)
	WriteSessionFn func(session *domain.QuizSession) error
	ReadSessionFn  func(id string) (*domain.QuizSession, error)

	// WriteCount tracks WriteSession calls (for test assertions)
	WriteCount int
}

// NewMockQuizStore creates a new MockQuizStore
func NewMockQuizStore() *MockQuizStore {
	return &MockQuizStore{
		sessions: make(map[string]*domain.QuizSession),
	}
}

func (m *MockQuizStore) WriteSession(ctx context.Context, session *domain.QuizSession) error {
	if m.WriteSessionFn != nil {
		return m.WriteSessionFn(session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCount++
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *MockQuizStore) ReadSession(ctx context.Context, id string) (*domain.QuizSession, error) {
	if m.ReadSessionFn != nil {
		return m.ReadSessionFn(id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(session), nil
}

func (m *MockQuizStore) ListSummaries(ctx context.Context) ([]*domain.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SessionSummary, len(m.summaries))
	for i, entry := range m.summaries {
		c := *entry
		out[i] = &c
	}
	return out, nil
}

func (m *MockQuizStore) SaveSummaries(ctx context.Context, list []*domain.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = make([]*domain.SessionSummary, len(list))
	for i, entry := range list {
		c := *entry
		m.summaries[i] = &c
	}
	return nil
}

func (m *MockQuizStore) UpsertSummary(ctx context.Context, entry *domain.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	for i, existing := range m.summaries {
		if existing.ID == entry.ID {
			m.summaries[i] = &c
			return nil
		}
	}
	m.summaries = append(m.summaries, &c)
	return nil
}

// Summary returns the registry entry for a session (for test assertions).
func (m *MockQuizStore) Summary(id string) *domain.SessionSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.summaries {
		if entry.ID == id {
			c := *entry
			return &c
		}
	}
	return nil
}

// Seed stores a session and its registry entry directly (for test setup).
func (m *MockQuizStore) Seed(session *domain.QuizSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = copySession(session)
	summary := session.ToSummary()
	for i, existing := range m.summaries {
		if existing.ID == summary.ID {
			m.summaries[i] = summary
			return
		}
	}
	m.summaries = append(m.summaries, summary)
}

func copySession(s *domain.QuizSession) *domain.QuizSession {
	c := *s
	c.Chunks = append([]domain.Chunk(nil), s.Chunks...)
	c.ChunkOrder = append([]int(nil), s.ChunkOrder...)
	c.UsedChunks = append([]int(nil), s.UsedChunks...)
	c.Questions = make([]*domain.GeneratedQuestion, len(s.Questions))
	for i, q := range s.Questions {
		qc := *q
		qc.Propositions = append([]domain.Proposition(nil), q.Propositions...)
		c.Questions[i] = &qc
	}
	return &c
}
