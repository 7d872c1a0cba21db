package mocks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Ensure MockAuthAdapter implements AuthAdapter
var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

// MockAuthAdapter is a mock implementation of AuthAdapter for testing.
// It uses plain text password comparison and base64-encoded JSON for tokens.
// NOT secure - only for testing.
type MockAuthAdapter struct{}

// NewMockAuthAdapter creates a new MockAuthAdapter
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{}
}

// HashPassword returns the password as-is (for testing only)
func (m *MockAuthAdapter) HashPassword(password string) (string, error) {
	return password, nil
}

// VerifyPassword compares password with hash directly (for testing only)
func (m *MockAuthAdapter) VerifyPassword(password, hash string) bool {
	return password == hash
}

// GenerateToken creates a base64-encoded JSON token from claims
func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseToken decodes a base64-encoded JSON token and returns claims
func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	var claims domain.TokenClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}

// MockUserStore is a mock implementation of UserStore for testing
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserStore creates a new MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrAlreadyExists
		}
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			c := *user
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

// MockAuthSessionStore is a mock implementation of AuthSessionStore for testing
type MockAuthSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.AuthSession
}

// NewMockAuthSessionStore creates a new MockAuthSessionStore
func NewMockAuthSessionStore() *MockAuthSessionStore {
	return &MockAuthSessionStore{
		sessions: make(map[string]*domain.AuthSession),
	}
}

func (m *MockAuthSessionStore) Save(ctx context.Context, session *domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *session
	m.sessions[session.ID] = &c
	return nil
}

func (m *MockAuthSessionStore) GetByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, session := range m.sessions {
		if session.Token == token {
			c := *session
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAuthSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockAuthSessionStore) DeleteByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.Token == token {
			delete(m.sessions, id)
			return nil
		}
	}
	return nil
}

func (m *MockAuthSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.AuthSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.AuthSession
	for _, session := range m.sessions {
		if session.UserID == userID {
			c := *session
			result = append(result, &c)
		}
	}
	return result, nil
}
