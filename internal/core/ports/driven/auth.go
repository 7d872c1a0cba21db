package driven

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// AuthAdapter handles password hashing and token signing
type AuthAdapter interface {
	// HashPassword generates a hash from a plaintext password
	HashPassword(password string) (string, error)

	// VerifyPassword checks if a password matches a hash
	VerifyPassword(password, hash string) bool

	// GenerateToken creates a signed token from domain claims
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a token and extracts domain claims
	ParseToken(token string) (*domain.TokenClaims, error)
}

// UserStore handles user persistence
type UserStore interface {
	// Create stores a new user. Returns domain.ErrAlreadyExists when the
	// email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update rewrites an existing user record
	Update(ctx context.Context, user *domain.User) error
}

// AuthSessionStore handles cookie-session persistence
type AuthSessionStore interface {
	// Save stores an auth session
	Save(ctx context.Context, session *domain.AuthSession) error

	// GetByToken retrieves a session by token value
	GetByToken(ctx context.Context, token string) (*domain.AuthSession, error)

	// Delete deletes a session by ID
	Delete(ctx context.Context, id string) error

	// DeleteByToken deletes a session by token
	DeleteByToken(ctx context.Context, token string) error

	// ListByUser lists all sessions for a user
	ListByUser(ctx context.Context, userID string) ([]*domain.AuthSession, error)
}
