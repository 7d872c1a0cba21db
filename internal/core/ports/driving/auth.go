package driving

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// AuthService handles account registration and cookie-session auth
type AuthService interface {
	// Register creates an account and opens a session
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.LoginResponse, error)

	// Login validates credentials and creates a session
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a cookie token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Logout invalidates the session behind a cookie token
	Logout(ctx context.Context, token string) error

	// Me returns the profile for an authenticated user
	Me(ctx context.Context, userID string) (*domain.UserSummary, error)
}
