package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

const (
	minPasswordLength = 8

	// maxSessionsPerUser bounds the live session records per account;
	// the oldest sessions are evicted when a new login exceeds it
	maxSessionsPerUser = 20
)

// authService implements the AuthService interface
type authService struct {
	userStore    driven.UserStore
	sessionStore driven.AuthSessionStore
	authAdapter  driven.AuthAdapter
	tokenTTL     time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userStore driven.UserStore,
	sessionStore driven.AuthSessionStore,
	authAdapter driven.AuthAdapter,
) driving.AuthService {
	return &authService{
		userStore:    userStore,
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
		tokenTTL:     30 * 24 * time.Hour,
	}
}

// Register creates an account and opens a session
func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.LoginResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidInput
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidInput
	}

	hash, err := s.authAdapter.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           generateID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login validates credentials and creates a session
func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userStore.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !s.authAdapter.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	user.LastLoginAt = time.Now().UTC()
	_ = s.userStore.Update(ctx, user)

	return s.openSession(ctx, user)
}

// ValidateToken validates a cookie token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	// The server-side record must still exist; logout deletes it
	session, err := s.sessionStore.GetByToken(ctx, token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}

// Logout invalidates the session behind a cookie token
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessionStore.DeleteByToken(ctx, token)
}

// Me returns the profile for an authenticated user
func (s *authService) Me(ctx context.Context, userID string) (*domain.UserSummary, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToSummary(), nil
}

func (s *authService) openSession(ctx context.Context, user *domain.User) (*domain.LoginResponse, error) {
	sessionID := generateID()
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := &domain.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return nil, err
	}

	session := &domain.AuthSession{
		ID:        sessionID,
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.sessionStore.Save(ctx, session); err != nil {
		return nil, err
	}
	s.pruneSessions(ctx, user.ID)

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToSummary(),
	}, nil
}

// pruneSessions evicts the oldest sessions once a user exceeds the cap.
// Best effort: a failed listing never blocks a successful login.
func (s *authService) pruneSessions(ctx context.Context, userID string) {
	sessions, err := s.sessionStore.ListByUser(ctx, userID)
	if err != nil || len(sessions) <= maxSessionsPerUser {
		return
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	for _, old := range sessions[:len(sessions)-maxSessionsPerUser] {
		_ = s.sessionStore.Delete(ctx, old.ID)
	}
}

// generateID returns a URL-safe random identifier
func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
