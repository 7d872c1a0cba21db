package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.UserStore        = (*UserStore)(nil)
	_ driven.AuthSessionStore = (*AuthSessionStore)(nil)
)

const (
	usersKey          = "users"
	userEmailPrefix   = "users:email:"
	authSessionPrefix = "auth:session:"
	authTokenPrefix   = "auth:session:token:"
	authUserPrefix    = "auth:session:user:"
	authUserSetTTL    = 30 * 24 * time.Hour
)

// UserStore implements driven.UserStore using Redis.
// Users live in a hash keyed by ID with an email index for login lookups.
type UserStore struct {
	client *redis.Client
}

// NewUserStore creates a new Redis-backed UserStore
func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client}
}

// Create stores a new user, guarding email uniqueness through the index
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	emailKey := userEmailPrefix + strings.ToLower(user.Email)

	ok, err := s.client.SetNX(ctx, emailKey, user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("index user email: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.HSet(ctx, usersKey, user.ID, data).Err(); err != nil {
		// Roll back the email index so the address is not burned
		_ = s.client.Del(ctx, emailKey).Err()
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	data, err := s.client.HGet(ctx, usersKey, id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email (case-insensitive)
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := s.client.Get(ctx, userEmailPrefix+strings.ToLower(email)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user email: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Update rewrites an existing user record
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	exists, err := s.client.HExists(ctx, usersKey, user.ID).Result()
	if err != nil {
		return fmt.Errorf("check user %s: %w", user.ID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.HSet(ctx, usersKey, user.ID, data).Err(); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// AuthSessionStore implements driven.AuthSessionStore using Redis.
// Sessions piggyback on Redis TTLs for expiry; the token index and the
// per-user set are written in one pipeline with the record.
type AuthSessionStore struct {
	client *redis.Client
}

// NewAuthSessionStore creates a new Redis-backed AuthSessionStore
func NewAuthSessionStore(client *redis.Client) *AuthSessionStore {
	return &AuthSessionStore{client: client}
}

// Save stores an auth session with TTL based on ExpiresAt
func (s *AuthSessionStore) Save(ctx context.Context, session *domain.AuthSession) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal auth session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, authSessionPrefix+session.ID, data, ttl)
	pipe.Set(ctx, authTokenPrefix+session.Token, session.ID, ttl)
	pipe.SAdd(ctx, authUserPrefix+session.UserID, session.ID)
	pipe.Expire(ctx, authUserPrefix+session.UserID, authUserSetTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save auth session: %w", err)
	}
	return nil
}

// GetByToken retrieves a session by token value
func (s *AuthSessionStore) GetByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	id, err := s.client.Get(ctx, authTokenPrefix+token).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve auth token: %w", err)
	}
	return s.get(ctx, id)
}

// Delete deletes a session by ID
func (s *AuthSessionStore) Delete(ctx context.Context, id string) error {
	session, err := s.get(ctx, id)
	if err == domain.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, authSessionPrefix+id)
	pipe.Del(ctx, authTokenPrefix+session.Token)
	pipe.SRem(ctx, authUserPrefix+session.UserID, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

// DeleteByToken deletes a session by token
func (s *AuthSessionStore) DeleteByToken(ctx context.Context, token string) error {
	id, err := s.client.Get(ctx, authTokenPrefix+token).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve auth token: %w", err)
	}
	return s.Delete(ctx, id)
}

// ListByUser lists all live sessions for a user
func (s *AuthSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.AuthSession, error) {
	ids, err := s.client.SMembers(ctx, authUserPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	var sessions []*domain.AuthSession
	for _, id := range ids {
		session, err := s.get(ctx, id)
		if err == domain.ErrNotFound {
			// Record expired out from under the set; prune the member
			_ = s.client.SRem(ctx, authUserPrefix+userID, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *AuthSessionStore) get(ctx context.Context, id string) (*domain.AuthSession, error) {
	data, err := s.client.Get(ctx, authSessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read auth session %s: %w", id, err)
	}

	var session domain.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal auth session %s: %w", id, err)
	}
	return &session, nil
}
