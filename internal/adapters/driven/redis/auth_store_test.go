package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

func TestUserStore_CreateAndLookup(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewUserStore(client)
	ctx := context.Background()

	user := &domain.User{
		ID:           "user-1",
		Email:        "etudiant@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID, err := store.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("unexpected email %q", byID.Email)
	}

	// Email lookup is case-insensitive
	byEmail, err := store.GetByEmail(ctx, "ETUDIANT@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Errorf("unexpected user %q", byEmail.ID)
	}
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewUserStore(client)
	ctx := context.Background()

	first := &domain.User{ID: "user-1", Email: "double@example.com"}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &domain.User{ID: "user-2", Email: "Double@Example.com"}
	if err := store.Create(ctx, second); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUserStore_Update(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewUserStore(client)
	ctx := context.Background()

	user := &domain.User{ID: "user-1", Email: "maj@example.com"}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user.LastLoginAt = time.Now().UTC()
	if err := store.Update(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := store.GetByID(ctx, "user-1")
	if got.LastLoginAt.IsZero() {
		t.Error("expected last login persisted")
	}

	unknown := &domain.User{ID: "user-x", Email: "x@example.com"}
	if err := store.Update(ctx, unknown); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthSessionStore_SaveGetDelete(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewAuthSessionStore(client)
	ctx := context.Background()

	session := &domain.AuthSession{
		ID:        "auth-1",
		UserID:    "user-1",
		Token:     "token-abc",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetByToken(ctx, "token-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "auth-1" || got.UserID != "user-1" {
		t.Errorf("unexpected session %+v", got)
	}

	list, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 session, got %d", len(list))
	}

	if err := store.DeleteByToken(ctx, "token-abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetByToken(ctx, "token-abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAuthSessionStore_ExpiredNotSaved(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewAuthSessionStore(client)
	ctx := context.Background()

	session := &domain.AuthSession{
		ID:        "auth-1",
		UserID:    "user-1",
		Token:     "token-abc",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetByToken(ctx, "token-abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}
}
