package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// setupTestRedis creates a miniredis-backed client for adapter tests
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func createTestQuizSession(id string) *domain.QuizSession {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.QuizSession{
		ID:       id,
		UserID:   "user-1",
		Filename: "cours.pdf",
		Tone:     "concis",
		Total:    8,
		Status:   domain.StatusProcessing,
		Chunks: []domain.Chunk{
			{ID: "chunk_0", Heading: "Introduction", Content: "Du contenu pour le premier fragment du cours."},
		},
		ChunkOrder: []int{0, 0, 0, 0, 0, 0, 0, 0},
		UsedChunks: []int{},
		Questions:  []*domain.GeneratedQuestion{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestQuizStore_WriteReadSession(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewQuizStore(client)
	ctx := context.Background()

	session := createTestQuizSession("session_1")
	if err := store.WriteSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.ReadSession(ctx, "session_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != session.ID || got.Filename != session.Filename || got.Total != session.Total {
		t.Errorf("session round trip mismatch: %+v", got)
	}
	if len(got.Chunks) != 1 || got.Chunks[0].ID != "chunk_0" {
		t.Errorf("chunks not preserved: %+v", got.Chunks)
	}
	if len(got.ChunkOrder) != 8 {
		t.Errorf("chunk order not preserved: %v", got.ChunkOrder)
	}
}

func TestQuizStore_ReadSession_NotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewQuizStore(client)

	_, err := store.ReadSession(context.Background(), "absent")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestQuizStore_Registry(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	store := NewQuizStore(client)
	ctx := context.Background()

	// Empty registry reads as an empty list
	list, err := store.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty registry, got %d entries", len(list))
	}

	s1 := createTestQuizSession("session_1")
	s2 := createTestQuizSession("session_2")
	if err := store.UpsertSummary(ctx, s1.ToSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.UpsertSummary(ctx, s2.ToSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, _ = store.ListSummaries(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}

	// Upsert replaces in place
	s1.Status = domain.StatusCompleted
	s1.Available = 8
	if err := store.UpsertSummary(ctx, s1.ToSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ = store.ListSummaries(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(list))
	}
	for _, entry := range list {
		if entry.ID == "session_1" && entry.Status != domain.StatusCompleted {
			t.Errorf("upsert did not replace entry: %+v", entry)
		}
	}

	// SaveSummaries replaces the whole list
	if err := store.SaveSummaries(ctx, []*domain.SessionSummary{s2.ToSummary()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ = store.ListSummaries(ctx)
	if len(list) != 1 || list[0].ID != "session_2" {
		t.Errorf("registry not replaced: %+v", list)
	}
}
