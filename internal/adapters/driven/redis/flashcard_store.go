package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FlashcardStore = (*FlashcardStore)(nil)

const (
	flashcardDeckPrefix = "flashcards:deck:"
	flashcardListKey    = "flashcards:decks"
)

// FlashcardStore implements driven.FlashcardStore using Redis.
type FlashcardStore struct {
	client *redis.Client
}

// NewFlashcardStore creates a new Redis-backed FlashcardStore
func NewFlashcardStore(client *redis.Client) *FlashcardStore {
	return &FlashcardStore{client: client}
}

// ListDeckMeta returns the deck listing entries
func (s *FlashcardStore) ListDeckMeta(ctx context.Context) ([]*domain.FlashcardDeckMeta, error) {
	data, err := s.client.Get(ctx, flashcardListKey).Bytes()
	if err == redis.Nil {
		return []*domain.FlashcardDeckMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read deck listing: %w", err)
	}

	var list []*domain.FlashcardDeckMeta
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal deck listing: %w", err)
	}
	return list, nil
}

// SaveDeckMeta replaces the deck listing
func (s *FlashcardStore) SaveDeckMeta(ctx context.Context, list []*domain.FlashcardDeckMeta) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal deck listing: %w", err)
	}
	if err := s.client.Set(ctx, flashcardListKey, data, 0).Err(); err != nil {
		return fmt.Errorf("write deck listing: %w", err)
	}
	return nil
}

// ReadDeck retrieves a deck with its cards
func (s *FlashcardStore) ReadDeck(ctx context.Context, id string) (*domain.FlashcardDeck, error) {
	data, err := s.client.Get(ctx, flashcardDeckPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read deck %s: %w", id, err)
	}

	var deck domain.FlashcardDeck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("unmarshal deck %s: %w", id, err)
	}
	return &deck, nil
}

// WriteDeck stores the full deck record
func (s *FlashcardStore) WriteDeck(ctx context.Context, deck *domain.FlashcardDeck) error {
	data, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("marshal deck: %w", err)
	}
	if err := s.client.Set(ctx, flashcardDeckPrefix+deck.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("write deck %s: %w", deck.ID, err)
	}
	return nil
}
