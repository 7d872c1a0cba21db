package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// MockFlashcardStore is a mock implementation of FlashcardStore for testing
type MockFlashcardStore struct {
	mu    sync.RWMutex
	decks map[string]*domain.FlashcardDeck
	meta  []*domain.FlashcardDeckMeta
}

// NewMockFlashcardStore creates a new MockFlashcardStore
func NewMockFlashcardStore() *MockFlashcardStore {
	return &MockFlashcardStore{
		decks: make(map[string]*domain.FlashcardDeck),
	}
}

func (m *MockFlashcardStore) ListDeckMeta(ctx context.Context) ([]*domain.FlashcardDeckMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.FlashcardDeckMeta, len(m.meta))
	for i, entry := range m.meta {
		c := *entry
		out[i] = &c
	}
	return out, nil
}

func (m *MockFlashcardStore) SaveDeckMeta(ctx context.Context, list []*domain.FlashcardDeckMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = make([]*domain.FlashcardDeckMeta, len(list))
	for i, entry := range list {
		c := *entry
		m.meta[i] = &c
	}
	return nil
}

func (m *MockFlashcardStore) ReadDeck(ctx context.Context, id string) (*domain.FlashcardDeck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deck, ok := m.decks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDeck(deck), nil
}

func (m *MockFlashcardStore) WriteDeck(ctx context.Context, deck *domain.FlashcardDeck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decks[deck.ID] = copyDeck(deck)
	return nil
}

// DeleteDeck removes a deck record directly (for test setup and the file
// store parity it mirrors).
func (m *MockFlashcardStore) DeleteDeck(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.decks, id)
}

func copyDeck(d *domain.FlashcardDeck) *domain.FlashcardDeck {
	c := *d
	c.Cards = make([]*domain.Flashcard, len(d.Cards))
	for i, card := range d.Cards {
		cc := *card
		if card.SRS != nil {
			srs := *card.SRS
			cc.SRS = &srs
		}
		c.Cards[i] = &cc
	}
	return &c
}
