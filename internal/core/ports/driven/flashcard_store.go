package driven

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// FlashcardStore persists flashcard decks and their listing projection.
type FlashcardStore interface {
	// ListDeckMeta returns the deck listing entries
	ListDeckMeta(ctx context.Context) ([]*domain.FlashcardDeckMeta, error)

	// SaveDeckMeta replaces the deck listing
	SaveDeckMeta(ctx context.Context, list []*domain.FlashcardDeckMeta) error

	// ReadDeck retrieves a deck with its cards.
	// Returns domain.ErrNotFound when the deck does not exist.
	ReadDeck(ctx context.Context, id string) (*domain.FlashcardDeck, error)

	// WriteDeck stores the full deck record
	WriteDeck(ctx context.Context, deck *domain.FlashcardDeck) error
}
