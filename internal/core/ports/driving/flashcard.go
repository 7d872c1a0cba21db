package driving

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// DueDeck groups a deck's due cards for daily study.
type DueDeck struct {
	DeckID string              `json:"deck_id"`
	Name   string              `json:"name"`
	Due    []*domain.Flashcard `json:"due"`
}

// FlashcardService manages decks, cards and SM-2 review scheduling
type FlashcardService interface {
	// ListDecks returns deck listing entries, newest first
	ListDecks(ctx context.Context) ([]*domain.FlashcardDeckMeta, error)

	// GetDeck retrieves a deck with its cards
	GetDeck(ctx context.Context, deckID string) (*domain.FlashcardDeck, error)

	// CreateDeck creates an empty deck
	CreateDeck(ctx context.Context, name string) (*domain.FlashcardDeck, error)

	// RenameDeck renames a deck
	RenameDeck(ctx context.Context, deckID, name string) (*domain.FlashcardDeck, error)

	// DeleteDeck removes a deck from the listing
	DeleteDeck(ctx context.Context, deckID string) error

	// AddCard adds a card with fresh SRS state
	AddCard(ctx context.Context, deckID, front, back string) (*domain.Flashcard, error)

	// RemoveCard deletes a card from a deck
	RemoveCard(ctx context.Context, deckID, cardID string) error

	// ReviewCard applies an SM-2 review with quality 0-5
	ReviewCard(ctx context.Context, deckID, cardID string, quality int) (*domain.ReviewResult, error)

	// DueCards returns cards due for review, per deck, capped at limit.
	// With an empty deckID it spans all decks.
	DueCards(ctx context.Context, deckID string, limit int) ([]*DueDeck, error)
}
