package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Ensure flashcardService implements FlashcardService
var _ driving.FlashcardService = (*flashcardService)(nil)

const (
	minEaseFactor     = 1.3
	initialEaseFactor = 2.5
	defaultDueLimit   = 20
)

// flashcardService manages decks and SM-2 spaced-repetition scheduling.
// Deck records are authoritative; the deck listing is a projection kept in
// step on every write.
type flashcardService struct {
	store driven.FlashcardStore
	now   func() time.Time
}

// NewFlashcardService creates a new FlashcardService
func NewFlashcardService(store driven.FlashcardStore) driving.FlashcardService {
	return &flashcardService{
		store: store,
		now:   time.Now,
	}
}

func (s *flashcardService) ListDecks(ctx context.Context) ([]*domain.FlashcardDeckMeta, error) {
	list, err := s.store.ListDeckMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *flashcardService) GetDeck(ctx context.Context, deckID string) (*domain.FlashcardDeck, error) {
	if deckID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.ReadDeck(ctx, deckID)
}

func (s *flashcardService) CreateDeck(ctx context.Context, name string) (*domain.FlashcardDeck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	now := s.now().UTC()
	deck := &domain.FlashcardDeck{
		ID:        "deck_" + uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Cards:     []*domain.Flashcard{},
	}
	if err := s.store.WriteDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}
	if err := s.syncMeta(ctx, deck, false); err != nil {
		return nil, err
	}
	return deck, nil
}

func (s *flashcardService) RenameDeck(ctx context.Context, deckID, name string) (*domain.FlashcardDeck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	deck, err := s.store.ReadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	deck.Name = name
	deck.UpdatedAt = s.now().UTC()
	if err := s.store.WriteDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}
	if err := s.syncMeta(ctx, deck, false); err != nil {
		return nil, err
	}
	return deck, nil
}

func (s *flashcardService) DeleteDeck(ctx context.Context, deckID string) error {
	deck, err := s.store.ReadDeck(ctx, deckID)
	if err != nil {
		return err
	}
	return s.syncMeta(ctx, deck, true)
}

func (s *flashcardService) AddCard(ctx context.Context, deckID, front, back string) (*domain.Flashcard, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return nil, domain.ErrInvalidInput
	}

	deck, err := s.store.ReadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	card := &domain.Flashcard{
		ID:        "card_" + uuid.NewString(),
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
		SRS: &domain.FlashcardSRS{
			Repetition:   0,
			IntervalDays: 0,
			EaseFactor:   initialEaseFactor,
			DueAt:        now,
		},
	}
	deck.Cards = append(deck.Cards, card)
	deck.UpdatedAt = now

	if err := s.store.WriteDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}
	if err := s.syncMeta(ctx, deck, false); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *flashcardService) RemoveCard(ctx context.Context, deckID, cardID string) error {
	deck, err := s.store.ReadDeck(ctx, deckID)
	if err != nil {
		return err
	}

	kept := deck.Cards[:0:0]
	found := false
	for _, card := range deck.Cards {
		if card.ID == cardID {
			found = true
			continue
		}
		kept = append(kept, card)
	}
	if !found {
		return domain.ErrNotFound
	}
	deck.Cards = kept
	deck.UpdatedAt = s.now().UTC()

	if err := s.store.WriteDeck(ctx, deck); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	return s.syncMeta(ctx, deck, false)
}

// ReviewCard applies one SM-2 review. Quality 3-5 advances the schedule,
// 0-2 resets the repetition streak and records a lapse.
func (s *flashcardService) ReviewCard(ctx context.Context, deckID, cardID string, quality int) (*domain.ReviewResult, error) {
	if quality < 0 || quality > 5 {
		return nil, domain.ErrInvalidInput
	}

	deck, err := s.store.ReadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	var card *domain.Flashcard
	for _, c := range deck.Cards {
		if c.ID == cardID {
			card = c
			break
		}
	}
	if card == nil {
		return nil, domain.ErrNotFound
	}

	now := s.now().UTC()
	if card.SRS == nil {
		card.SRS = &domain.FlashcardSRS{EaseFactor: initialEaseFactor, DueAt: now}
	}
	applyReview(card.SRS, quality, now)
	card.UpdatedAt = now
	deck.UpdatedAt = now

	if err := s.store.WriteDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}

	return &domain.ReviewResult{
		NextDueAt:    card.SRS.DueAt,
		Repetition:   card.SRS.Repetition,
		IntervalDays: card.SRS.IntervalDays,
		EaseFactor:   card.SRS.EaseFactor,
	}, nil
}

func (s *flashcardService) DueCards(ctx context.Context, deckID string, limit int) ([]*driving.DueDeck, error) {
	if limit <= 0 {
		limit = defaultDueLimit
	}

	var deckIDs []string
	names := map[string]string{}
	if deckID != "" {
		deckIDs = []string{deckID}
	} else {
		metas, err := s.store.ListDeckMeta(ctx)
		if err != nil {
			return nil, fmt.Errorf("list decks: %w", err)
		}
		for _, meta := range metas {
			deckIDs = append(deckIDs, meta.ID)
			names[meta.ID] = meta.Name
		}
	}

	now := s.now().UTC()
	var result []*driving.DueDeck
	for _, id := range deckIDs {
		deck, err := s.store.ReadDeck(ctx, id)
		if err != nil {
			return nil, err
		}
		var due []*domain.Flashcard
		for _, card := range deck.Cards {
			if len(due) == limit {
				break
			}
			if card.IsDue(now) {
				due = append(due, card)
			}
		}
		if len(due) == 0 && deckID == "" {
			continue
		}
		name := deck.Name
		if name == "" {
			name = names[id]
		}
		result = append(result, &driving.DueDeck{DeckID: id, Name: name, Due: due})
	}
	return result, nil
}

// applyReview mutates SRS state per the SM-2 algorithm.
func applyReview(srs *domain.FlashcardSRS, quality int, now time.Time) {
	if quality >= 3 {
		switch srs.Repetition {
		case 0:
			srs.IntervalDays = 1
		case 1:
			srs.IntervalDays = 6
		default:
			srs.IntervalDays = int(math.Round(float64(srs.IntervalDays) * srs.EaseFactor))
		}
		srs.Repetition++
		q := float64(quality)
		srs.EaseFactor += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	} else {
		srs.Repetition = 0
		srs.IntervalDays = 1
		srs.Lapses++
		srs.EaseFactor -= 0.2
	}
	if srs.EaseFactor < minEaseFactor {
		srs.EaseFactor = minEaseFactor
	}
	if srs.IntervalDays < 1 {
		srs.IntervalDays = 1
	}
	srs.DueAt = now.AddDate(0, 0, srs.IntervalDays)
}

// syncMeta rewrites the deck listing projection after a deck write.
func (s *flashcardService) syncMeta(ctx context.Context, deck *domain.FlashcardDeck, remove bool) error {
	metas, err := s.store.ListDeckMeta(ctx)
	if err != nil {
		return fmt.Errorf("list decks: %w", err)
	}

	out := metas[:0:0]
	for _, meta := range metas {
		if meta.ID == deck.ID {
			continue
		}
		out = append(out, meta)
	}
	if !remove {
		out = append(out, deck.ToMeta())
	}
	if err := s.store.SaveDeckMeta(ctx, out); err != nil {
		return fmt.Errorf("save deck listing: %w", err)
	}
	return nil
}
