package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven/mocks"
)

func createTestFlashcardService(t *testing.T) (*flashcardService, *mocks.MockFlashcardStore) {
	t.Helper()
	store := mocks.NewMockFlashcardStore()
	svc := NewFlashcardService(store).(*flashcardService)
	return svc, store
}

func TestCreateDeck_AppearsInListing(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "Cardiologie")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deck.ID == "" || deck.Name != "Cardiologie" {
		t.Fatalf("unexpected deck: %+v", deck)
	}

	list, err := svc.ListDecks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != deck.ID || list[0].NumCards != 0 {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestCreateDeck_EmptyName(t *testing.T) {
	svc, _ := createTestFlashcardService(t)

	if _, err := svc.CreateDeck(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRenameDeck(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Ancien nom")
	renamed, err := svc.RenameDeck(ctx, deck.ID, "Nouveau nom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Name != "Nouveau nom" {
		t.Errorf("unexpected name %q", renamed.Name)
	}

	list, _ := svc.ListDecks(ctx)
	if list[0].Name != "Nouveau nom" {
		t.Error("listing not updated after rename")
	}
}

func TestDeleteDeck_RemovesFromListing(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Ephemere")
	if err := svc.DeleteDeck(ctx, deck.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, _ := svc.ListDecks(ctx)
	if len(list) != 0 {
		t.Errorf("expected empty listing, got %+v", list)
	}

	if err := svc.DeleteDeck(ctx, "deck_inconnu"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddCard_FreshSRSState(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Cartes")
	card, err := svc.AddCard(ctx, deck.ID, "Question", "Réponse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.SRS == nil {
		t.Fatal("expected SRS state on a new card")
	}
	if card.SRS.EaseFactor != initialEaseFactor || card.SRS.Repetition != 0 {
		t.Errorf("unexpected SRS state: %+v", card.SRS)
	}
	if !card.IsDue(time.Now()) {
		t.Error("new card should be due immediately")
	}

	list, _ := svc.ListDecks(ctx)
	if list[0].NumCards != 1 {
		t.Errorf("listing card count not updated: %d", list[0].NumCards)
	}
}

func TestRemoveCard(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Cartes")
	card, _ := svc.AddCard(ctx, deck.ID, "Question", "Réponse")

	if err := svc.RemoveCard(ctx, deck.ID, card.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveCard(ctx, deck.ID, card.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second removal, got %v", err)
	}

	updated, _ := svc.GetDeck(ctx, deck.ID)
	if len(updated.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(updated.Cards))
	}
}

func TestReviewCard_GoodQualityProgression(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	deck, _ := svc.CreateDeck(ctx, "Revision")
	card, _ := svc.AddCard(ctx, deck.ID, "Question", "Réponse")

	// First successful review: interval 1 day
	res, err := svc.ReviewCard(ctx, deck.ID, card.ID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IntervalDays != 1 || res.Repetition != 1 {
		t.Fatalf("unexpected first review result: %+v", res)
	}
	if !res.NextDueAt.Equal(base.AddDate(0, 0, 1)) {
		t.Errorf("unexpected due date: %v", res.NextDueAt)
	}

	// Second: interval 6 days
	res, _ = svc.ReviewCard(ctx, deck.ID, card.ID, 5)
	if res.IntervalDays != 6 || res.Repetition != 2 {
		t.Fatalf("unexpected second review result: %+v", res)
	}

	// Third: interval 6 * EF, rounded
	res, _ = svc.ReviewCard(ctx, deck.ID, card.ID, 5)
	expected := int(math.Round(6 * res.EaseFactor))
	// EF changed during this review; recompute from the result is close
	// enough for a sanity bound
	if res.IntervalDays < 13 || res.IntervalDays > expected+2 {
		t.Errorf("unexpected third interval: %d (EF %.2f)", res.IntervalDays, res.EaseFactor)
	}
	if res.EaseFactor <= initialEaseFactor {
		t.Errorf("expected ease factor to grow with quality 5, got %.2f", res.EaseFactor)
	}
}

func TestReviewCard_FailureResets(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Revision")
	card, _ := svc.AddCard(ctx, deck.ID, "Question", "Réponse")

	svc.ReviewCard(ctx, deck.ID, card.ID, 5)
	svc.ReviewCard(ctx, deck.ID, card.ID, 5)

	res, err := svc.ReviewCard(ctx, deck.ID, card.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Repetition != 0 || res.IntervalDays != 1 {
		t.Errorf("expected reset schedule, got %+v", res)
	}
	// Two quality-5 bonuses then the 0.2 penalty land back near 2.5
	if res.EaseFactor > initialEaseFactor+0.01 {
		t.Errorf("expected ease factor penalty, got %.2f", res.EaseFactor)
	}

	updated, _ := svc.GetDeck(ctx, deck.ID)
	if updated.Cards[0].SRS.Lapses != 1 {
		t.Errorf("expected one lapse, got %d", updated.Cards[0].SRS.Lapses)
	}
}

func TestReviewCard_EaseFactorFloor(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Revision")
	card, _ := svc.AddCard(ctx, deck.ID, "Question", "Réponse")

	for i := 0; i < 10; i++ {
		if _, err := svc.ReviewCard(ctx, deck.ID, card.ID, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	updated, _ := svc.GetDeck(ctx, deck.ID)
	if updated.Cards[0].SRS.EaseFactor != minEaseFactor {
		t.Errorf("expected ease factor floored at %.1f, got %.2f", minEaseFactor, updated.Cards[0].SRS.EaseFactor)
	}
}

func TestReviewCard_BadInput(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Revision")
	card, _ := svc.AddCard(ctx, deck.ID, "Question", "Réponse")

	if _, err := svc.ReviewCard(ctx, deck.ID, card.ID, 6); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for quality 6, got %v", err)
	}
	if _, err := svc.ReviewCard(ctx, deck.ID, "card_inconnu", 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown card, got %v", err)
	}
}

func TestDueCards_AcrossDecks(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deckA, _ := svc.CreateDeck(ctx, "Deck A")
	deckB, _ := svc.CreateDeck(ctx, "Deck B")
	cardA, _ := svc.AddCard(ctx, deckA.ID, "QA", "RA")
	svc.AddCard(ctx, deckB.ID, "QB", "RB")

	// Push deck A's card into the future
	if _, err := svc.ReviewCard(ctx, deckA.ID, cardA.ID, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	due, err := svc.DueCards(ctx, "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected only deck B to have due cards, got %d decks", len(due))
	}
	if due[0].DeckID != deckB.ID || len(due[0].Due) != 1 {
		t.Errorf("unexpected due deck: %+v", due[0])
	}
}

func TestDueCards_SingleDeckLimit(t *testing.T) {
	svc, _ := createTestFlashcardService(t)
	ctx := context.Background()

	deck, _ := svc.CreateDeck(ctx, "Deck")
	for i := 0; i < 5; i++ {
		svc.AddCard(ctx, deck.ID, "Question", "Réponse")
	}

	due, err := svc.DueCards(ctx, deck.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 || len(due[0].Due) != 3 {
		t.Fatalf("expected 3 due cards from one deck, got %+v", due)
	}
}
