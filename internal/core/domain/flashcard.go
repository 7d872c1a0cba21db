package domain

import "time"

// FlashcardSRS holds SM-2 spaced-repetition state for one card.
type FlashcardSRS struct {
	Repetition   int       `json:"repetition"`    // successful reviews in a row
	IntervalDays int       `json:"interval_days"` // current interval in days
	EaseFactor   float64   `json:"ease_factor"`   // SM-2 ease factor (min 1.3)
	DueAt        time.Time `json:"due_at"`
	Lapses       int       `json:"lapses"`
}

// Flashcard is one front/back card within a deck.
type Flashcard struct {
	ID        string        `json:"id"`
	Front     string        `json:"front"`
	Back      string        `json:"back"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	SRS       *FlashcardSRS `json:"srs,omitempty"`
}

// IsDue reports whether the card is due for review at the given time.
// Cards without SRS state are always due.
func (c *Flashcard) IsDue(now time.Time) bool {
	if c.SRS == nil {
		return true
	}
	return !c.SRS.DueAt.After(now)
}

// FlashcardDeck is the authoritative record for one deck and its cards.
type FlashcardDeck struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	UserID    string       `json:"user_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Cards     []*Flashcard `json:"cards"`
}

// ToMeta projects the deck into its listing entry.
func (d *FlashcardDeck) ToMeta() *FlashcardDeckMeta {
	return &FlashcardDeckMeta{
		ID:        d.ID,
		Name:      d.Name,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		NumCards:  len(d.Cards),
	}
}

// FlashcardDeckMeta is the list-oriented projection of a deck.
type FlashcardDeckMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	NumCards  int       `json:"num_cards"`
}

// ReviewResult reports the updated schedule after a card review.
type ReviewResult struct {
	NextDueAt    time.Time `json:"next_due_at"`
	Repetition   int       `json:"repetition"`
	IntervalDays int       `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
}
