package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.QuizStore        = (*QuizStore)(nil)
	_ driven.UserStore        = (*UserStore)(nil)
	_ driven.AuthSessionStore = (*AuthSessionStore)(nil)
	_ driven.FlashcardStore   = (*FlashcardStore)(nil)
	_ driven.ScoreStore       = (*ScoreStore)(nil)
)

// Storage filenames inside the state directory.
const (
	registryFile     = "sessions.json"
	usersFile        = "users.json"
	authSessionsFile = "auth-sessions.json"
	deckListFile     = "flashcards-decks.json"
	scoresFile       = "domain-scores.json"
)

// writeJSONFile writes data atomically: marshal, write to a temp file in
// the same directory, then rename over the target.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSONFile reads path into v. A missing file reports os.ErrNotExist.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

// QuizStore implements driven.QuizStore on a local directory.
// One file per session plus a registry file; a process-wide mutex
// serializes writers within this replica.
type QuizStore struct {
	dir string
	mu  sync.Mutex
}

// NewQuizStore creates a file-backed QuizStore rooted at dir
func NewQuizStore(dir string) (*QuizStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &QuizStore{dir: dir}, nil
}

func (s *QuizStore) sessionPath(id string) string {
	// Session IDs are generated server-side, but keep paths inside dir
	return filepath.Join(s.dir, "session-"+filepath.Base(id)+".json")
}

// WriteSession stores the full authoritative session record
func (s *QuizStore) WriteSession(ctx context.Context, session *domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(s.sessionPath(session.ID), session)
}

// ReadSession retrieves a session by ID
func (s *QuizStore) ReadSession(ctx context.Context, id string) (*domain.QuizSession, error) {
	var session domain.QuizSession
	if err := readJSONFile(s.sessionPath(id), &session); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListSummaries returns all registry entries
func (s *QuizStore) ListSummaries(ctx context.Context) ([]*domain.SessionSummary, error) {
	var list []*domain.SessionSummary
	if err := readJSONFile(filepath.Join(s.dir, registryFile), &list); err != nil {
		if os.IsNotExist(err) {
			return []*domain.SessionSummary{}, nil
		}
		return nil, err
	}
	return list, nil
}

// SaveSummaries replaces the whole registry list
func (s *QuizStore) SaveSummaries(ctx context.Context, list []*domain.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(filepath.Join(s.dir, registryFile), list)
}

// UpsertSummary inserts or updates a single registry entry
func (s *QuizStore) UpsertSummary(ctx context.Context, entry *domain.SessionSummary) error {
	list, err := s.ListSummaries(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range list {
		if existing.ID == entry.ID {
			list[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, entry)
	}
	return s.SaveSummaries(ctx, list)
}

// UserStore implements driven.UserStore on a single JSON file.
type UserStore struct {
	path string
	mu   sync.Mutex
}

// NewUserStore creates a file-backed UserStore under dir
func NewUserStore(dir string) (*UserStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &UserStore{path: filepath.Join(dir, usersFile)}, nil
}

func (s *UserStore) load() ([]*domain.User, error) {
	var users []*domain.User
	if err := readJSONFile(s.path, &users); err != nil {
		if os.IsNotExist(err) {
			return []*domain.User{}, nil
		}
		return nil, err
	}
	return users, nil
}

// Create stores a new user
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrAlreadyExists
		}
	}
	users = append(users, user)
	return writeJSONFile(s.path, users)
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByEmail retrieves a user by email (case-insensitive)
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update rewrites an existing user record
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range users {
		if existing.ID == user.ID {
			users[i] = user
			return writeJSONFile(s.path, users)
		}
	}
	return domain.ErrNotFound
}

// AuthSessionStore implements driven.AuthSessionStore on a single JSON
// file. Expired records are pruned lazily on every load.
type AuthSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewAuthSessionStore creates a file-backed AuthSessionStore under dir
func NewAuthSessionStore(dir string) (*AuthSessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &AuthSessionStore{path: filepath.Join(dir, authSessionsFile)}, nil
}

func (s *AuthSessionStore) load() ([]*domain.AuthSession, error) {
	var sessions []*domain.AuthSession
	if err := readJSONFile(s.path, &sessions); err != nil {
		if os.IsNotExist(err) {
			return []*domain.AuthSession{}, nil
		}
		return nil, err
	}
	live := sessions[:0:0]
	for _, session := range sessions {
		if !session.IsExpired() {
			live = append(live, session)
		}
	}
	return live, nil
}

// Save stores an auth session
func (s *AuthSessionStore) Save(ctx context.Context, session *domain.AuthSession) error {
	if time.Until(session.ExpiresAt) <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}
	return writeJSONFile(s.path, sessions)
}

// GetByToken retrieves a session by token value
func (s *AuthSessionStore) GetByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.Token == token {
			return session, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Delete deletes a session by ID
func (s *AuthSessionStore) Delete(ctx context.Context, id string) error {
	return s.deleteWhere(func(session *domain.AuthSession) bool {
		return session.ID == id
	})
}

// DeleteByToken deletes a session by token
func (s *AuthSessionStore) DeleteByToken(ctx context.Context, token string) error {
	return s.deleteWhere(func(session *domain.AuthSession) bool {
		return session.Token == token
	})
}

func (s *AuthSessionStore) deleteWhere(match func(*domain.AuthSession) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.load()
	if err != nil {
		return err
	}
	kept := sessions[:0:0]
	for _, session := range sessions {
		if !match(session) {
			kept = append(kept, session)
		}
	}
	return writeJSONFile(s.path, kept)
}

// ListByUser lists all live sessions for a user
func (s *AuthSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.AuthSession, error) {
	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	var result []*domain.AuthSession
	for _, session := range sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result, nil
}

// FlashcardStore implements driven.FlashcardStore on a local directory.
// One file per deck plus a listing file.
type FlashcardStore struct {
	dir string
	mu  sync.Mutex
}

// NewFlashcardStore creates a file-backed FlashcardStore rooted at dir
func NewFlashcardStore(dir string) (*FlashcardStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FlashcardStore{dir: dir}, nil
}

func (s *FlashcardStore) deckPath(id string) string {
	return filepath.Join(s.dir, "flashcards-deck-"+filepath.Base(id)+".json")
}

// ListDeckMeta returns the deck listing entries
func (s *FlashcardStore) ListDeckMeta(ctx context.Context) ([]*domain.FlashcardDeckMeta, error) {
	var list []*domain.FlashcardDeckMeta
	if err := readJSONFile(filepath.Join(s.dir, deckListFile), &list); err != nil {
		if os.IsNotExist(err) {
			return []*domain.FlashcardDeckMeta{}, nil
		}
		return nil, err
	}
	return list, nil
}

// SaveDeckMeta replaces the deck listing
func (s *FlashcardStore) SaveDeckMeta(ctx context.Context, list []*domain.FlashcardDeckMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(filepath.Join(s.dir, deckListFile), list)
}

// ReadDeck retrieves a deck with its cards
func (s *FlashcardStore) ReadDeck(ctx context.Context, id string) (*domain.FlashcardDeck, error) {
	var deck domain.FlashcardDeck
	if err := readJSONFile(s.deckPath(id), &deck); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &deck, nil
}

// WriteDeck stores the full deck record
func (s *FlashcardStore) WriteDeck(ctx context.Context, deck *domain.FlashcardDeck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(s.deckPath(deck.ID), deck)
}

// ScoreStore implements driven.ScoreStore on a single JSON file.
type ScoreStore struct {
	path string
	mu   sync.Mutex
}

// NewScoreStore creates a file-backed ScoreStore under dir
func NewScoreStore(dir string) (*ScoreStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &ScoreStore{path: filepath.Join(dir, scoresFile)}, nil
}

// Load returns all recorded scores; a missing file yields an empty collection
func (s *ScoreStore) Load(ctx context.Context) (*domain.DomainScores, error) {
	var scores domain.DomainScores
	if err := readJSONFile(s.path, &scores); err != nil {
		if os.IsNotExist(err) {
			return &domain.DomainScores{Scores: []domain.DomainScore{}}, nil
		}
		return nil, err
	}
	if scores.Scores == nil {
		scores.Scores = []domain.DomainScore{}
	}
	return &scores, nil
}

// Save replaces the score collection and stamps LastUpdated
func (s *ScoreStore) Save(ctx context.Context, scores *domain.DomainScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	scores.LastUpdated = &now
	return writeJSONFile(s.path, scores)
}

// LoadDomainMapping reads the static file-to-domain mapping from dir.
// A missing mapping file yields an empty mapping, not an error.
func LoadDomainMapping(dir string) (*domain.DomainMapping, error) {
	var mapping domain.DomainMapping
	if err := readJSONFile(filepath.Join(dir, "domain-mapping.json"), &mapping); err != nil {
		if os.IsNotExist(err) {
			return &domain.DomainMapping{Domains: map[string]domain.DomainInfo{}}, nil
		}
		return nil, err
	}
	if mapping.Domains == nil {
		mapping.Domains = map[string]domain.DomainInfo{}
	}
	return &mapping, nil
}
