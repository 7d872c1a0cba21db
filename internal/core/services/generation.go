package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Ensure QuizGenerationService implements QuizService
var _ driving.QuizService = (*QuizGenerationService)(nil)

const lockPrefix = "generate:"

// QuizGenerationService is the state machine driving chunk consumption,
// question creation, registry synchronization and completion detection.
//
// It implements the pull/continue protocol: Start generates the first
// questions synchronously, then a polling client (or the fire-and-forget
// trigger from Get) drives the rest through Continue. There is no
// persistent background worker; a session whose client stops polling
// simply stops advancing.
type QuizGenerationService struct {
	store     driven.QuizStore
	lock      driven.GenerationLock
	model     driven.QuestionModel
	extractor driven.TextExtractor
	chunker   *Chunker
	logger    *slog.Logger
	dataDir   string

	callBudget       time.Duration
	questionsPerCall int
	initialQuestions int
	lockTTL          time.Duration
	minChunkChars    int

	// spawn runs a detached background continue pass. Replaceable in
	// tests to make backgrounding deterministic.
	spawn func(sessionID string)
}

// QuizGenerationConfig holds dependencies for QuizGenerationService.
type QuizGenerationConfig struct {
	Store     driven.QuizStore
	Lock      driven.GenerationLock
	Model     driven.QuestionModel
	Extractor driven.TextExtractor
	Chunker   *Chunker
	Logger    *slog.Logger

	// DataDir is the directory holding the source PDF documents
	DataDir string

	// CallBudget is the wall-clock budget per Continue call (default 45s)
	CallBudget time.Duration

	// QuestionsPerCall caps questions generated per Continue call (default 3)
	QuestionsPerCall int

	// InitialQuestions is how many questions Start generates synchronously
	// before returning (default 2)
	InitialQuestions int

	// LockTTL bounds how long a crashed pass can hold the session lock
	LockTTL time.Duration
}

// NewQuizGenerationService creates the generation orchestrator.
func NewQuizGenerationService(cfg QuizGenerationConfig) *QuizGenerationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunker := cfg.Chunker
	if chunker == nil {
		chunker = NewChunker(DefaultChunkerConfig())
	}

	callBudget := cfg.CallBudget
	if callBudget <= 0 {
		callBudget = 45 * time.Second
	}
	questionsPerCall := cfg.QuestionsPerCall
	if questionsPerCall <= 0 {
		questionsPerCall = 3
	}
	initialQuestions := cfg.InitialQuestions
	if initialQuestions <= 0 {
		initialQuestions = 2
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 90 * time.Second
	}

	s := &QuizGenerationService{
		store:            cfg.Store,
		lock:             cfg.Lock,
		model:            cfg.Model,
		extractor:        cfg.Extractor,
		chunker:          chunker,
		logger:           logger,
		dataDir:          cfg.DataDir,
		callBudget:       callBudget,
		questionsPerCall: questionsPerCall,
		initialQuestions: initialQuestions,
		lockTTL:          lockTTL,
		minChunkChars:    chunker.config.MinChunkChars,
	}
	s.spawn = s.spawnContinue
	return s
}

// Start runs the chunker, builds a randomized chunk-consumption order,
// generates the first questions synchronously so the caller gets an
// immediate result, persists the session and triggers background
// generation for the remainder.
func (s *QuizGenerationService) Start(ctx context.Context, req driving.StartRequest) (*driving.StartResponse, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("%w: filename required", domain.ErrInvalidInput)
	}
	total := req.NumQuestions
	if total <= 0 {
		total = 8
	}
	if total > 30 {
		total = 30
	}
	tone := req.Tone
	if tone == "" {
		tone = "concis"
	}

	// Base keeps the lookup inside the data dir
	path := filepath.Join(s.dataDir, filepath.Base(req.Filename))
	text, pages, err := s.extractor.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunker.ChunkDocument(text, pages)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.QuizSession{
		ID:         fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		UserID:     req.UserID,
		Filename:   req.Filename,
		Tone:       tone,
		Total:      total,
		Status:     domain.StatusProcessing,
		Chunks:     chunks,
		ChunkOrder: randomChunkOrder(len(chunks), total),
		UsedChunks: []int{},
		Questions:  []*domain.GeneratedQuestion{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.logger.Info("starting generation session",
		"session_id", session.ID,
		"filename", session.Filename,
		"chunks", len(chunks),
		"total", total,
	)

	// First questions are generated synchronously so the caller can show
	// something immediately. Individual failures just consume chunks.
	for i := 0; i < s.initialQuestions && session.Available < session.Total; i++ {
		if _, err := s.generateStep(ctx, session); err != nil {
			s.logger.Warn("initial generation step failed",
				"session_id", session.ID, "error", err)
		}
	}
	if session.Available == 0 {
		return nil, fmt.Errorf("failed to generate initial questions: %w", domain.ErrModelEmptyResponse)
	}

	s.refreshStatus(session)
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.WriteSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if err := s.store.UpsertSummary(ctx, session.ToSummary()); err != nil {
		s.logger.Warn("failed to upsert session summary", "session_id", session.ID, "error", err)
	}

	if session.Status == domain.StatusProcessing {
		s.spawn(session.ID)
	}

	return &driving.StartResponse{
		SessionID: session.ID,
		Question:  session.Questions[0],
		Available: session.Available,
		Total:     session.Total,
		Status:    session.Status,
	}, nil
}

// Continue advances generation for a session under its per-session
// exclusivity guard. It loops until the wall-clock budget or per-call
// question cap is exhausted, converting chunk-level failures into forward
// progress. Calling it on a finished session is a no-op that reports the
// final status.
func (s *QuizGenerationService) Continue(ctx context.Context, userID, sessionID string) (*driving.Progress, error) {
	if _, err := s.readOwned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.continueSession(ctx, sessionID)
}

// continueSession runs one lock-guarded generation pass. Ownership has
// already been checked; the background spawn path enters here directly.
func (s *QuizGenerationService) continueSession(ctx context.Context, sessionID string) (*driving.Progress, error) {
	lockName := lockPrefix + sessionID
	acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrGenerationBusy
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("failed to release generation lock", "session_id", sessionID, "error", err)
		}
	}()

	session, err := s.store.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Corrupted session data is unrecoverable for this session
	if len(session.Chunks) == 0 || len(session.ChunkOrder) == 0 {
		session.Status = domain.StatusFailed
		session.Error = "session chunk data missing"
		session.UpdatedAt = time.Now().UTC()
		if werr := s.store.WriteSession(ctx, session); werr != nil {
			s.logger.Warn("failed to persist failed session", "session_id", sessionID, "error", werr)
		}
		_ = s.store.UpsertSummary(ctx, session.ToSummary())
		return progressOf(session, 0), nil
	}

	deadline := time.Now().Add(s.callBudget)
	generated := 0

	for generated < s.questionsPerCall &&
		session.Available < session.Total &&
		time.Now().Before(deadline) &&
		ctx.Err() == nil &&
		s.hasConsumableWork(session) {

		ok, err := s.generateStep(ctx, session)
		if err != nil {
			s.logger.Warn("generation step failed",
				"session_id", sessionID, "error", err)
		}
		if ok {
			generated++
		}

		session.UpdatedAt = time.Now().UTC()
		if err := s.store.WriteSession(ctx, session); err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
	}

	s.refreshStatus(session)
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.WriteSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if err := s.store.UpsertSummary(ctx, session.ToSummary()); err != nil {
		s.logger.Warn("failed to upsert session summary", "session_id", sessionID, "error", err)
	}

	s.logger.Info("continue pass finished",
		"session_id", sessionID,
		"generated", generated,
		"available", session.Available,
		"total", session.Total,
		"status", session.Status,
	)

	return progressOf(session, generated), nil
}

// Get returns the question at index if already generated. When it is not,
// a background continue is triggered best-effort so a polling client
// naturally drives progress, and the caller gets progress counters with a
// nil question.
func (s *QuizGenerationService) Get(ctx context.Context, userID, sessionID string, index int) (*driving.QuestionResponse, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: bad index", domain.ErrInvalidInput)
	}
	session, err := s.readOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.healSummary(ctx, session)

	resp := &driving.QuestionResponse{
		Available: session.Available,
		Total:     session.Total,
		Status:    session.Status,
	}
	if index < len(session.Questions) {
		resp.Question = session.Questions[index]
		return resp, nil
	}

	if session.Status == domain.StatusProcessing {
		s.spawn(session.ID)
	}
	return resp, nil
}

// Status reports a session's progress and self-heals its registry entry.
func (s *QuizGenerationService) Status(ctx context.Context, userID, sessionID string) (*driving.Progress, error) {
	session, err := s.readOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	s.healSummary(ctx, session)
	return progressOf(session, 0), nil
}

// List returns the user's registry entries, newest first. Entries that
// disagree with their authoritative session record are rewritten before
// being returned: the registry is a projection, never ground truth.
func (s *QuizGenerationService) List(ctx context.Context, userID string) ([]*domain.SessionSummary, error) {
	entries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	healed := false
	for i, entry := range entries {
		if entry.Status != domain.StatusProcessing {
			continue
		}
		session, err := s.store.ReadSession(ctx, entry.ID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		s.refreshStatus(session)
		if entry.Stale(session) {
			entries[i] = session.ToSummary()
			healed = true
		}
	}
	if healed {
		if err := s.store.SaveSummaries(ctx, entries); err != nil {
			s.logger.Warn("failed to rewrite session registry", "error", err)
		}
	}

	var owned []*domain.SessionSummary
	for _, entry := range entries {
		if entry.UserID == "" || entry.UserID == userID {
			owned = append(owned, entry)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned, nil
}

// generateStep performs one chunk attempt: pick the next chunk (or a reuse
// candidate once the order is exhausted), call the model, normalize, and
// update consumption bookkeeping. It reports whether a question was
// produced; chunk-level failures return ok=false with the cause, after
// consuming the chunk so the session always moves forward.
func (s *QuizGenerationService) generateStep(ctx context.Context, session *domain.QuizSession) (bool, error) {
	idx, ok := session.NextChunkIndex()
	reuse := false
	if !ok {
		var found bool
		idx, found = s.reuseCandidate(session)
		if !found {
			return false, nil
		}
		reuse = true
	}

	chunk := session.Chunks[idx]
	consume := func() {
		if !reuse {
			session.UsedChunks = append(session.UsedChunks, idx)
		}
	}

	// Degenerate chunks are consumed immediately so a bad slice can never
	// stall the session
	if len(strings.TrimSpace(chunk.Content)) < s.minChunkChars {
		consume()
		return false, nil
	}

	prompt := driven.QuestionPrompt{
		Heading: chunk.Heading,
		Content: chunk.Content,
		Tone:    session.Tone,
		Reuse:   reuse,
	}

	raw, err := s.model.Generate(ctx, prompt)
	if err != nil {
		// The adapter already exhausted its retries; abandon the chunk
		consume()
		return false, fmt.Errorf("model generation for chunk %s: %w", chunk.ID, err)
	}

	questionID := fmt.Sprintf("qcm_%s_%d", session.ID, len(session.Questions))
	question, err := NormalizeQuestion(raw, questionID)
	if err != nil {
		// One bounded retry, then the chunk is abandoned rather than
		// retried forever
		raw, rerr := s.model.Generate(ctx, prompt)
		if rerr == nil {
			question, err = NormalizeQuestion(raw, questionID)
		}
		if err != nil || rerr != nil {
			consume()
			return false, fmt.Errorf("normalize question for chunk %s: %w", chunk.ID, domain.ErrInvalidPayload)
		}
	}

	question.ChunkID = chunk.ID
	question.ChunkHeading = chunk.Heading
	question.PageRange = chunk.PageRange

	session.Questions = append(session.Questions, question)
	session.Available = len(session.Questions)
	consume()
	return true, nil
}

// reuseCandidate picks a random previously consumed chunk with usable
// content for a fresh generation pass.
func (s *QuizGenerationService) reuseCandidate(session *domain.QuizSession) (int, bool) {
	var usable []int
	for _, idx := range session.UsedChunks {
		if idx < 0 || idx >= len(session.Chunks) {
			continue
		}
		if len(strings.TrimSpace(session.Chunks[idx].Content)) >= s.minChunkChars {
			usable = append(usable, idx)
		}
	}
	if len(usable) == 0 {
		return 0, false
	}
	return usable[rand.IntN(len(usable))], true
}

// hasConsumableWork reports whether another step can make progress:
// either the chunk order still has unconsumed entries, or reuse has a
// usable candidate.
func (s *QuizGenerationService) hasConsumableWork(session *domain.QuizSession) bool {
	if _, ok := session.NextChunkIndex(); ok {
		return true
	}
	_, ok := s.reuseCandidate(session)
	return ok
}

// refreshStatus recomputes the terminal state: completed when the target
// is met or nothing consumable remains, failed stays failed.
func (s *QuizGenerationService) refreshStatus(session *domain.QuizSession) {
	if session.Status == domain.StatusFailed {
		return
	}
	if session.Available >= session.Total || !s.hasConsumableWork(session) {
		session.Status = domain.StatusCompleted
		return
	}
	session.Status = domain.StatusProcessing
}

func (s *QuizGenerationService) readOwned(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id required", domain.ErrInvalidInput)
	}
	session, err := s.store.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != "" && userID != session.UserID {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

// healSummary recomputes the session status and rewrites the registry
// entry from the authoritative record.
func (s *QuizGenerationService) healSummary(ctx context.Context, session *domain.QuizSession) {
	before := session.Status
	s.refreshStatus(session)
	if session.Status != before {
		session.UpdatedAt = time.Now().UTC()
		if err := s.store.WriteSession(ctx, session); err != nil {
			s.logger.Warn("failed to persist session status", "session_id", session.ID, "error", err)
		}
	}
	if err := s.store.UpsertSummary(ctx, session.ToSummary()); err != nil {
		s.logger.Warn("failed to upsert session summary", "session_id", session.ID, "error", err)
	}
}

// spawnContinue runs a continue pass detached from the caller's request
// context so HTTP cancellation does not stop generation mid-chunk.
func (s *QuizGenerationService) spawnContinue(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.callBudget+15*time.Second)
		defer cancel()
		if _, err := s.continueSession(ctx, sessionID); err != nil {
			if errors.Is(err, domain.ErrGenerationBusy) {
				return
			}
			s.logger.Warn("background continue failed", "session_id", sessionID, "error", err)
		}
	}()
}

// randomChunkOrder builds a randomized consumption order of length total,
// sampling with replacement once every chunk has been scheduled once.
func randomChunkOrder(chunkCount, total int) []int {
	order := make([]int, 0, total)
	for len(order) < total {
		perm := rand.Perm(chunkCount)
		for _, idx := range perm {
			if len(order) == total {
				break
			}
			order = append(order, idx)
		}
	}
	return order
}

func progressOf(session *domain.QuizSession, generated int) *driving.Progress {
	return &driving.Progress{
		Status:    session.Status,
		Generated: generated,
		Available: session.Available,
		Total:     session.Total,
	}
}
