package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks the storage backend)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Storage unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleRegister godoc
// @Summary      Register account
// @Description  Create an account and open a session delivered as an HttpOnly cookie
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RegisterRequest  true  "Account details"
// @Success      201      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid email or password"
// @Failure      409      {object}  ErrorResponse  "Email already registered"
// @Router       /auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid email or password")
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	setSessionCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusCreated, resp)
}

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password; the session token is delivered as an HttpOnly cookie
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		} else {
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	setSessionCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout user
// @Description  Invalidate the current session and clear the cookie
// @Tags         Authentication
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := extractSessionToken(r); token != "" {
		_ = s.authService.Logout(r.Context(), token)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetMe godoc
// @Summary      Get current user
// @Description  Returns the authenticated user's profile
// @Tags         Authentication
// @Produce      json
// @Success      200  {object}  domain.UserSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := s.authService.Me(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// File endpoints

// handleListFiles godoc
// @Summary      List documents
// @Description  Lists the PDF documents available for quiz generation, newest first
// @Tags         Files
// @Produce      json
// @Param        q  query  string  false  "Case-insensitive substring filter"
// @Success      200  {object}  map[string][]domain.FileInfo
// @Router       /files [get]
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.fileService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// Quiz endpoints

// handleQuizStart godoc
// @Summary      Start quiz generation
// @Description  Chunks the document, generates the first questions synchronously and continues in the background
// @Tags         Quiz
// @Accept       json
// @Produce      json
// @Param        request  body      driving.StartRequest  true  "Generation parameters"
// @Success      200      {object}  driving.StartResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      422      {object}  ErrorResponse  "Document unreadable or empty"
// @Router       /quiz/start [post]
func (s *Server) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	var req driving.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		req.UserID = authCtx.UserID
	}

	resp, err := s.quizService.Start(r.Context(), req)
	if err != nil {
		// Services wrap these sentinels with context, so match the chain
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "filename is required")
		case errors.Is(err, domain.ErrDocumentUnreadable):
			writeError(w, http.StatusUnprocessableEntity, "document unreadable")
		case errors.Is(err, domain.ErrEmptyDocument):
			writeError(w, http.StatusUnprocessableEntity, "document contains no usable text")
		default:
			writeError(w, http.StatusInternalServerError, "quiz generation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleQuizContinue godoc
// @Summary      Continue quiz generation
// @Description  Runs one bounded generation pass for the session
// @Tags         Quiz
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  driving.Progress
// @Failure      403  {object}  ErrorResponse  "Not the session owner"
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Failure      409  {object}  ErrorResponse  "Generation already in progress"
// @Router       /quiz/{id}/continue [post]
func (s *Server) handleQuizContinue(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	progress, err := s.quizService.Continue(r.Context(), userID(authCtx), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGenerationBusy):
			writeError(w, http.StatusConflict, "generation already in progress")
		case errors.Is(err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "not the session owner")
		default:
			writeError(w, http.StatusInternalServerError, "generation pass failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// handleQuizQuestion godoc
// @Summary      Get a question
// @Description  Returns the question at the given index, or 404 with progress counters while it is still being generated
// @Tags         Quiz
// @Produce      json
// @Param        id     path  string  true  "Session ID"
// @Param        index  path  int     true  "Question index (0-based)"
// @Success      200  {object}  driving.QuestionResponse
// @Failure      403  {object}  ErrorResponse  "Not the session owner"
// @Failure      404  {object}  driving.QuestionResponse  "Not generated yet"
// @Router       /quiz/{id}/questions/{index} [get]
func (s *Server) handleQuizQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid question index")
		return
	}

	authCtx := GetAuthContext(r.Context())
	resp, err := s.quizService.Get(r.Context(), userID(authCtx), r.PathValue("id"), index)
	if err != nil {
		writeQuizError(w, err)
		return
	}

	if resp.Question == nil {
		// Not generated yet: the progress body lets clients poll
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleQuizStatus godoc
// @Summary      Get session status
// @Description  Reports generation progress for a session
// @Tags         Quiz
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  driving.Progress
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Router       /quiz/{id}/status [get]
func (s *Server) handleQuizStatus(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	progress, err := s.quizService.Status(r.Context(), userID(authCtx), r.PathValue("id"))
	if err != nil {
		writeQuizError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// handleQuizSessions godoc
// @Summary      List quiz sessions
// @Description  Lists the authenticated user's sessions, newest first
// @Tags         Quiz
// @Produce      json
// @Success      200  {object}  map[string][]domain.SessionSummary
// @Router       /quiz/sessions [get]
func (s *Server) handleQuizSessions(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	sessions, err := s.quizService.List(r.Context(), userID(authCtx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Flashcard endpoints

// handleGetFlashcards godoc
// @Summary      Get flashcards
// @Description  Without parameters lists decks; with deck_id returns one deck; with due=true returns due cards
// @Tags         Flashcards
// @Produce      json
// @Param        deck_id  query  string  false  "Deck ID"
// @Param        due      query  bool    false  "Return due cards instead"
// @Param        limit    query  int     false  "Max due cards"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse  "Deck not found"
// @Router       /flashcards [get]
func (s *Server) handleGetFlashcards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	deckID := query.Get("deck_id")

	if query.Get("due") == "true" {
		limit, _ := strconv.Atoi(query.Get("limit"))
		due, err := s.flashcardService.DueCards(r.Context(), deckID, limit)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"due": due})
		return
	}

	if deckID != "" {
		deck, err := s.flashcardService.GetDeck(r.Context(), deckID)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deck)
		return
	}

	decks, err := s.flashcardService.ListDecks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list decks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

// flashcardActionRequest is the dispatch envelope for flashcard mutations.
type flashcardActionRequest struct {
	Action  string `json:"action"`
	DeckID  string `json:"deck_id,omitempty"`
	CardID  string `json:"card_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Front   string `json:"front,omitempty"`
	Back    string `json:"back,omitempty"`
	Quality int    `json:"quality,omitempty"`
}

// handleFlashcardAction godoc
// @Summary      Mutate flashcards
// @Description  Dispatches deck and card mutations by action: create_deck, rename_deck, delete_deck, add_card, remove_card, review
// @Tags         Flashcards
// @Accept       json
// @Produce      json
// @Param        request  body      flashcardActionRequest  true  "Action envelope"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  ErrorResponse  "Unknown action or invalid input"
// @Failure      404      {object}  ErrorResponse  "Deck or card not found"
// @Router       /flashcards [post]
func (s *Server) handleFlashcardAction(w http.ResponseWriter, r *http.Request) {
	var req flashcardActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "create_deck":
		deck, err := s.flashcardService.CreateDeck(ctx, req.Name)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, deck)

	case "rename_deck":
		deck, err := s.flashcardService.RenameDeck(ctx, req.DeckID, req.Name)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deck)

	case "delete_deck":
		if err := s.flashcardService.DeleteDeck(ctx, req.DeckID); err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case "add_card":
		card, err := s.flashcardService.AddCard(ctx, req.DeckID, req.Front, req.Back)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)

	case "remove_card":
		if err := s.flashcardService.RemoveCard(ctx, req.DeckID, req.CardID); err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case "review":
		result, err := s.flashcardService.ReviewCard(ctx, req.DeckID, req.CardID, req.Quality)
		if err != nil {
			writeFlashcardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

// Domain score endpoints

// handleDomainStats godoc
// @Summary      Domain statistics
// @Description  Returns per-domain score aggregates, most practiced first
// @Tags         Domains
// @Produce      json
// @Success      200  {object}  map[string][]domain.DomainStat
// @Router       /domains/stats [get]
func (s *Server) handleDomainStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.domainService.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load domain stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"domains": stats})
}

// handleTrackScore godoc
// @Summary      Track quiz score
// @Description  Records a finished quiz session's score against the file's knowledge domains
// @Tags         Domains
// @Accept       json
// @Produce      json
// @Param        request  body      driving.TrackScoreRequest  true  "Score entry"
// @Success      201      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Invalid score entry"
// @Router       /domains/score [post]
func (s *Server) handleTrackScore(w http.ResponseWriter, r *http.Request) {
	var req driving.TrackScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		req.UserID = authCtx.UserID
	}

	if err := s.domainService.TrackScore(r.Context(), req); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid score entry")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to record score")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// Helper functions

func userID(authCtx *domain.AuthContext) string {
	if authCtx == nil {
		return ""
	}
	return authCtx.UserID
}

func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "not the session owner")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid request")
	default:
		writeError(w, http.StatusInternalServerError, "quiz lookup failed")
	}
}

func writeFlashcardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "deck or card not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	default:
		writeError(w, http.StatusInternalServerError, "flashcard operation failed")
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
