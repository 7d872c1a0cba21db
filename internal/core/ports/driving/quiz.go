package driving

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// StartRequest carries the parameters of a new quiz generation run.
type StartRequest struct {
	Filename     string `json:"filename"`
	NumQuestions int    `json:"num_questions"`
	Tone         string `json:"tone"`
	UserID       string `json:"-"`
}

// StartResponse is returned once the first questions exist.
type StartResponse struct {
	SessionID string                    `json:"session_id"`
	Question  *domain.GeneratedQuestion `json:"question"`
	Available int                       `json:"available"`
	Total     int                       `json:"total"`
	Status    domain.SessionStatus      `json:"status"`
}

// Progress reports the state of an in-flight generation session.
type Progress struct {
	Status    domain.SessionStatus `json:"status"`
	Generated int                  `json:"generated"`
	Available int                  `json:"available"`
	Total     int                  `json:"total"`
}

// QuestionResponse wraps a question lookup with progress counters.
// Question is nil when the requested index has not been generated yet.
type QuestionResponse struct {
	Question  *domain.GeneratedQuestion `json:"question,omitempty"`
	Available int                       `json:"available"`
	Total     int                       `json:"total"`
	Status    domain.SessionStatus      `json:"status"`
}

// QuizService drives the incremental quiz-generation pipeline.
type QuizService interface {
	// Start chunks the document, generates the first questions
	// synchronously and kicks off background generation for the rest
	Start(ctx context.Context, req StartRequest) (*StartResponse, error)

	// Continue advances generation for a session under its exclusivity
	// guard. Non-owners get domain.ErrForbidden; a running pass yields
	// domain.ErrGenerationBusy.
	Continue(ctx context.Context, userID, sessionID string) (*Progress, error)

	// Get returns the question at index if generated; otherwise it
	// triggers a best-effort background continue and returns progress
	// with a nil question
	Get(ctx context.Context, userID, sessionID string, index int) (*QuestionResponse, error)

	// Status reports a session's progress without side effects beyond
	// registry self-healing
	Status(ctx context.Context, userID, sessionID string) (*Progress, error)

	// List returns registry entries owned by the user, newest first,
	// self-healed against the authoritative session records
	List(ctx context.Context, userID string) ([]*domain.SessionSummary, error)
}
