package driving

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// TrackScoreRequest records a quiz result against the file's domains.
type TrackScoreRequest struct {
	SessionID         string  `json:"session_id"`
	Filename          string  `json:"filename"`
	Score             float64 `json:"score"`
	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	UserID            string  `json:"-"`
}

// DomainStatsService aggregates quiz performance by knowledge domain
type DomainStatsService interface {
	// TrackScore appends a score entry for every domain the file maps to
	TrackScore(ctx context.Context, req TrackScoreRequest) error

	// Stats returns per-domain aggregates, most-practiced first
	Stats(ctx context.Context) ([]*domain.DomainStat, error)
}

// FileService lists the PDF documents available for quiz generation
type FileService interface {
	// List returns PDFs in the document directory, newest first,
	// optionally filtered by a case-insensitive substring
	List(ctx context.Context, query string) ([]*domain.FileInfo, error)
}
