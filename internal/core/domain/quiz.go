package domain

import "time"

// SessionStatus is the lifecycle state of a quiz generation session.
type SessionStatus string

const (
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Chunk is a contiguous, labeled slice of a source document's extracted text.
// Chunks are produced once at session start and never mutated.
type Chunk struct {
	ID        string `json:"id"`
	Heading   string `json:"heading"`
	Content   string `json:"content"`
	PageRange string `json:"page_range"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// Proposition is one true/false statement within a question.
type Proposition struct {
	Statement   string `json:"statement"`
	IsTrue      bool   `json:"isTrue"`
	Explanation string `json:"explanation"`
}

// PropositionCount is the fixed number of propositions per question.
const PropositionCount = 5

// GeneratedQuestion is one normalized quiz question. Append-only per session.
type GeneratedQuestion struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Rationale    string        `json:"rationale,omitempty"`
	Propositions []Proposition `json:"propositions"`
	ChunkID      string        `json:"chunk_id,omitempty"`
	ChunkHeading string        `json:"chunk_heading,omitempty"`
	PageRange    string        `json:"page_range,omitempty"`
}

// HasTrueProposition reports whether at least one proposition is true.
func (q *GeneratedQuestion) HasTrueProposition() bool {
	for _, p := range q.Propositions {
		if p.IsTrue {
			return true
		}
	}
	return false
}

// QuizSession is the aggregate root for one document's quiz-generation run.
// All mutation goes through read-entire-record, mutate, write-entire-record.
type QuizSession struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id,omitempty"`
	Filename   string               `json:"filename"`
	Tone       string               `json:"tone"`
	Total      int                  `json:"total"`
	Available  int                  `json:"available"`
	Status     SessionStatus        `json:"status"`
	Error      string               `json:"error,omitempty"`
	Chunks     []Chunk              `json:"chunks"`
	ChunkOrder []int                `json:"chunk_order"`
	UsedChunks []int                `json:"used_chunks"`
	Questions  []*GeneratedQuestion `json:"questions"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// NextChunkIndex returns the next chunk index from the precomputed order.
// The second return value is false when the order is exhausted.
func (s *QuizSession) NextChunkIndex() (int, bool) {
	pos := len(s.UsedChunks)
	if pos >= len(s.ChunkOrder) {
		return 0, false
	}
	idx := s.ChunkOrder[pos]
	if idx < 0 || idx >= len(s.Chunks) {
		return 0, false
	}
	return idx, true
}

// ToSummary projects the session into its registry entry.
func (s *QuizSession) ToSummary() *SessionSummary {
	return &SessionSummary{
		ID:        s.ID,
		UserID:    s.UserID,
		Filename:  s.Filename,
		Tone:      s.Tone,
		Status:    s.Status,
		Available: s.Available,
		Total:     s.Total,
		Error:     s.Error,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SessionSummary is the lightweight registry projection of a QuizSession.
// It may lag the authoritative record; readers self-heal from the session.
type SessionSummary struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	Filename  string        `json:"filename"`
	Tone      string        `json:"tone"`
	Status    SessionStatus `json:"status"`
	Available int           `json:"available"`
	Total     int           `json:"total"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Stale reports whether the summary disagrees with the authoritative session.
func (r *SessionSummary) Stale(s *QuizSession) bool {
	return r.Status != s.Status || r.Available != s.Available || r.Total != s.Total
}
