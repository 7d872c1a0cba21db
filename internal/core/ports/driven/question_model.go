package driven

import (
	"context"
	"encoding/json"
)

// QuestionPrompt carries everything the model needs to write one question.
type QuestionPrompt struct {
	// Heading labels the chunk the question must be grounded in
	Heading string

	// Content is the chunk text (the adapter caps its length)
	Content string

	// Tone is the requested style, e.g. "concis" or "detaille"
	Tone string

	// Reuse marks a chunk that already produced a question; the adapter
	// instructs the model to avoid repeating prior content
	Reuse bool
}

// QuestionModel produces raw quiz-question JSON from a content chunk.
// This is the only port that talks to an external, non-deterministic
// dependency; all retry and backoff policy lives behind it so the
// orchestrator stays deterministic given a chunk.
type QuestionModel interface {
	// Generate returns one JSON object shaped like a question payload.
	// Errors: domain.ErrModelTimeout, domain.ErrModelEmptyResponse,
	// domain.ErrModelInvalidJSON after retries are exhausted.
	Generate(ctx context.Context, prompt QuestionPrompt) (json.RawMessage, error)

	// Model returns the model name being used
	Model() string
}
