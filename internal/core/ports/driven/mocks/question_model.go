package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Ensure MockQuestionModel implements QuestionModel
var _ driven.QuestionModel = (*MockQuestionModel)(nil)

// MockQuestionModel is a mock implementation of QuestionModel for testing.
// By default it returns a well-formed question payload derived from the
// prompt heading; set GenerateFn for scripted behavior.
type MockQuestionModel struct {
	mu      sync.Mutex
	prompts []driven.QuestionPrompt

	// GenerateFn overrides the default response (optional). The call
	// counter starts at 1.
	GenerateFn func(call int, prompt driven.QuestionPrompt) (json.RawMessage, error)
}

// NewMockQuestionModel creates a new MockQuestionModel
func NewMockQuestionModel() *MockQuestionModel {
	return &MockQuestionModel{}
}

func (m *MockQuestionModel) Generate(ctx context.Context, prompt driven.QuestionPrompt) (json.RawMessage, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	call := len(m.prompts)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(call, prompt)
	}
	return ValidQuestionJSON(fmt.Sprintf("Sujet %d: %s", call, prompt.Heading)), nil
}

func (m *MockQuestionModel) Model() string {
	return "mock-model"
}

// Prompts returns the prompts seen so far (for test assertions).
func (m *MockQuestionModel) Prompts() []driven.QuestionPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.QuestionPrompt(nil), m.prompts...)
}

// Calls returns how many times Generate was invoked.
func (m *MockQuestionModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// ValidQuestionJSON builds a complete five-proposition payload for tests.
func ValidQuestionJSON(topic string) json.RawMessage {
	payload := map[string]any{
		"topic": topic,
		"propositions": []map[string]any{
			{"statement": "Premiere affirmation", "isTrue": true, "explanation": "Exacte."},
			{"statement": "Deuxieme affirmation", "isTrue": false, "explanation": "Inexacte."},
			{"statement": "Troisieme affirmation", "isTrue": true, "explanation": "Exacte."},
			{"statement": "Quatrieme affirmation", "isTrue": false, "explanation": "Inexacte."},
			{"statement": "Cinquieme affirmation", "isTrue": false, "explanation": "Inexacte."},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}
