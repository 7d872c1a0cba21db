package mocks

import (
	"context"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// MockTextExtractor is a mock implementation of TextExtractor for testing.
type MockTextExtractor struct {
	// Text and Pages are returned for any path unless ExtractFn is set
	Text  string
	Pages int

	// ExtractFn overrides the default behavior (optional)
	ExtractFn func(path string) (string, int, error)

	// LastPath records the most recent path requested
	LastPath string
}

// NewMockTextExtractor creates a MockTextExtractor returning the given text.
func NewMockTextExtractor(text string, pages int) *MockTextExtractor {
	return &MockTextExtractor{Text: text, Pages: pages}
}

func (m *MockTextExtractor) ExtractFile(ctx context.Context, path string) (string, int, error) {
	m.LastPath = path
	if m.ExtractFn != nil {
		return m.ExtractFn(path)
	}
	if m.Text == "" {
		return "", 0, domain.ErrDocumentUnreadable
	}
	return m.Text, m.Pages, nil
}
