package driven

import "context"

// TextExtractor pulls plain text out of a stored PDF document.
type TextExtractor interface {
	// ExtractFile reads the document at path and returns its plain text
	// and page count. Returns domain.ErrDocumentUnreadable when no usable
	// text can be extracted.
	ExtractFile(ctx context.Context, path string) (text string, pages int, err error)
}
