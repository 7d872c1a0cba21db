package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Ensure Extractor implements TextExtractor
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor pulls plain text out of PDF documents on disk.
// Extraction is page by page; a single unreadable page is skipped rather
// than failing the whole document.
type Extractor struct{}

// NewExtractor creates a PDF text extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the document at path and returns its plain text and
// page count. Returns domain.ErrDocumentUnreadable when the file cannot
// be opened or yields no text at all.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrDocumentUnreadable, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("%w: no extractable text", domain.ErrDocumentUnreadable)
	}
	return text, pages, nil
}
