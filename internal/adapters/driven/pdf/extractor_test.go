package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

func TestExtractFile_MissingFile(t *testing.T) {
	extractor := NewExtractor()

	_, _, err := extractor.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if !errors.Is(err, domain.ErrDocumentUnreadable) {
		t.Fatalf("expected ErrDocumentUnreadable, got %v", err)
	}
}

func TestExtractFile_NotAPDF(t *testing.T) {
	extractor := NewExtractor()
	path := filepath.Join(t.TempDir(), "texte.pdf")
	if err := os.WriteFile(path, []byte("ceci n'est pas un PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := extractor.ExtractFile(context.Background(), path)
	if !errors.Is(err, domain.ErrDocumentUnreadable) {
		t.Fatalf("expected ErrDocumentUnreadable, got %v", err)
	}
}
