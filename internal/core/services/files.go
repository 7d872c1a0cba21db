package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Ensure fileService implements FileService
var _ driving.FileService = (*fileService)(nil)

// fileService lists the PDF documents available for quiz generation.
type fileService struct {
	dataDir string
}

// NewFileService creates a new FileService reading from dataDir
func NewFileService(dataDir string) driving.FileService {
	return &fileService{dataDir: dataDir}
}

// List returns PDFs in the document directory, newest first, optionally
// filtered by a case-insensitive substring. A missing directory yields an
// empty list rather than an error.
func (s *fileService) List(ctx context.Context, query string) ([]*domain.FileInfo, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.FileInfo{}, nil
		}
		return nil, fmt.Errorf("read document directory: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	files := []*domain.FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, &domain.FileInfo{
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}
