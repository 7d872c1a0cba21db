package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

func testMapping() *domain.DomainMapping {
	return &domain.DomainMapping{
		Domains: map[string]domain.DomainInfo{
			"cardio": {
				Name:  "Cardiologie",
				Color: "#e74c3c",
				Files: []string{"coeur.pdf", "vaisseaux.pdf"},
			},
			"neuro": {
				Name:  "Neurologie",
				Color: "#3498db",
				Files: []string{"cerveau.pdf", "coeur.pdf"},
			},
		},
	}
}

func TestTrackScore_MultiDomainFile(t *testing.T) {
	store := mocks.NewMockScoreStore()
	svc := NewDomainStatsService(store, testMapping())
	ctx := context.Background()

	err := svc.TrackScore(ctx, driving.TrackScoreRequest{
		SessionID:         "session_1",
		Filename:          "coeur.pdf",
		Score:             80,
		TotalQuestions:    8,
		AnsweredQuestions: 8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scores, _ := store.Load(ctx)
	if len(scores.Scores) != 2 {
		t.Fatalf("expected one entry per mapped domain, got %d", len(scores.Scores))
	}
	seen := map[string]bool{}
	for _, entry := range scores.Scores {
		seen[entry.Domain] = true
		if entry.Score != 80 || entry.AverageScore != 80 {
			t.Errorf("unexpected entry: %+v", entry)
		}
	}
	if !seen["cardio"] || !seen["neuro"] {
		t.Errorf("expected cardio and neuro entries, got %v", seen)
	}
	if scores.LastUpdated == nil {
		t.Error("expected LastUpdated stamped")
	}
}

func TestTrackScore_UnmappedFileFallsBack(t *testing.T) {
	store := mocks.NewMockScoreStore()
	svc := NewDomainStatsService(store, testMapping())
	ctx := context.Background()

	err := svc.TrackScore(ctx, driving.TrackScoreRequest{
		SessionID:      "session_1",
		Filename:       "inconnu.pdf",
		Score:          50,
		TotalQuestions: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scores, _ := store.Load(ctx)
	if len(scores.Scores) != 1 || scores.Scores[0].Domain != "autre" {
		t.Fatalf("expected fallback domain, got %+v", scores.Scores)
	}
}

func TestTrackScore_BadInput(t *testing.T) {
	svc := NewDomainStatsService(mocks.NewMockScoreStore(), testMapping())
	ctx := context.Background()

	cases := []driving.TrackScoreRequest{
		{Filename: "", Score: 50, TotalQuestions: 5},
		{Filename: "coeur.pdf", Score: 50, TotalQuestions: 0},
		{Filename: "coeur.pdf", Score: -1, TotalQuestions: 5},
		{Filename: "coeur.pdf", Score: 120, TotalQuestions: 5},
	}
	for _, req := range cases {
		if err := svc.TrackScore(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", req, err)
		}
	}
}

func TestTrackScore_RunningAverage(t *testing.T) {
	store := mocks.NewMockScoreStore()
	svc := NewDomainStatsService(store, testMapping())
	ctx := context.Background()

	for _, score := range []float64{100, 50} {
		err := svc.TrackScore(ctx, driving.TrackScoreRequest{
			SessionID:      "session",
			Filename:       "vaisseaux.pdf",
			Score:          score,
			TotalQuestions: 5,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	scores, _ := store.Load(ctx)
	if len(scores.Scores) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(scores.Scores))
	}
	if scores.Scores[0].AverageScore != 100 {
		t.Errorf("first entry average should be its own score, got %.1f", scores.Scores[0].AverageScore)
	}
	if scores.Scores[1].AverageScore != 75 {
		t.Errorf("second entry should carry the running average, got %.1f", scores.Scores[1].AverageScore)
	}
}

func TestStats_AggregatesPerDomain(t *testing.T) {
	store := mocks.NewMockScoreStore()
	svc := NewDomainStatsService(store, testMapping())
	ctx := context.Background()

	track := func(filename string, score float64) {
		t.Helper()
		if err := svc.TrackScore(ctx, driving.TrackScoreRequest{
			SessionID:      "session",
			Filename:       filename,
			Score:          score,
			TotalQuestions: 5,
		}); err != nil {
			t.Fatalf("track failed: %v", err)
		}
	}
	track("vaisseaux.pdf", 60) // cardio only
	track("vaisseaux.pdf", 80) // cardio only
	track("cerveau.pdf", 90)   // neuro only

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(stats))
	}
	if stats[0].Key != "cardio" {
		t.Errorf("expected most-practiced domain first, got %q", stats[0].Key)
	}
	if stats[0].AverageScore != 70 || stats[0].TotalSessions != 2 {
		t.Errorf("unexpected cardio aggregate: %+v", stats[0])
	}
	if stats[0].Name != "Cardiologie" || stats[0].Color != "#e74c3c" {
		t.Errorf("mapping metadata not carried: %+v", stats[0])
	}
	if stats[1].Key != "neuro" || stats[1].AverageScore != 90 {
		t.Errorf("unexpected neuro aggregate: %+v", stats[1])
	}
	if stats[0].LastSession == nil || stats[0].LastSession.IsZero() {
		t.Error("expected last session timestamp")
	}
}

func TestStats_EmptyStore(t *testing.T) {
	svc := NewDomainStatsService(mocks.NewMockScoreStore(), testMapping())

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected no stats, got %+v", stats)
	}
}

func TestFileList_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, age time.Duration) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("contenu"), 0o644); err != nil {
			t.Fatal(err)
		}
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}
	write("coeur.pdf", time.Hour)
	write("cerveau.PDF", 0)
	write("notes.txt", 0)
	if err := os.Mkdir(filepath.Join(dir, "sous-dossier"), 0o755); err != nil {
		t.Fatal(err)
	}

	svc := NewFileService(dir)
	ctx := context.Background()

	files, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 PDFs, got %d", len(files))
	}
	if files[0].Name != "cerveau.PDF" || files[1].Name != "coeur.pdf" {
		t.Errorf("expected newest first, got %s then %s", files[0].Name, files[1].Name)
	}

	filtered, err := svc.List(ctx, "COEUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "coeur.pdf" {
		t.Errorf("case-insensitive filter failed: %+v", filtered)
	}
}

func TestFileList_MissingDirectory(t *testing.T) {
	svc := NewFileService(filepath.Join(t.TempDir(), "absent"))

	files, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list, got %+v", files)
	}
}
