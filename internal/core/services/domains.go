package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Ensure domainStatsService implements DomainStatsService
var _ driving.DomainStatsService = (*domainStatsService)(nil)

// domainStatsService aggregates quiz results by knowledge domain using a
// static file-to-domain mapping loaded at startup.
type domainStatsService struct {
	store   driven.ScoreStore
	mapping *domain.DomainMapping
	now     func() time.Time
}

// NewDomainStatsService creates a new DomainStatsService
func NewDomainStatsService(store driven.ScoreStore, mapping *domain.DomainMapping) driving.DomainStatsService {
	if mapping == nil {
		mapping = &domain.DomainMapping{Domains: map[string]domain.DomainInfo{}}
	}
	return &domainStatsService{
		store:   store,
		mapping: mapping,
		now:     time.Now,
	}
}

// TrackScore appends a score entry for every domain the file maps to.
// Files outside the mapping are recorded under "autre" so no result is
// silently dropped.
func (s *domainStatsService) TrackScore(ctx context.Context, req driving.TrackScoreRequest) error {
	if req.Filename == "" || req.TotalQuestions <= 0 {
		return domain.ErrInvalidInput
	}
	if req.Score < 0 || req.Score > 100 {
		return domain.ErrInvalidInput
	}

	keys := s.mapping.DomainsForFile(req.Filename)
	if len(keys) == 0 {
		keys = []string{"autre"}
	}

	scores, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}

	now := s.now().UTC()
	for _, key := range keys {
		scores.Scores = append(scores.Scores, domain.DomainScore{
			Domain:            key,
			SessionID:         req.SessionID,
			UserID:            req.UserID,
			Filename:          req.Filename,
			Score:             req.Score,
			TotalQuestions:    req.TotalQuestions,
			AnsweredQuestions: req.AnsweredQuestions,
			Timestamp:         now,
		})
	}

	// Recompute running averages per domain so each entry carries the
	// average as of its own insertion
	recomputeAverages(scores)

	if err := s.store.Save(ctx, scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}

// Stats returns per-domain aggregates, most-practiced first.
func (s *domainStatsService) Stats(ctx context.Context) ([]*domain.DomainStat, error) {
	scores, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	type agg struct {
		sum      float64
		sessions int
		last     time.Time
	}
	byDomain := map[string]*agg{}
	for _, entry := range scores.Scores {
		a, ok := byDomain[entry.Domain]
		if !ok {
			a = &agg{}
			byDomain[entry.Domain] = a
		}
		a.sum += entry.Score
		a.sessions++
		if entry.Timestamp.After(a.last) {
			a.last = entry.Timestamp
		}
	}

	var stats []*domain.DomainStat
	for key, a := range byDomain {
		info := s.mapping.Domains[key]
		name := info.Name
		if name == "" {
			name = key
		}
		last := a.last
		stats = append(stats, &domain.DomainStat{
			Key:           key,
			Name:          name,
			Color:         info.Color,
			AverageScore:  a.sum / float64(a.sessions),
			TotalSessions: a.sessions,
			LastSession:   &last,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalSessions != stats[j].TotalSessions {
			return stats[i].TotalSessions > stats[j].TotalSessions
		}
		return stats[i].Key < stats[j].Key
	})
	return stats, nil
}

func recomputeAverages(scores *domain.DomainScores) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := range scores.Scores {
		key := scores.Scores[i].Domain
		sums[key] += scores.Scores[i].Score
		counts[key]++
		scores.Scores[i].AverageScore = sums[key] / float64(counts[key])
	}
}
