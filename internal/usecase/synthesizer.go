package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

const insightsPerRecord = 2

// IntelligenceSynthesizer folds cached intelligence rows into one context.
type IntelligenceSynthesizer struct {
	repo   ports.IntelligenceRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewIntelligenceSynthesizer wires the intelligence cache.
func NewIntelligenceSynthesizer(repo ports.IntelligenceRepository, now func() time.Time, logger *slog.Logger) *IntelligenceSynthesizer {
	if now == nil {
		now = time.Now
	}
	return &IntelligenceSynthesizer{repo: repo, now: now, logger: logging.Component(logger, "synthesizer")}
}

// Context returns the current snapshot. It never fails; on any error the
// zero-valued context is returned.
func (s *IntelligenceSynthesizer) Context(ctx context.Context) domain.IntelligenceContext {
	out := domain.IntelligenceContext{KeyInsights: []string{}}
	if s.repo == nil {
		return out
	}

	records, err := s.repo.FreshIntelligence(ctx, domain.SynthesisServices)
	if err != nil {
		s.logger.Warn("load intelligence failed", "error", err)
		return out
	}

	now := s.now()
	seen := map[string]bool{}
	for _, rec := range records {
		if rec.IsStale || (!rec.ExpiresAt.IsZero() && rec.ExpiresAt.Before(now)) {
			continue
		}

		if !seen[rec.Service] {
			if err := applyRecord(&out, rec); err != nil {
				s.logger.Warn("decode intelligence failed", "service", rec.Service, "type", rec.IntelligenceType, "error", err)
			} else {
				seen[rec.Service] = true
			}
		}

		for i, insight := range rec.KeyInsights {
			if i == insightsPerRecord {
				break
			}
			out.KeyInsights = append(out.KeyInsights, insight)
		}
	}
	return out
}

// applyRecord sets the fields owned by the record's service.
func applyRecord(out *domain.IntelligenceContext, rec domain.IntelligenceRecord) error {
	if len(rec.Data) == 0 {
		return nil
	}
	switch rec.Service {
	case domain.ServiceCommunity:
		var data domain.CommunityData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		out.CommunitySize = data.TotalMembers
		out.CoopMembers = data.CoopMembers
		out.VerifiedCreators = data.VerifiedCreators
	case domain.ServiceEvents:
		var data domain.EventsData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		out.UpcomingEventCount = data.UpcomingCount
		out.NextEvent = data.NextEvent
	case domain.ServiceNewsroom:
		var data domain.NewsroomData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		out.WeeklyArticleCount = data.WeeklyCount
		out.TopArticle = data.TopArticle
	case domain.ServiceResources:
		var data domain.ResourcesData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		out.TotalResources = data.TotalResources
	}
	return nil
}
