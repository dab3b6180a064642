package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

// ContentAggregator fetches events, articles and resources and normalizes
// them into content items. Its fetches never fail: a source error is logged
// and yields an empty slice so one source cannot abort a generation.
type ContentAggregator struct {
	repo   ports.ContentRepository
	cfg    config.ContentConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewContentAggregator wires the content repository.
func NewContentAggregator(repo ports.ContentRepository, cfg config.ContentConfig, now func() time.Time, logger *slog.Logger) *ContentAggregator {
	if now == nil {
		now = time.Now
	}
	return &ContentAggregator{repo: repo, cfg: cfg, now: now, logger: logging.Component(logger, "content")}
}

// Events returns approved events dated from the start of today through the
// end of the last window day, most relevant first and earliest first among
// equals.
func (a *ContentAggregator) Events(ctx context.Context, limit int) []domain.ContentItem {
	from := startOfDay(a.now())
	to := from.AddDate(0, 0, a.cfg.EventWindowDays+1)

	rows, err := a.repo.UpcomingEvents(ctx, from, to, limit)
	if err != nil {
		a.logger.Warn("fetch events failed", "error", err)
		return []domain.ContentItem{}
	}

	kept := rows[:0:0]
	for _, row := range rows {
		if row.Status != domain.EventStatusApproved || row.Date.Before(from) || !row.Date.Before(to) {
			continue
		}
		kept = append(kept, row)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].RelevanceScore != kept[j].RelevanceScore {
			return kept[i].RelevanceScore > kept[j].RelevanceScore
		}
		return kept[i].Date.Before(kept[j].Date)
	})
	kept = capRows(kept, limit)

	items := make([]domain.ContentItem, 0, len(kept))
	for _, row := range kept {
		date := row.Date
		url := row.URL
		if url == "" {
			url = a.cfg.FallbackEventURL
		}
		items = append(items, domain.ContentItem{
			ID:             row.ID,
			Type:           domain.ContentEvent,
			Title:          row.Title,
			Summary:        truncate(row.Description, a.cfg.SummaryMaxChars),
			Date:           &date,
			URL:            url,
			RelevanceScore: row.RelevanceScore,
		})
	}
	return items
}

// Articles returns published articles from the configured look-back window,
// ordered by interest then recency.
func (a *ContentAggregator) Articles(ctx context.Context, limit int) []domain.ContentItem {
	since := a.now().AddDate(0, 0, -a.cfg.ArticleWindowDays)

	rows, err := a.repo.RecentArticles(ctx, since, limit)
	if err != nil {
		a.logger.Warn("fetch articles failed", "error", err)
		return []domain.ContentItem{}
	}

	kept := rows[:0:0]
	for _, row := range rows {
		if row.Status != domain.ArticleStatusPublished || row.PublishedAt.Before(since) {
			continue
		}
		kept = append(kept, row)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].InterestScore != kept[j].InterestScore {
			return kept[i].InterestScore > kept[j].InterestScore
		}
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})
	kept = capRows(kept, limit)

	items := make([]domain.ContentItem, 0, len(kept))
	for _, row := range kept {
		published := row.PublishedAt
		items = append(items, domain.ContentItem{
			ID:             row.ID,
			Type:           domain.ContentArticle,
			Title:          row.Title,
			Summary:        row.Excerpt,
			Date:           &published,
			URL:            row.SourceURL,
			ImageURL:       row.FeaturedImage,
			RelevanceScore: row.InterestScore,
		})
	}
	return items
}

// Resources returns active resources, highest priority first.
func (a *ContentAggregator) Resources(ctx context.Context, limit int) []domain.ContentItem {
	rows, err := a.repo.ActiveResources(ctx, limit)
	if err != nil {
		a.logger.Warn("fetch resources failed", "error", err)
		return []domain.ContentItem{}
	}

	kept := rows[:0:0]
	for _, row := range rows {
		if row.IsActive {
			kept = append(kept, row)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority > kept[j].Priority
	})
	kept = capRows(kept, limit)

	items := make([]domain.ContentItem, 0, len(kept))
	for _, row := range kept {
		items = append(items, domain.ContentItem{
			ID:             row.ID,
			Type:           domain.ContentResource,
			Title:          row.Title,
			Summary:        row.Description,
			URL:            row.WebsiteURL,
			RelevanceScore: float64(row.Priority),
		})
	}
	return items
}

func capRows[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// truncate shortens s to max runes, appending an ellipsis when it cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
