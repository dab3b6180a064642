package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

const aggregationScanLimit = 100

// IntelligenceAggregator recomputes the intelligence cache from live tables.
type IntelligenceAggregator struct {
	content ports.ContentRepository
	stats   ports.CommunityStats
	intel   ports.IntelligenceRepository
	cfg     config.IntelligenceConfig
	now     func() time.Time
	logger  *slog.Logger

	// runs are serialized so two aggregations never interleave their writes
	mu sync.Mutex
}

// NewIntelligenceAggregator wires the source tables and the cache.
func NewIntelligenceAggregator(content ports.ContentRepository, stats ports.CommunityStats, intel ports.IntelligenceRepository, cfg config.IntelligenceConfig, now func() time.Time, logger *slog.Logger) *IntelligenceAggregator {
	if now == nil {
		now = time.Now
	}
	if cfg.HighPriorityThreshold <= 0 {
		cfg.HighPriorityThreshold = 3
	}
	return &IntelligenceAggregator{
		content: content,
		stats:   stats,
		intel:   intel,
		cfg:     cfg,
		now:     now,
		logger:  logging.Component(logger, "intelligence"),
	}
}

type bucketBuilder func(ctx context.Context, now time.Time) (domain.IntelligenceRecord, error)

// Run recomputes the four buckets and upserts each one. A failing bucket is
// logged and skipped; Run only errors when no bucket could be written.
func (a *IntelligenceAggregator) Run(ctx context.Context) (domain.AggregationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	builders := []struct {
		name  string
		build bucketBuilder
	}{
		{domain.IntelResources, a.resourcesBucket},
		{domain.IntelOrganizingEvents, a.eventsBucket},
		{domain.IntelGrowthAnalytics, a.growthBucket},
		{domain.IntelCommunityNeeds, a.needsBucket},
	}

	result := domain.AggregationResult{Buckets: []domain.BucketSummary{}}
	var errs []error
	for _, b := range builders {
		rec, err := b.build(ctx, now)
		if err != nil {
			a.logger.Warn("build bucket failed", "bucket", b.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}

		rec.DataTimestamp = now
		rec.ExpiresAt = now.Add(domain.IntelligenceTTL)
		rec.IsStale = false

		if err := a.intel.UpsertIntelligence(ctx, rec); err != nil {
			a.logger.Warn("upsert bucket failed", "bucket", b.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}

		result.RecordsTouched++
		result.Buckets = append(result.Buckets, domain.BucketSummary{
			Type:     rec.IntelligenceType,
			Summary:  rec.Summary,
			Priority: rec.Priority,
		})
	}

	if result.RecordsTouched == 0 && len(errs) > 0 {
		return result, fmt.Errorf("aggregate intelligence: %w", errors.Join(errs...))
	}

	a.logger.Info("intelligence aggregated", "records", result.RecordsTouched, "failed", len(errs))
	return result, nil
}

func (a *IntelligenceAggregator) resourcesBucket(ctx context.Context, _ time.Time) (domain.IntelligenceRecord, error) {
	counts, err := a.stats.ResourceCategoryCounts(ctx)
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	type category struct {
		name  string
		count int
	}
	total := 0
	cats := make([]category, 0, len(counts))
	for name, n := range counts {
		total += n
		cats = append(cats, category{name, n})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].name < cats[j].name
	})

	insights := []string{fmt.Sprintf("%d active resources across %d categories", total, len(cats))}
	if len(cats) > 0 {
		insights = append(insights, fmt.Sprintf("Best covered category: %s (%d)", cats[0].name, cats[0].count))
	}
	var actions []string
	for _, c := range cats {
		if c.count == 1 {
			actions = append(actions, fmt.Sprintf("Find more resources for %s", c.name))
		}
	}

	data, err := json.Marshal(domain.ResourcesData{TotalResources: total, Categories: counts})
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	priority := domain.LevelMedium
	if total == 0 {
		priority = domain.LevelHigh
	}
	return domain.IntelligenceRecord{
		IntelligenceType: domain.IntelResources,
		Service:          domain.ServiceResources,
		Data:             data,
		Summary:          fmt.Sprintf("%d active resources in the directory", total),
		KeyInsights:      insights,
		ActionableItems:  nonNil(actions),
		RelevanceScore:   relevanceFor(priority),
		Priority:         priority,
		Urgency:          domain.LevelLow,
		Tags:             []string{"resources", "directory"},
	}, nil
}

func (a *IntelligenceAggregator) eventsBucket(ctx context.Context, now time.Time) (domain.IntelligenceRecord, error) {
	from := startOfDay(now)
	rows, err := a.content.UpcomingEvents(ctx, from, from.AddDate(0, 0, 8), aggregationScanLimit)
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	var upcoming []domain.EventRow
	for _, row := range rows {
		if row.Status == domain.EventStatusApproved && !row.Date.Before(from) {
			upcoming = append(upcoming, row)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date.Before(upcoming[j].Date) })

	payload := domain.EventsData{UpcomingCount: len(upcoming)}
	insights := []string{fmt.Sprintf("%s in the next 7 days", plural(len(upcoming), "event", "events"))}
	urgency := domain.LevelLow
	if len(upcoming) > 0 {
		next := upcoming[0]
		date := next.Date
		payload.NextEvent = &domain.EventRef{Title: next.Title, Date: &date, Location: next.Location}
		insights = append(insights, fmt.Sprintf("Next up: %s on %s", next.Title, next.Date.Format("Mon 2 Jan")))
		if next.Date.Sub(now) <= a.cfg.UrgentEventWindow {
			urgency = domain.LevelHigh
		} else {
			urgency = domain.LevelMedium
		}
	}

	var actions []string
	if len(upcoming) == 0 {
		actions = append(actions, "No events scheduled this week; invite organizers to post one")
	} else {
		actions = append(actions, "Promote upcoming events in the next edition")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	priority := a.priorityFor(len(upcoming))
	return domain.IntelligenceRecord{
		IntelligenceType: domain.IntelOrganizingEvents,
		Service:          domain.ServiceEvents,
		Data:             data,
		Summary:          fmt.Sprintf("%s coming up this week", plural(len(upcoming), "event", "events")),
		KeyInsights:      insights,
		ActionableItems:  actions,
		RelevanceScore:   relevanceFor(priority),
		Priority:         priority,
		Urgency:          urgency,
		Tags:             []string{"events", "organizing"},
	}, nil
}

func (a *IntelligenceAggregator) needsBucket(ctx context.Context, now time.Time) (domain.IntelligenceRecord, error) {
	since := now.AddDate(0, 0, -7)
	rows, err := a.content.RecentArticles(ctx, since, aggregationScanLimit)
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	var recent []domain.ArticleRow
	for _, row := range rows {
		if row.Status == domain.ArticleStatusPublished && !row.PublishedAt.Before(since) {
			recent = append(recent, row)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].InterestScore > recent[j].InterestScore })

	payload := domain.NewsroomData{WeeklyCount: len(recent)}
	insights := []string{fmt.Sprintf("%s published in the last 7 days", plural(len(recent), "article", "articles"))}
	if len(recent) > 0 {
		payload.TopArticle = &domain.ArticleRef{Title: recent[0].Title, URL: recent[0].SourceURL}
		insights = append(insights, fmt.Sprintf("Most engaging: %s", recent[0].Title))
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	priority := a.priorityFor(len(recent))
	return domain.IntelligenceRecord{
		IntelligenceType: domain.IntelCommunityNeeds,
		Service:          domain.ServiceNewsroom,
		Data:             data,
		Summary:          fmt.Sprintf("%s this week", plural(len(recent), "article", "articles")),
		KeyInsights:      insights,
		ActionableItems:  []string{"Feature the most engaging stories in the next edition"},
		RelevanceScore:   relevanceFor(priority),
		Priority:         priority,
		Urgency:          domain.LevelMedium,
		Tags:             []string{"newsroom", "needs"},
	}, nil
}

func (a *IntelligenceAggregator) growthBucket(ctx context.Context, now time.Time) (domain.IntelligenceRecord, error) {
	counts, err := a.stats.MemberCounts(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	data, err := json.Marshal(domain.CommunityData{
		TotalMembers:     counts.CommunityMembers,
		ActiveMembers:    counts.ActiveMembers,
		CoopMembers:      counts.CoopMembers,
		VerifiedCreators: counts.VerifiedCreators,
		NewThisWeek:      counts.NewThisWeek,
	})
	if err != nil {
		return domain.IntelligenceRecord{}, err
	}

	insights := []string{
		fmt.Sprintf("%d of %d members active", counts.ActiveMembers, counts.CommunityMembers),
		fmt.Sprintf("%s joined this week", plural(counts.NewThisWeek, "new member", "new members")),
		fmt.Sprintf("%d cooperative members, %d verified creators", counts.CoopMembers, counts.VerifiedCreators),
	}

	priority := a.priorityFor(counts.NewThisWeek)
	return domain.IntelligenceRecord{
		IntelligenceType: domain.IntelGrowthAnalytics,
		Service:          domain.ServiceCommunity,
		Data:             data,
		Summary:          fmt.Sprintf("%d members, %d active", counts.CommunityMembers, counts.ActiveMembers),
		KeyInsights:      insights,
		ActionableItems:  []string{"Welcome new members in the next edition"},
		RelevanceScore:   relevanceFor(priority),
		Priority:         priority,
		Urgency:          domain.LevelLow,
		Tags:             []string{"community", "growth"},
	}, nil
}

func (a *IntelligenceAggregator) priorityFor(count int) string {
	switch {
	case count > a.cfg.HighPriorityThreshold:
		return domain.LevelHigh
	case count > 0:
		return domain.LevelMedium
	default:
		return domain.LevelLow
	}
}

func relevanceFor(priority string) float64 {
	switch priority {
	case domain.LevelHigh:
		return 0.9
	case domain.LevelMedium:
		return 0.6
	default:
		return 0.3
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
