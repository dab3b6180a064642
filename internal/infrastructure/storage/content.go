package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"Herald/internal/domain"
)

// UpcomingEvents returns approved events dated within [from, to).
func (s *PostgresStore) UpcomingEvents(ctx context.Context, from, to time.Time, limit int) ([]domain.EventRow, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	q := psql.
		Select("id", "title", "description", "date", "start_time", "location", "url", "relevance_score", "status").
		From("events").
		Where(sq.Eq{"status": domain.EventStatusApproved}).
		Where(sq.GtOrEq{"date": from}).
		Where(sq.Lt{"date": to}).
		OrderBy("relevance_score DESC", "date ASC")
	query, args, err := limited(q, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	var out []domain.EventRow
	for rows.Next() {
		var row domain.EventRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.Date, &row.StartTime,
			&row.Location, &row.URL, &row.RelevanceScore, &row.Status); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan event: %w", err))
		}
		out = append(out, row)
	}
	return out, closeRows(rows, nil)
}

// RecentArticles returns published articles since the given instant.
func (s *PostgresStore) RecentArticles(ctx context.Context, since time.Time, limit int) ([]domain.ArticleRow, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	q := psql.
		Select("id", "title", "excerpt", "featured_image", "source_url", "interest_score", "published_at", "status").
		From("articles").
		Where(sq.Eq{"status": domain.ArticleStatusPublished}).
		Where(sq.GtOrEq{"published_at": since}).
		OrderBy("interest_score DESC", "published_at DESC")
	query, args, err := limited(q, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	var out []domain.ArticleRow
	for rows.Next() {
		var row domain.ArticleRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Excerpt, &row.FeaturedImage, &row.SourceURL,
			&row.InterestScore, &row.PublishedAt, &row.Status); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan article: %w", err))
		}
		out = append(out, row)
	}
	return out, closeRows(rows, nil)
}

// ActiveResources returns active resources, highest priority first.
func (s *PostgresStore) ActiveResources(ctx context.Context, limit int) ([]domain.ResourceRow, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	q := psql.
		Select("id", "title", "description", "website_url", "priority", "is_active", "category_id").
		From("resources").
		Where(sq.Eq{"is_active": true}).
		OrderBy("priority DESC")
	query, args, err := limited(q, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build resources query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}

	var out []domain.ResourceRow
	for rows.Next() {
		var row domain.ResourceRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.WebsiteURL, &row.Priority,
			&row.IsActive, &row.CategoryID); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan resource: %w", err))
		}
		out = append(out, row)
	}
	return out, closeRows(rows, nil)
}

// ResourceCategoryCounts counts active resources per category.
func (s *PostgresStore) ResourceCategoryCounts(ctx context.Context) (map[string]int, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	query, args, err := psql.
		Select("COALESCE(NULLIF(category_id, ''), 'uncategorized') AS category", "COUNT(*)").
		From("resources").
		Where(sq.Eq{"is_active": true}).
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	counts := map[string]int{}
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan category: %w", err))
		}
		counts[category] = n
	}
	return counts, closeRows(rows, nil)
}

// MemberCounts summarizes the hub and cooperative membership tables.
func (s *PostgresStore) MemberCounts(ctx context.Context, since time.Time) (domain.MemberCounts, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.MemberCounts{}, err
	}
	defer cancel()

	query, args, err := psql.
		Select("COUNT(*)").
		Column(sq.Expr("COUNT(*) FILTER (WHERE last_active_at >= ?)", since)).
		Column("COUNT(*) FILTER (WHERE is_verified_creator)").
		Column(sq.Expr("COUNT(*) FILTER (WHERE created_at >= ?)", since)).
		Column("(SELECT COUNT(*) FROM coop_members WHERE is_active)").
		From("community_members").
		ToSql()
	if err != nil {
		return domain.MemberCounts{}, fmt.Errorf("build member query: %w", err)
	}

	var counts domain.MemberCounts
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&counts.CommunityMembers,
		&counts.ActiveMembers,
		&counts.VerifiedCreators,
		&counts.NewThisWeek,
		&counts.CoopMembers,
	); err != nil {
		return domain.MemberCounts{}, fmt.Errorf("query member counts: %w", err)
	}
	return counts, nil
}

func limited(b sq.SelectBuilder, limit int) sq.SelectBuilder {
	if limit > 0 {
		return b.Limit(uint64(limit))
	}
	return b
}
