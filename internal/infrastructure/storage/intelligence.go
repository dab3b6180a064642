package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"Herald/internal/domain"
)

const intelligenceTable = "ivor_intelligence"

var intelligenceColumns = []string{
	"id", "intelligence_type", "ivor_service", "intelligence_data", "summary",
	"key_insights", "actionable_items", "relevance_score", "priority", "urgency",
	"tags", "data_timestamp", "expires_at", "is_stale", "updated_at",
}

// FreshIntelligence returns non-stale, unexpired records for services, most
// recently written first.
func (s *PostgresStore) FreshIntelligence(ctx context.Context, services []string) ([]domain.IntelligenceRecord, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	query, args, err := psql.
		Select(intelligenceColumns...).
		From(intelligenceTable).
		Where(sq.Expr("ivor_service = ANY(?)", pq.Array(services))).
		Where(sq.Eq{"is_stale": false}).
		Where(sq.Expr("expires_at > ?", s.now())).
		OrderBy("updated_at DESC", "ivor_service ASC", "intelligence_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build intelligence query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query intelligence: %w", err)
	}

	var out []domain.IntelligenceRecord
	for rows.Next() {
		var (
			rec  domain.IntelligenceRecord
			data []byte
		)
		if err := rows.Scan(&rec.ID, &rec.IntelligenceType, &rec.Service, &data, &rec.Summary,
			pq.Array(&rec.KeyInsights), pq.Array(&rec.ActionableItems), &rec.RelevanceScore,
			&rec.Priority, &rec.Urgency, pq.Array(&rec.Tags), &rec.DataTimestamp, &rec.ExpiresAt,
			&rec.IsStale, &rec.UpdatedAt); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan intelligence: %w", err))
		}
		rec.Data = data
		out = append(out, rec)
	}
	return out, closeRows(rows, nil)
}

// UpsertIntelligence writes the record keyed by (intelligence_type, ivor_service)
// in one statement, so concurrent writers never duplicate a key.
func (s *PostgresStore) UpsertIntelligence(ctx context.Context, rec domain.IntelligenceRecord) error {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	data := []byte(rec.Data)
	if len(data) == 0 {
		data = []byte(`{}`)
	}

	query, args, err := psql.
		Insert(intelligenceTable).
		Columns(intelligenceColumns...).
		Values(
			uuid.NewString(), rec.IntelligenceType, rec.Service, data, rec.Summary,
			pq.Array(nonNil(rec.KeyInsights)), pq.Array(nonNil(rec.ActionableItems)), rec.RelevanceScore,
			rec.Priority, rec.Urgency, pq.Array(nonNil(rec.Tags)), rec.DataTimestamp, rec.ExpiresAt,
			rec.IsStale, s.now(),
		).
		Suffix(`ON CONFLICT (intelligence_type, ivor_service) DO UPDATE SET
			intelligence_data = EXCLUDED.intelligence_data,
			summary = EXCLUDED.summary,
			key_insights = EXCLUDED.key_insights,
			actionable_items = EXCLUDED.actionable_items,
			relevance_score = EXCLUDED.relevance_score,
			priority = EXCLUDED.priority,
			urgency = EXCLUDED.urgency,
			tags = EXCLUDED.tags,
			data_timestamp = EXCLUDED.data_timestamp,
			expires_at = EXCLUDED.expires_at,
			is_stale = EXCLUDED.is_stale,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build intelligence upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert intelligence %s/%s: %w", rec.IntelligenceType, rec.Service, err)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
