package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"Herald/internal/domain"
)

const (
	editionsTable = "newsletter_editions"
	itemsTable    = "newsletter_edition_items"
	countersTable = "newsletter_edition_counters"
)

var editionColumns = []string{
	"id", "edition_type", "edition_number", "edition_date", "title", "subject_line", "preview_text",
	"content_sections", "html_content", "status", "scheduled_for", "editor_note", "editor_prompt_topic",
	"editor_prompt_sent_at", "editor_prompt_responded", "generated_by_agent", "generation_model",
	"sendfox_list_id", "created_at", "updated_at", "revision",
}

var itemColumns = []string{
	"newsletter_id", "content_type", "content_id", "content_table", "section", "display_order",
	"headline", "summary", "image_url", "cta_url",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateEdition assigns the next number for the edition type and inserts the
// edition with its items in one transaction.
func (s *PostgresStore) CreateEdition(ctx context.Context, in domain.NewEdition, items []domain.EditionItem) (domain.Edition, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.Edition{}, err
	}
	defer cancel()

	sections, err := json.Marshal(in.ContentSections)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("marshal sections: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx)

	counterQuery, counterArgs, err := psql.
		Insert(countersTable).
		Columns("edition_type", "last_number").
		Values(string(in.EditionType), 1).
		Suffix("ON CONFLICT (edition_type) DO UPDATE SET last_number = " + countersTable + ".last_number + 1 RETURNING last_number").
		ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build counter upsert: %w", err)
	}

	var number int
	if err := tx.QueryRowContext(ctx, counterQuery, counterArgs...).Scan(&number); err != nil {
		return domain.Edition{}, fmt.Errorf("next edition number: %w", err)
	}

	now := s.now().UTC()
	edition := domain.Edition{
		ID:               uuid.NewString(),
		EditionType:      in.EditionType,
		EditionNumber:    number,
		EditionDate:      in.EditionDate,
		Title:            in.Title,
		SubjectLine:      in.SubjectLine,
		PreviewText:      in.PreviewText,
		ContentSections:  in.ContentSections,
		HTMLContent:      in.HTMLContent,
		Status:           domain.StatusDraft,
		GeneratedByAgent: in.GeneratedByAgent,
		GenerationModel:  in.GenerationModel,
		CreatedAt:        now,
		UpdatedAt:        now,
		Revision:         1,
	}

	insertQuery, insertArgs, err := psql.
		Insert(editionsTable).
		Columns("id", "edition_type", "edition_number", "edition_date", "title", "subject_line", "preview_text",
			"content_sections", "html_content", "status", "generated_by_agent", "generation_model",
			"created_at", "updated_at", "revision").
		Values(edition.ID, string(edition.EditionType), edition.EditionNumber, edition.EditionDate, edition.Title,
			edition.SubjectLine, edition.PreviewText, sections, edition.HTMLContent, string(edition.Status),
			edition.GeneratedByAgent, edition.GenerationModel, now, now, edition.Revision).
		ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build edition insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return domain.Edition{}, fmt.Errorf("insert edition: %w", err)
	}

	if err := insertItems(ctx, tx, edition.ID, items); err != nil {
		return domain.Edition{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Edition{}, fmt.Errorf("commit edition: %w", err)
	}
	return edition, nil
}

// GetEdition loads one edition by id.
func (s *PostgresStore) GetEdition(ctx context.Context, id string) (domain.Edition, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.Edition{}, err
	}
	defer cancel()

	if err := knownID(id); err != nil {
		return domain.Edition{}, err
	}

	query, args, err := psql.
		Select(editionColumns...).
		From(editionsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build edition query: %w", err)
	}

	return scanEdition(s.db.QueryRowContext(ctx, query, args...), id)
}

// RegenerateEdition overwrites the generated fields, resets the status to
// draft and replaces the items in one transaction.
func (s *PostgresStore) RegenerateEdition(ctx context.Context, id string, regen domain.Regeneration, items []domain.EditionItem) (domain.Edition, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.Edition{}, err
	}
	defer cancel()

	if err := knownID(id); err != nil {
		return domain.Edition{}, err
	}

	sections, err := json.Marshal(regen.ContentSections)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("marshal sections: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx)

	query, args, err := psql.
		Update(editionsTable).
		SetMap(map[string]any{
			"title":            regen.Title,
			"subject_line":     regen.SubjectLine,
			"preview_text":     regen.PreviewText,
			"content_sections": sections,
			"html_content":     regen.HTMLContent,
			"generation_model": regen.GenerationModel,
			"status":           string(domain.StatusDraft),
			"updated_at":       s.now().UTC(),
			"revision":         sq.Expr("revision + 1"),
		}).
		Where(revisionGuard(id, regen.IfRevision)).
		Suffix("RETURNING " + strings.Join(editionColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build regenerate update: %w", err)
	}

	edition, err := scanGuarded(tx.QueryRowContext(ctx, query, args...), id, regen.IfRevision)
	if err != nil {
		return domain.Edition{}, err
	}

	deleteQuery, deleteArgs, err := psql.Delete(itemsTable).Where(sq.Eq{"newsletter_id": id}).ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build items delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return domain.Edition{}, fmt.Errorf("delete items: %w", err)
	}

	if err := insertItems(ctx, tx, id, items); err != nil {
		return domain.Edition{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Edition{}, fmt.Errorf("commit regeneration: %w", err)
	}
	return edition, nil
}

// UpdateEdition applies a partial update in a single statement and returns the result.
func (s *PostgresStore) UpdateEdition(ctx context.Context, id string, patch domain.EditionPatch) (domain.Edition, error) {
	if patch.Empty() {
		return s.GetEdition(ctx, id)
	}

	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.Edition{}, err
	}
	defer cancel()

	if err := knownID(id); err != nil {
		return domain.Edition{}, err
	}

	set := map[string]any{"updated_at": s.now().UTC(), "revision": sq.Expr("revision + 1")}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.ScheduledFor != nil {
		set["scheduled_for"] = *patch.ScheduledFor
	}
	if patch.HTMLContent != nil {
		set["html_content"] = *patch.HTMLContent
	}
	if patch.EditorNote != nil {
		set["editor_note"] = *patch.EditorNote
	}
	if patch.EditorPromptTopic != nil {
		set["editor_prompt_topic"] = *patch.EditorPromptTopic
	}
	if patch.EditorPromptSentAt != nil {
		set["editor_prompt_sent_at"] = *patch.EditorPromptSentAt
	}
	if patch.EditorPromptResponded != nil {
		set["editor_prompt_responded"] = *patch.EditorPromptResponded
	}
	if patch.SendfoxListID != nil {
		set["sendfox_list_id"] = *patch.SendfoxListID
	}

	query, args, err := psql.
		Update(editionsTable).
		SetMap(set).
		Where(revisionGuard(id, patch.IfRevision)).
		Suffix("RETURNING " + strings.Join(editionColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Edition{}, fmt.Errorf("build edition update: %w", err)
	}

	return scanGuarded(s.db.QueryRowContext(ctx, query, args...), id, patch.IfRevision)
}

// EditionItems lists the items attached to an edition in display order.
func (s *PostgresStore) EditionItems(ctx context.Context, id string) ([]domain.EditionItem, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if err := knownID(id); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"newsletter_id": id}).
		OrderBy("section ASC", "display_order ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	out := []domain.EditionItem{}
	for rows.Next() {
		var (
			item        domain.EditionItem
			contentType string
		)
		if err := rows.Scan(&item.NewsletterID, &contentType, &item.ContentID, &item.ContentTable, &item.Section,
			&item.DisplayOrder, &item.Headline, &item.Summary, &item.ImageURL, &item.CTAURL); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan item: %w", err))
		}
		item.ContentType = domain.ContentType(contentType)
		out = append(out, item)
	}
	return out, closeRows(rows, nil)
}

func insertItems(ctx context.Context, tx *sql.Tx, editionID string, items []domain.EditionItem) error {
	if len(items) == 0 {
		return nil
	}

	b := psql.Insert(itemsTable).Columns(itemColumns...)
	for _, item := range items {
		b = b.Values(editionID, string(item.ContentType), item.ContentID, item.ContentTable, item.Section,
			item.DisplayOrder, item.Headline, item.Summary, item.ImageURL, item.CTAURL)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func scanEdition(row rowScanner, id string) (domain.Edition, error) {
	var (
		e            domain.Edition
		editionType  string
		status       string
		sections     []byte
		scheduledFor sql.NullTime
		promptSentAt sql.NullTime
	)
	err := row.Scan(&e.ID, &editionType, &e.EditionNumber, &e.EditionDate, &e.Title, &e.SubjectLine,
		&e.PreviewText, &sections, &e.HTMLContent, &status, &scheduledFor, &e.EditorNote,
		&e.EditorPromptTopic, &promptSentAt, &e.EditorPromptResponded, &e.GeneratedByAgent,
		&e.GenerationModel, &e.SendfoxListID, &e.CreatedAt, &e.UpdatedAt, &e.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Edition{}, fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Edition{}, fmt.Errorf("scan edition %s: %w", id, err)
	}

	e.EditionType = domain.EditionType(editionType)
	e.Status = domain.EditionStatus(status)
	if scheduledFor.Valid {
		e.ScheduledFor = &scheduledFor.Time
	}
	if promptSentAt.Valid {
		e.EditorPromptSentAt = &promptSentAt.Time
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &e.ContentSections); err != nil {
			return domain.Edition{}, fmt.Errorf("decode sections of %s: %w", id, err)
		}
	}
	return e, nil
}

func revisionGuard(id string, revision int) sq.Eq {
	where := sq.Eq{"id": id}
	if revision > 0 {
		where["revision"] = revision
	}
	return where
}

// scanGuarded is scanEdition for guarded writes. Editions are never deleted,
// so a guarded write that matched no row lost a race with another writer.
func scanGuarded(row rowScanner, id string, revision int) (domain.Edition, error) {
	edition, err := scanEdition(row, id)
	if revision > 0 && errors.Is(err, domain.ErrNotFound) {
		return domain.Edition{}, fmt.Errorf("edition %s changed after revision %d: %w", id, revision, domain.ErrConflict)
	}
	return edition, err
}

// knownID rejects ids that cannot exist before Postgres fails the uuid cast.
func knownID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
