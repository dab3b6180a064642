// Package memory is an in-process implementation of every store port. It
// backs the "memory" DSN for local runs and the use case tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"Herald/internal/domain"
	"Herald/internal/ports"
)

type intelKey struct {
	intelType string
	service   string
}

// Store keeps all tables in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	events    []domain.EventRow
	articles  []domain.ArticleRow
	resources []domain.ResourceRow
	members   domain.MemberCounts

	intel    map[intelKey]domain.IntelligenceRecord
	editions map[string]domain.Edition
	items    map[string][]domain.EditionItem
	counters map[domain.EditionType]int
	tasks    []domain.AgentTask

	contentErr error
	intelErr   error
}

var _ ports.Store = (*Store)(nil)

// New returns an empty store. A nil clock means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		intel:    map[intelKey]domain.IntelligenceRecord{},
		editions: map[string]domain.Edition{},
		items:    map[string][]domain.EditionItem{},
		counters: map[domain.EditionType]int{},
	}
}

// AddEvents seeds event rows.
func (s *Store) AddEvents(rows ...domain.EventRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, rows...)
}

// AddArticles seeds article rows.
func (s *Store) AddArticles(rows ...domain.ArticleRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, rows...)
}

// AddResources seeds resource rows.
func (s *Store) AddResources(rows ...domain.ResourceRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, rows...)
}

// SetMemberCounts seeds the membership summary.
func (s *Store) SetMemberCounts(counts domain.MemberCounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = counts
}

// FailContent makes every content and stats read return err until cleared with nil.
func (s *Store) FailContent(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentErr = err
}

// FailIntelligence makes intelligence reads and writes return err until cleared with nil.
func (s *Store) FailIntelligence(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intelErr = err
}

// Tasks returns a copy of the recorded agent tasks in insertion order.
func (s *Store) Tasks() []domain.AgentTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AgentTask(nil), s.tasks...)
}

// Intelligence returns every cached record regardless of freshness.
func (s *Store) Intelligence() []domain.IntelligenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.IntelligenceRecord, 0, len(s.intel))
	for _, rec := range s.intel {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IntelligenceType != out[j].IntelligenceType {
			return out[i].IntelligenceType < out[j].IntelligenceType
		}
		return out[i].Service < out[j].Service
	})
	return out
}

// UpcomingEvents implements ports.ContentRepository.
func (s *Store) UpcomingEvents(_ context.Context, from, to time.Time, limit int) ([]domain.EventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentErr != nil {
		return nil, s.contentErr
	}

	var out []domain.EventRow
	for _, row := range s.events {
		if row.Status == domain.EventStatusApproved && !row.Date.Before(from) && row.Date.Before(to) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].Date.Before(out[j].Date)
	})
	return limitRows(out, limit), nil
}

// RecentArticles implements ports.ContentRepository.
func (s *Store) RecentArticles(_ context.Context, since time.Time, limit int) ([]domain.ArticleRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentErr != nil {
		return nil, s.contentErr
	}

	var out []domain.ArticleRow
	for _, row := range s.articles {
		if row.Status == domain.ArticleStatusPublished && !row.PublishedAt.Before(since) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].InterestScore != out[j].InterestScore {
			return out[i].InterestScore > out[j].InterestScore
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return limitRows(out, limit), nil
}

// ActiveResources implements ports.ContentRepository.
func (s *Store) ActiveResources(_ context.Context, limit int) ([]domain.ResourceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentErr != nil {
		return nil, s.contentErr
	}

	var out []domain.ResourceRow
	for _, row := range s.resources {
		if row.IsActive {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return limitRows(out, limit), nil
}

// ResourceCategoryCounts implements ports.CommunityStats.
func (s *Store) ResourceCategoryCounts(context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentErr != nil {
		return nil, s.contentErr
	}

	counts := map[string]int{}
	for _, row := range s.resources {
		if !row.IsActive {
			continue
		}
		category := row.CategoryID
		if category == "" {
			category = "uncategorized"
		}
		counts[category]++
	}
	return counts, nil
}

// MemberCounts implements ports.CommunityStats.
func (s *Store) MemberCounts(context.Context, time.Time) (domain.MemberCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentErr != nil {
		return domain.MemberCounts{}, s.contentErr
	}
	return s.members, nil
}

// FreshIntelligence implements ports.IntelligenceRepository.
func (s *Store) FreshIntelligence(_ context.Context, services []string) ([]domain.IntelligenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intelErr != nil {
		return nil, s.intelErr
	}

	wanted := map[string]bool{}
	for _, svc := range services {
		wanted[svc] = true
	}
	now := s.now()

	var out []domain.IntelligenceRecord
	for _, rec := range s.intel {
		if wanted[rec.Service] && !rec.IsStale && rec.ExpiresAt.After(now) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].IntelligenceType < out[j].IntelligenceType
	})
	return out, nil
}

// UpsertIntelligence implements ports.IntelligenceRepository.
func (s *Store) UpsertIntelligence(_ context.Context, rec domain.IntelligenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intelErr != nil {
		return s.intelErr
	}

	key := intelKey{rec.IntelligenceType, rec.Service}
	if prev, ok := s.intel[key]; ok {
		rec.ID = prev.ID
	} else {
		rec.ID = uuid.NewString()
	}
	rec.UpdatedAt = s.now()
	s.intel[key] = rec
	return nil
}

// CreateEdition implements ports.EditionRepository. The number is assigned
// under the store lock so concurrent creates never share one.
func (s *Store) CreateEdition(_ context.Context, in domain.NewEdition, items []domain.EditionItem) (domain.Edition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[in.EditionType]++
	now := s.now()
	edition := domain.Edition{
		ID:               uuid.NewString(),
		EditionType:      in.EditionType,
		EditionNumber:    s.counters[in.EditionType],
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
	s.editions[edition.ID] = edition
	s.items[edition.ID] = attach(edition.ID, items)
	return edition, nil
}

// GetEdition implements ports.EditionRepository.
func (s *Store) GetEdition(_ context.Context, id string) (domain.Edition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edition, ok := s.editions[id]
	if !ok {
		return domain.Edition{}, fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	return edition, nil
}

// RegenerateEdition implements ports.EditionRepository.
func (s *Store) RegenerateEdition(_ context.Context, id string, regen domain.Regeneration, items []domain.EditionItem) (domain.Edition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edition, ok := s.editions[id]
	if !ok {
		return domain.Edition{}, fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	if err := edition.CheckRevision(regen.IfRevision); err != nil {
		return domain.Edition{}, err
	}
	edition.Title = regen.Title
	edition.SubjectLine = regen.SubjectLine
	edition.PreviewText = regen.PreviewText
	edition.ContentSections = regen.ContentSections
	edition.HTMLContent = regen.HTMLContent
	edition.GenerationModel = regen.GenerationModel
	edition.Status = domain.StatusDraft
	edition.UpdatedAt = s.now()
	edition.Revision++

	s.editions[id] = edition
	s.items[id] = attach(id, items)
	return edition, nil
}

// UpdateEdition implements ports.EditionRepository.
func (s *Store) UpdateEdition(_ context.Context, id string, patch domain.EditionPatch) (domain.Edition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edition, ok := s.editions[id]
	if !ok {
		return domain.Edition{}, fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	if err := edition.CheckRevision(patch.IfRevision); err != nil {
		return domain.Edition{}, err
	}
	if patch.Empty() {
		return edition, nil
	}
	if patch.Status != nil {
		edition.Status = *patch.Status
	}
	if patch.ScheduledFor != nil {
		at := *patch.ScheduledFor
		edition.ScheduledFor = &at
	}
	if patch.HTMLContent != nil {
		edition.HTMLContent = *patch.HTMLContent
	}
	if patch.EditorNote != nil {
		edition.EditorNote = *patch.EditorNote
	}
	if patch.EditorPromptTopic != nil {
		edition.EditorPromptTopic = *patch.EditorPromptTopic
	}
	if patch.EditorPromptSentAt != nil {
		at := *patch.EditorPromptSentAt
		edition.EditorPromptSentAt = &at
	}
	if patch.EditorPromptResponded != nil {
		edition.EditorPromptResponded = *patch.EditorPromptResponded
	}
	if patch.SendfoxListID != nil {
		edition.SendfoxListID = *patch.SendfoxListID
	}
	edition.UpdatedAt = s.now()
	edition.Revision++

	s.editions[id] = edition
	return edition, nil
}

// EditionItems implements ports.EditionRepository.
func (s *Store) EditionItems(_ context.Context, id string) ([]domain.EditionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.editions[id]; !ok {
		return nil, fmt.Errorf("edition %s: %w", id, domain.ErrNotFound)
	}
	return append([]domain.EditionItem{}, s.items[id]...), nil
}

// InsertTask implements ports.TaskRepository.
func (s *Store) InsertTask(_ context.Context, task domain.AgentTask) (domain.AgentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = uuid.NewString()
	task.CreatedAt = s.now()
	s.tasks = append(s.tasks, task)
	return task, nil
}

// TaskRecordedSince implements ports.TaskRepository.
func (s *Store) TaskRecordedSince(_ context.Context, agentType domain.AgentType, titlePrefix string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		if task.AgentType == agentType && task.Status != domain.TaskFailed &&
			strings.HasPrefix(task.Title, titlePrefix) && !task.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func attach(id string, items []domain.EditionItem) []domain.EditionItem {
	out := make([]domain.EditionItem, len(items))
	for i, item := range items {
		item.NewsletterID = id
		out[i] = item
	}
	return out
}

func limitRows[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
