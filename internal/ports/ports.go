package ports

import (
	"context"
	"time"

	"Herald/internal/domain"
)

// ContentRepository reads the community content tables.
type ContentRepository interface {
	UpcomingEvents(ctx context.Context, from, to time.Time, limit int) ([]domain.EventRow, error)
	RecentArticles(ctx context.Context, since time.Time, limit int) ([]domain.ArticleRow, error)
	ActiveResources(ctx context.Context, limit int) ([]domain.ResourceRow, error)
}

// CommunityStats exposes the raw counts the intelligence aggregator summarizes.
type CommunityStats interface {
	ResourceCategoryCounts(ctx context.Context) (map[string]int, error)
	MemberCounts(ctx context.Context, since time.Time) (domain.MemberCounts, error)
}

// IntelligenceRepository is the intelligence cache table.
type IntelligenceRepository interface {
	FreshIntelligence(ctx context.Context, services []string) ([]domain.IntelligenceRecord, error)
	UpsertIntelligence(ctx context.Context, record domain.IntelligenceRecord) error
}

// EditionRepository persists editions and their attached items.
type EditionRepository interface {
	CreateEdition(ctx context.Context, edition domain.NewEdition, items []domain.EditionItem) (domain.Edition, error)
	GetEdition(ctx context.Context, id string) (domain.Edition, error)
	RegenerateEdition(ctx context.Context, id string, regen domain.Regeneration, items []domain.EditionItem) (domain.Edition, error)
	UpdateEdition(ctx context.Context, id string, patch domain.EditionPatch) (domain.Edition, error)
	EditionItems(ctx context.Context, id string) ([]domain.EditionItem, error)
}

// TaskRepository records agent tasks.
type TaskRepository interface {
	InsertTask(ctx context.Context, task domain.AgentTask) (domain.AgentTask, error)
	// TaskRecordedSince reports whether a task that did not fail was recorded
	// for agentType with a title starting with titlePrefix at or after since.
	TaskRecordedSince(ctx context.Context, agentType domain.AgentType, titlePrefix string, since time.Time) (bool, error)
}

// Store bundles every repository a single backing database provides.
type Store interface {
	ContentRepository
	CommunityStats
	IntelligenceRepository
	EditionRepository
	TaskRepository
}

// CompletionRequest is one prompt sent to the completion service.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer generates text from a prompt. Implementations return
// domain.ErrNotConfigured when no credentials are available.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

// Email is an outbound transactional message.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Email) (string, error)
	Configured() bool
}

// MailingList is a list on the external list platform.
type MailingList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// ListDirectory reads lists from the mailing-list platform; it has no send operation.
type ListDirectory interface {
	Lists(ctx context.Context) ([]MailingList, error)
}

// Scheduler controls when the composite job executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Clock supplies the current time.
type Clock func() time.Time
