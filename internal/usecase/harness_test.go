package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/infrastructure/storage/memory"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) Model() string { return "test-model" }

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeMailer struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []ports.Email
}

func (f *fakeMailer) Send(_ context.Context, msg ports.Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func (f *fakeMailer) Configured() bool { return f.configured }

type fakeLists struct {
	lists []ports.MailingList
	err   error
}

func (f fakeLists) Lists(context.Context) ([]ports.MailingList, error) { return f.lists, f.err }

// racingEditions runs hook once, right after the read numbered fireOn
// returns, so a second writer lands between a read and its write.
type racingEditions struct {
	ports.EditionRepository
	fireOn int
	hook   func()

	mu    sync.Mutex
	reads int
}

func (r *racingEditions) GetEdition(ctx context.Context, id string) (domain.Edition, error) {
	edition, err := r.EditionRepository.GetEdition(ctx, id)
	r.mu.Lock()
	r.reads++
	fire := r.reads == r.fireOn
	r.mu.Unlock()
	if fire {
		r.hook()
	}
	return edition, err
}

type harness struct {
	now       time.Time
	cfg       config.Config
	store     *memory.Store
	completer *fakeCompleter
	mailer    *fakeMailer

	content    *ContentAggregator
	synth      *IntelligenceSynthesizer
	copy       *CopyGenerator
	aggregator *IntelligenceAggregator
	agents     *AgentExecutor
	generator  *Generator
	editorial  *EditorialWorkflow
	handoff    *ListHandoff
	lifecycle  *EditionLifecycle
	exporter   *Exporter
	dispatcher *Dispatcher
}

// newHarness wires every use case over a memory store with a fixed clock.
// A nil completer runs in fallback mode.
func newHarness(t *testing.T, now time.Time, completer *fakeCompleter) *harness {
	t.Helper()

	cfg := config.Merge(config.Config{
		Email:     config.EmailConfig{EditorEmail: "editor@example.org", From: "herald@example.org"},
		Editorial: config.EditorialConfig{EditorName: "Ada", ResponseURL: "https://example.org/editorial"},
		SendFox:   config.SendFoxConfig{Lists: map[string]string{"weekly": "list-weekly"}},
	})
	clock := func() time.Time { return now }
	logger := logging.Discard()
	store := memory.New(clock)

	var c ports.Completer
	if completer != nil {
		c = completer
	}

	h := &harness{now: now, cfg: cfg, store: store, completer: completer, mailer: &fakeMailer{}}
	h.content = NewContentAggregator(store, cfg.Content, clock, logger)
	h.synth = NewIntelligenceSynthesizer(store, clock, logger)
	h.copy = NewCopyGenerator(c, logger)
	h.aggregator = NewIntelligenceAggregator(store, store, store, cfg.Intelligence, clock, logger)
	h.agents = NewAgentExecutor(AgentExecutorDeps{
		Synthesizer: h.synth, Copy: h.copy, Intel: store, Tasks: store, Now: clock, Logger: logger,
	})
	h.generator = NewGenerator(GeneratorDeps{
		Content: h.content, Synthesizer: h.synth, Copy: h.copy, Editions: store,
		Limits: cfg.Content, Editorial: cfg.Editorial, Now: clock, Logger: logger,
	})
	h.editorial = NewEditorialWorkflow(EditorialDeps{
		Editions: store, Mailer: h.mailer, Copy: h.copy, Editorial: cfg.Editorial, Email: cfg.Email, Now: clock, Logger: logger,
	})
	h.handoff = NewListHandoff(store, fakeLists{lists: []ports.MailingList{{ID: "list-weekly", Name: "Weekly", Subscribers: 420}}}, cfg.SendFox, logger)
	h.lifecycle = NewEditionLifecycle(store)
	h.exporter = NewExporter(store)
	h.dispatcher = NewDispatcher(DispatcherDeps{
		Aggregator: h.aggregator, Agents: h.agents, Generator: h.generator, Tasks: store,
		Scheduler: cfg.Scheduler, Lists: cfg.SendFox.Lists, Now: clock, Logger: logger,
	})
	return h
}

// seed fills the store with a small community relative to h.now.
func (h *harness) seed() {
	today := startOfDay(h.now)
	h.store.AddEvents(
		domain.EventRow{ID: "e-yesterday", Title: "Old meetup", Date: today.AddDate(0, 0, -1), RelevanceScore: 0.99, Status: domain.EventStatusApproved},
		domain.EventRow{ID: "e-today", Title: "Tenant meeting", Date: today, RelevanceScore: 0.5, Status: domain.EventStatusApproved, Location: "Hall"},
		domain.EventRow{ID: "e-soon", Title: "Potluck", Description: "Bring a dish", Date: today.AddDate(0, 0, 2), RelevanceScore: 0.9, Status: domain.EventStatusApproved, Location: "Library"},
		domain.EventRow{ID: "e-edge", Title: "Garden day", Date: today.AddDate(0, 0, 14), RelevanceScore: 0.5, Status: domain.EventStatusApproved},
		domain.EventRow{ID: "e-late", Title: "Winter fair", Date: today.AddDate(0, 0, 15), RelevanceScore: 0.95, Status: domain.EventStatusApproved},
		domain.EventRow{ID: "e-pending", Title: "Unreviewed", Date: today.AddDate(0, 0, 3), RelevanceScore: 1, Status: "pending"},
	)
	h.store.AddArticles(
		domain.ArticleRow{ID: "a-low", Title: "Council notes", InterestScore: 0.2, PublishedAt: h.now.Add(-24 * time.Hour), Status: domain.ArticleStatusPublished},
		domain.ArticleRow{ID: "a-high-old", Title: "Food bank expands hours", InterestScore: 0.9, PublishedAt: h.now.Add(-72 * time.Hour), Status: domain.ArticleStatusPublished},
		domain.ArticleRow{ID: "a-high-new", Title: "Mural unveiled", InterestScore: 0.9, PublishedAt: h.now.Add(-2 * time.Hour), Status: domain.ArticleStatusPublished},
		domain.ArticleRow{ID: "a-stale", Title: "Last month", InterestScore: 1, PublishedAt: h.now.AddDate(0, 0, -10), Status: domain.ArticleStatusPublished},
		domain.ArticleRow{ID: "a-draft", Title: "Draft", InterestScore: 1, PublishedAt: h.now, Status: "draft"},
	)
	h.store.AddResources(
		domain.ResourceRow{ID: "r1", Title: "Legal aid clinic", Priority: 5, IsActive: true, CategoryID: "legal"},
		domain.ResourceRow{ID: "r2", Title: "Tool library", Priority: 8, IsActive: true, CategoryID: "sharing"},
		domain.ResourceRow{ID: "r3", Title: "Closed pantry", Priority: 9, IsActive: false, CategoryID: "food"},
	)
	h.store.SetMemberCounts(domain.MemberCounts{CommunityMembers: 1200, ActiveMembers: 300, VerifiedCreators: 12, CoopMembers: 85, NewThisWeek: 6})
}

func ids(items []domain.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

// friday is 2026-10-23 10:00 UTC.
var friday = time.Date(2026, time.October, 23, 10, 0, 0, 0, time.UTC)
