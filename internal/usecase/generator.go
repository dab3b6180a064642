package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
	"Herald/internal/render"
)

const (
	generatedBy    = "herald"
	previewTextLen = 140
)

// GeneratorDeps wires all driven adapters into the edition generator.
type GeneratorDeps struct {
	Content     *ContentAggregator
	Synthesizer *IntelligenceSynthesizer
	Copy        *CopyGenerator
	Editions    ports.EditionRepository
	Limits      config.ContentConfig
	Editorial   config.EditorialConfig
	Now         func() time.Time
	Logger      *slog.Logger
}

// Generator implements full edition generation and regeneration.
type Generator struct {
	content   *ContentAggregator
	synth     *IntelligenceSynthesizer
	copy      *CopyGenerator
	editions  ports.EditionRepository
	limits    config.ContentConfig
	editorial config.EditorialConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewGenerator constructs the orchestration component.
func NewGenerator(deps GeneratorDeps) *Generator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Generator{
		content:   deps.Content,
		synth:     deps.Synthesizer,
		copy:      deps.Copy,
		editions:  deps.Editions,
		limits:    deps.Limits,
		editorial: deps.Editorial,
		now:       deps.Now,
		logger:    logging.Component(deps.Logger, "generator"),
	}
}

// GenerateRequest selects the edition type and, for regeneration, the edition.
type GenerateRequest struct {
	EditionType domain.EditionType
	EditionID   string
}

// SectionCounts reports how many items each section received.
type SectionCounts struct {
	Highlights int `json:"highlights"`
	Events     int `json:"events"`
	Resources  int `json:"resources"`
}

// GenerateResult is the outcome of one generation.
type GenerateResult struct {
	Edition domain.Edition `json:"edition"`
	Created bool           `json:"created"`
	UsedAI  bool           `json:"used_ai"`
	Counts  SectionCounts  `json:"counts"`
}

type sources struct {
	highlights []domain.ContentItem
	events     []domain.ContentItem
	resources  []domain.ContentItem
	intel      domain.IntelligenceContext
}

// Generate aggregates content, writes the intro, renders the HTML and
// persists the edition. With an EditionID the existing edition is
// regenerated in place and its items replaced.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	var existing *domain.Edition
	if req.EditionID != "" {
		edition, err := g.editions.GetEdition(ctx, req.EditionID)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("load edition %s: %w", req.EditionID, err)
		}
		if req.EditionType == "" {
			req.EditionType = edition.EditionType
		}
		if req.EditionType != edition.EditionType {
			return GenerateResult{}, domain.Invalid("edition_type", "edition %s is %s, not %s", edition.ID, edition.EditionType, req.EditionType)
		}
		if _, err := edition.Status.Transition(domain.StatusDraft); err != nil {
			return GenerateResult{}, err
		}
		existing = &edition
	}
	if !req.EditionType.Valid() {
		return GenerateResult{}, domain.Invalid("edition_type", "must be one of: weekly, monthly")
	}

	now := g.now()
	src := g.gather(ctx)

	intro, usedAI := g.copy.Intro(ctx, IntroInput{
		EditionType:    req.EditionType,
		HighlightCount: len(src.highlights),
		EventCount:     len(src.events),
		ResourceCount:  len(src.resources),
		Intelligence:   src.intel,
	})

	sections := domain.ContentSections{
		Intro:      intro,
		Highlights: src.highlights,
		Events:     src.events,
		Resources:  src.resources,
	}
	title := editionTitle(req.EditionType, now)

	preview := domain.Edition{Title: title, EditionType: req.EditionType, ContentSections: sections}
	if existing != nil {
		preview.EditorNote = existing.EditorNote
	}
	html, err := render.Render(render.DocumentFor(preview, g.editorial.EditorName, g.editorial.EditorAvatarURL))
	if err != nil {
		return GenerateResult{}, err
	}

	model := FallbackModel
	if usedAI {
		model = g.copy.Model()
	}
	items := editionItems(sections)
	result := GenerateResult{
		UsedAI: usedAI,
		Counts: SectionCounts{Highlights: len(src.highlights), Events: len(src.events), Resources: len(src.resources)},
	}

	if existing != nil {
		result.Edition, err = g.editions.RegenerateEdition(ctx, existing.ID, domain.Regeneration{
			Title:           title,
			SubjectLine:     subjectLine(req.EditionType, now, src.highlights),
			PreviewText:     truncate(render.Text(intro), previewTextLen),
			ContentSections: sections,
			HTMLContent:     html,
			GenerationModel: model,
			IfRevision:      existing.Revision,
		}, items)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("regenerate edition %s: %w", existing.ID, err)
		}
		g.logger.Info("edition regenerated", "edition_id", result.Edition.ID, "type", req.EditionType, "ai", usedAI)
		return result, nil
	}

	result.Edition, err = g.editions.CreateEdition(ctx, domain.NewEdition{
		EditionType:      req.EditionType,
		EditionDate:      startOfDay(now),
		Title:            title,
		SubjectLine:      subjectLine(req.EditionType, now, src.highlights),
		PreviewText:      truncate(render.Text(intro), previewTextLen),
		ContentSections:  sections,
		HTMLContent:      html,
		GeneratedByAgent: generatedBy,
		GenerationModel:  model,
	}, items)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("create edition: %w", err)
	}
	result.Created = true

	g.logger.Info("edition created",
		"edition_id", result.Edition.ID,
		"type", req.EditionType,
		"number", result.Edition.EditionNumber,
		"ai", usedAI)
	return result, nil
}

// gather fetches the three content sources and the intelligence snapshot
// concurrently. None of the branches can fail.
func (g *Generator) gather(ctx context.Context) sources {
	var src sources
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		src.highlights = g.content.Articles(egCtx, g.limits.ArticleLimit)
		return nil
	})
	eg.Go(func() error {
		src.events = g.content.Events(egCtx, g.limits.EventLimit)
		return nil
	})
	eg.Go(func() error {
		src.resources = g.content.Resources(egCtx, g.limits.ResourceLimit)
		return nil
	})
	eg.Go(func() error {
		src.intel = g.synth.Context(egCtx)
		return nil
	})

	_ = eg.Wait()
	return src
}

func editionItems(sections domain.ContentSections) []domain.EditionItem {
	groups := []struct {
		section string
		table   string
		items   []domain.ContentItem
	}{
		{domain.SectionHighlights, "articles", sections.Highlights},
		{domain.SectionEvents, "events", sections.Events},
		{domain.SectionResources, "resources", sections.Resources},
	}

	var out []domain.EditionItem
	for _, group := range groups {
		for i, item := range group.items {
			out = append(out, domain.EditionItem{
				ContentType:  item.Type,
				ContentID:    item.ID,
				ContentTable: group.table,
				Section:      group.section,
				DisplayOrder: i,
				Headline:     item.Title,
				Summary:      item.Summary,
				ImageURL:     item.ImageURL,
				CTAURL:       item.URL,
			})
		}
	}
	return out
}

func editionTitle(t domain.EditionType, now time.Time) string {
	if t == domain.EditionMonthly {
		return "The Monthly Herald: " + now.Format("January 2006")
	}
	return "The Weekly Herald: " + now.Format("2 January 2006")
}

func subjectLine(t domain.EditionType, now time.Time, highlights []domain.ContentItem) string {
	label := "Your Weekly Herald"
	if t == domain.EditionMonthly {
		label = "Your Monthly Herald"
	}
	if len(highlights) > 0 && strings.TrimSpace(highlights[0].Title) != "" {
		return label + ": " + render.Text(highlights[0].Title)
	}
	if t == domain.EditionMonthly {
		return label + " for " + now.Format("January")
	}
	return label + " for " + now.Format("2 January")
}
