package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
	"Herald/internal/render"
)

func TestSubmitEditorialTransitionsAndRenders(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	updated, err := h.editorial.Submit(ctx, created.Edition.ID, "Community resilience", "Check in on each other")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusEditorialReceived, updated.Status)
	assert.True(t, updated.EditorPromptResponded)
	assert.Equal(t, "Community resilience | Check in on each other", updated.EditorPromptTopic)
	assert.Equal(t, "Community resilience. Check in on each other", updated.EditorNote)

	html := updated.HTMLContent
	intro := strings.Index(html, `<div class="intro">`)
	editor := strings.Index(html, `data-block="editor"`)
	firstSection := strings.Index(html, "<section")
	require.True(t, intro >= 0 && editor >= 0 && firstSection >= 0)
	assert.Less(t, intro, editor)
	assert.Less(t, editor, firstSection)

	parsed, err := render.Parse(html)
	require.NoError(t, err)
	assert.Equal(t, updated.EditorNote, parsed.EditorNote)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.HTMLContent, stored.HTMLContent)
}

func TestSubmitEditorialUsesCompleter(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "This week I've been thinking about how we're holding each other up."}
	h := newHarness(t, friday, completer)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	updated, err := h.editorial.Submit(ctx, created.Edition.ID, "Community resilience", "Check in on each other")
	require.NoError(t, err)
	assert.Equal(t, completer.reply, updated.EditorNote)
	assert.Contains(t, updated.HTMLContent, updated.EditorNote)
	assert.Contains(t, completer.prompts[len(completer.prompts)-1], "Topic: Community resilience")
}

func TestSubmitEditorialValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	ctx := context.Background()

	_, err := h.editorial.Submit(ctx, "", "topic", "")
	assert.True(t, domain.IsValidation(err))

	_, err = h.editorial.Submit(ctx, "id", "  ", "takeaway")
	assert.True(t, domain.IsValidation(err))

	_, err = h.editorial.Submit(ctx, "missing", "topic", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendPromptWithoutEmailReturnsManualPrompt(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	res, err := h.editorial.SendPrompt(ctx, created.Edition.ID)
	require.NoError(t, err)

	assert.False(t, res.Sent)
	require.NotNil(t, res.Manual)
	assert.Equal(t, "editor@example.org", res.Manual.To)
	assert.Contains(t, res.Manual.HTML, "edition_id="+created.Edition.ID)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status, "manual prompts leave the edition untouched")
}

func TestSendPromptMarksEdition(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	h.mailer.configured = true
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	res, err := h.editorial.SendPrompt(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "msg-1", res.MessageID)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, []string{"editor@example.org"}, h.mailer.sent[0].To)
	assert.Contains(t, h.mailer.sent[0].Subject, created.Edition.Title)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPromptSent, stored.Status)
	require.NotNil(t, stored.EditorPromptSentAt)
	assert.True(t, stored.EditorPromptSentAt.Equal(friday))
}

func TestSendPromptDeliveryFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	h.mailer.configured = true
	h.mailer.err = fmt.Errorf("status 503: %w", domain.ErrDelivery)
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	_, err = h.editorial.SendPrompt(ctx, created.Edition.ID)
	assert.ErrorIs(t, err, domain.ErrDelivery)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
}

func TestSubmitEditorialRerendersAfterConcurrentRegeneration(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	editions := &racingEditions{EditionRepository: h.store, fireOn: 2}
	editions.hook = func() {
		h.store.AddArticles(domain.ArticleRow{ID: "a-breaking", Title: "Library stays open", InterestScore: 1, PublishedAt: h.now.Add(-time.Hour), Status: domain.ArticleStatusPublished})
		_, err := h.generator.Generate(ctx, GenerateRequest{EditionID: created.Edition.ID})
		require.NoError(t, err)
	}
	workflow := NewEditorialWorkflow(EditorialDeps{
		Editions: editions, Copy: h.copy, Editorial: h.cfg.Editorial, Email: h.cfg.Email, Now: func() time.Time { return h.now },
	})

	updated, err := workflow.Submit(ctx, created.Edition.ID, "Community resilience", "Check in on each other")
	require.NoError(t, err)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.HTMLContent, stored.HTMLContent)
	assert.Equal(t, 3, stored.Revision)
	assert.Equal(t, "a-breaking", stored.ContentSections.Highlights[0].ID)

	expected, err := render.Render(render.DocumentFor(stored, h.cfg.Editorial.EditorName, h.cfg.Editorial.EditorAvatarURL))
	require.NoError(t, err)
	assert.Equal(t, expected, stored.HTMLContent)
	assert.Contains(t, stored.HTMLContent, "Library stays open")
	assert.Contains(t, stored.HTMLContent, stored.EditorNote)
}

func TestRegenerateLosesRaceWithEditorialSubmit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	editions := &racingEditions{EditionRepository: h.store, fireOn: 1}
	editions.hook = func() {
		_, err := h.editorial.Submit(ctx, created.Edition.ID, "Community resilience", "")
		require.NoError(t, err)
	}
	generator := NewGenerator(GeneratorDeps{
		Content: h.content, Synthesizer: h.synth, Copy: h.copy, Editions: editions,
		Limits: h.cfg.Content, Editorial: h.cfg.Editorial, Now: func() time.Time { return h.now },
	})

	_, err = generator.Generate(ctx, GenerateRequest{EditionID: created.Edition.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEditorialReceived, stored.Status)
	assert.Contains(t, stored.HTMLContent, `data-block="editor"`)
}
