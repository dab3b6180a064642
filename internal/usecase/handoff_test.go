package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
	"Herald/internal/ports"
)

func TestHandoffRequiresHTML(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	ctx := context.Background()

	edition, err := h.store.CreateEdition(ctx, domain.NewEdition{EditionType: domain.EditionWeekly, Title: "Empty"}, nil)
	require.NoError(t, err)

	_, err = h.handoff.Prepare(ctx, edition.ID, "list-1")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	stored, err := h.store.GetEdition(ctx, edition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assert.Empty(t, stored.SendfoxListID)
}

func TestHandoffResolvesDefaultList(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)

	res, err := h.handoff.Prepare(ctx, created.Edition.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "list-weekly", res.ListID)
	assert.Equal(t, domain.StatusApproved, res.Status)
	assert.Equal(t, created.Edition.HTMLContent, res.HTML)
	assert.Len(t, res.Instructions, 6)
	assert.Equal(t, h.cfg.SendFox.CampaignURL, res.CampaignURL)

	stored, err := h.store.GetEdition(ctx, created.Edition.ID)
	require.NoError(t, err)
	assert.Equal(t, "list-weekly", stored.SendfoxListID)
}

func TestHandoffWithoutListMapping(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionMonthly})
	require.NoError(t, err)

	_, err = h.handoff.Prepare(ctx, created.Edition.ID, "")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "list_id", ve.Field)

	res, err := h.handoff.Prepare(ctx, created.Edition.ID, "list-monthly")
	require.NoError(t, err)
	assert.Equal(t, "list-monthly", res.ListID)
}

func TestHandoffLists(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	lists, err := h.handoff.Lists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ports.MailingList{{ID: "list-weekly", Name: "Weekly", Subscribers: 420}}, lists)

	failing := NewListHandoff(h.store, fakeLists{err: domain.ErrNotConfigured}, h.cfg.SendFox, nil)
	_, err = failing.Lists(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))
}

func TestLifecycleScheduling(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)
	id := created.Edition.ID

	_, err = h.lifecycle.Advance(ctx, id, domain.StatusScheduled, nil)
	assert.True(t, domain.IsValidation(err), "scheduling needs a time")

	when := friday.Add(24 * time.Hour)
	_, err = h.lifecycle.Advance(ctx, id, domain.StatusScheduled, &when)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "drafts must be approved first")

	_, err = h.handoff.Prepare(ctx, id, "")
	require.NoError(t, err)

	scheduled, err := h.lifecycle.Advance(ctx, id, domain.StatusScheduled, &when)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledFor)
	assert.True(t, scheduled.ScheduledFor.Equal(when))

	_, err = h.lifecycle.Advance(ctx, id, "archived", nil)
	assert.True(t, domain.IsValidation(err))
}
