package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
)

var now = time.Date(2026, time.October, 23, 10, 0, 0, 0, time.UTC)

func TestUpdateEditionAppliesOnlySetFields(t *testing.T) {
	t.Parallel()

	s := New(func() time.Time { return now })
	ctx := context.Background()

	edition, err := s.CreateEdition(ctx, domain.NewEdition{EditionType: domain.EditionWeekly, Title: "T", HTMLContent: "<p>x</p>"}, nil)
	require.NoError(t, err)

	note := "Stay kind"
	updated, err := s.UpdateEdition(ctx, edition.ID, domain.EditionPatch{EditorNote: &note})
	require.NoError(t, err)
	assert.Equal(t, "Stay kind", updated.EditorNote)
	assert.Equal(t, "<p>x</p>", updated.HTMLContent)
	assert.Equal(t, domain.StatusDraft, updated.Status)

	_, err = s.UpdateEdition(ctx, "missing", domain.EditionPatch{EditorNote: &note})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevisionGuardRejectsStaleWrites(t *testing.T) {
	t.Parallel()

	s := New(func() time.Time { return now })
	ctx := context.Background()

	edition, err := s.CreateEdition(ctx, domain.NewEdition{EditionType: domain.EditionWeekly, Title: "T"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, edition.Revision)

	html := "<p>fresh</p>"
	regenerated, err := s.RegenerateEdition(ctx, edition.ID, domain.Regeneration{Title: "T2", HTMLContent: html, IfRevision: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, regenerated.Revision)

	stale := "<p>stale</p>"
	_, err = s.UpdateEdition(ctx, edition.ID, domain.EditionPatch{HTMLContent: &stale, IfRevision: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = s.RegenerateEdition(ctx, edition.ID, domain.Regeneration{Title: "T3", IfRevision: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := s.GetEdition(ctx, edition.ID)
	require.NoError(t, err)
	assert.Equal(t, html, stored.HTMLContent)
	assert.Equal(t, 2, stored.Revision)

	updated, err := s.UpdateEdition(ctx, edition.ID, domain.EditionPatch{HTMLContent: &stale})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Revision)
}

func TestUpsertIntelligenceKeepsOneRowPerKey(t *testing.T) {
	t.Parallel()

	s := New(func() time.Time { return now })
	ctx := context.Background()

	for _, summary := range []string{"first", "second"} {
		require.NoError(t, s.UpsertIntelligence(ctx, domain.IntelligenceRecord{
			IntelligenceType: domain.IntelResources,
			Service:          domain.ServiceResources,
			Summary:          summary,
			ExpiresAt:        now.Add(time.Hour),
		}))
	}

	records := s.Intelligence()
	require.Len(t, records, 1)
	assert.Equal(t, "second", records[0].Summary)

	fresh, err := s.FreshIntelligence(ctx, []string{domain.ServiceResources})
	require.NoError(t, err)
	assert.Len(t, fresh, 1)

	fresh, err = s.FreshIntelligence(ctx, []string{domain.ServiceEvents})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestFreshIntelligenceMostRecentlyWrittenFirst(t *testing.T) {
	t.Parallel()

	clock := now
	s := New(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.UpsertIntelligence(ctx, domain.IntelligenceRecord{
		IntelligenceType: domain.IntelOrganizingEvents,
		Service:          domain.ServiceEvents,
		Summary:          "written first",
		DataTimestamp:    now.Add(time.Hour),
		ExpiresAt:        now.Add(domain.IntelligenceTTL),
	}))
	clock = now.Add(time.Minute)
	require.NoError(t, s.UpsertIntelligence(ctx, domain.IntelligenceRecord{
		IntelligenceType: domain.IntelCampaigns,
		Service:          domain.ServiceEvents,
		Summary:          "written last",
		DataTimestamp:    now.Add(-time.Hour),
		ExpiresAt:        now.Add(domain.IntelligenceTTL),
	}))

	fresh, err := s.FreshIntelligence(ctx, []string{domain.ServiceEvents})
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "written last", fresh[0].Summary)
	assert.Equal(t, "written first", fresh[1].Summary)
}

func TestTaskRecordedSinceIgnoresFailures(t *testing.T) {
	t.Parallel()

	s := New(func() time.Time { return now })
	ctx := context.Background()

	_, err := s.InsertTask(ctx, domain.AgentTask{AgentType: domain.AgentHerald, Title: "Weekly Herald 2026-W43", Status: domain.TaskFailed})
	require.NoError(t, err)

	ok, err := s.TaskRecordedSince(ctx, domain.AgentHerald, "Weekly Herald 2026-W43", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.InsertTask(ctx, domain.AgentTask{AgentType: domain.AgentHerald, Title: "Weekly Herald 2026-W43: The Weekly Herald", Status: domain.TaskPendingReview})
	require.NoError(t, err)

	ok, err = s.TaskRecordedSince(ctx, domain.AgentHerald, "Weekly Herald 2026-W43", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TaskRecordedSince(ctx, domain.AgentHerald, "Weekly Herald 2026-W43", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}
