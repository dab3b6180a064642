package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
)

func TestEventsStayInsideWindow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()

	items := h.content.Events(context.Background(), 10)
	assert.Equal(t, []string{"e-soon", "e-today", "e-edge"}, ids(items))

	today := startOfDay(friday)
	for _, item := range items {
		require.NotNil(t, item.Date)
		assert.False(t, item.Date.Before(today), item.ID)
		assert.True(t, item.Date.Before(today.AddDate(0, 0, 15)), item.ID)
		assert.Equal(t, domain.ContentEvent, item.Type)
		assert.NotEmpty(t, item.URL, "events without a link fall back to the events page")
	}
}

func TestEventWindowCoversWholeLastDay(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	lastDay := startOfDay(friday).AddDate(0, 0, 14)
	h.store.AddEvents(
		domain.EventRow{ID: "e-evening", Title: "Lantern walk", Date: lastDay.Add(18 * time.Hour), RelevanceScore: 0.5, Status: domain.EventStatusApproved},
		domain.EventRow{ID: "e-midnight", Title: "Late swap", Date: lastDay.Add(23*time.Hour + 59*time.Minute), RelevanceScore: 0.4, Status: domain.EventStatusApproved},
		domain.EventRow{ID: "e-next", Title: "Too far", Date: lastDay.AddDate(0, 0, 1), RelevanceScore: 0.9, Status: domain.EventStatusApproved},
	)

	assert.Equal(t, []string{"e-evening", "e-midnight"}, ids(h.content.Events(context.Background(), 10)))
}

func TestArticlesOrderedByInterestThenRecency(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()

	items := h.content.Articles(context.Background(), 5)
	assert.Equal(t, []string{"a-high-new", "a-high-old", "a-low"}, ids(items))
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].RelevanceScore, items[i].RelevanceScore)
	}
}

func TestResourcesActiveByPriority(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()

	assert.Equal(t, []string{"r2", "r1"}, ids(h.content.Resources(context.Background(), 5)))
	assert.Equal(t, []string{"r2"}, ids(h.content.Resources(context.Background(), 1)))
}

func TestContentFetchesDegradeToEmpty(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	h.store.FailContent(errors.New("connection reset"))

	ctx := context.Background()
	assert.NotNil(t, h.content.Events(ctx, 10))
	assert.Empty(t, h.content.Events(ctx, 10))
	assert.Empty(t, h.content.Articles(ctx, 5))
	assert.Empty(t, h.content.Resources(ctx, 5))
}

func TestTruncateCountsRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo...", truncate("héllo wörld", 5))
	assert.Equal(t, "anything", truncate("anything", 0))
}
