package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
)

func TestExportFormats(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	h.seed()
	ctx := context.Background()

	created, err := h.generator.Generate(ctx, GenerateRequest{EditionType: domain.EditionWeekly})
	require.NoError(t, err)
	id := created.Edition.ID

	html, err := h.exporter.Export(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "herald-weekly-1.html", html.Filename)
	assert.Equal(t, created.Edition.HTMLContent, string(html.Body))

	js, err := h.exporter.Export(ctx, id, "JSON")
	require.NoError(t, err)
	assert.Equal(t, "application/json", js.ContentType)
	var decoded domain.Edition
	require.NoError(t, json.Unmarshal(js.Body, &decoded))
	assert.Equal(t, id, decoded.ID)

	stored, err := h.store.EditionItems(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	var withItems struct {
		Items []domain.EditionItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(js.Body, &withItems))
	assert.Equal(t, stored, withItems.Items)

	text, err := h.exporter.Export(ctx, id, "text")
	require.NoError(t, err)
	assert.Equal(t, "herald-weekly-1.txt", text.Filename)
	assert.NotContains(t, string(text.Body), "<")
	assert.Contains(t, string(text.Body), "Mural unveiled")

	md, err := h.exporter.Export(ctx, id, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "herald-weekly-1.md", md.Filename)
	assert.Contains(t, string(md.Body), "Potluck")

	_, err = h.exporter.Export(ctx, id, "pdf")
	assert.True(t, domain.IsValidation(err))
}

func TestPreviewNeedsHTML(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	ctx := context.Background()

	empty, err := h.store.CreateEdition(ctx, domain.NewEdition{EditionType: domain.EditionWeekly}, nil)
	require.NoError(t, err)

	_, err = h.exporter.Preview(ctx, empty.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.exporter.Preview(ctx, "")
	assert.True(t, domain.IsValidation(err))

	_, err = h.exporter.Preview(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
