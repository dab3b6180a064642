package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Herald/internal/domain"
	"Herald/internal/ports"
	"Herald/internal/render"
)

// Export formats.
const (
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Export is a downloadable representation of an edition.
type Export struct {
	ContentType string
	Filename    string
	Body        []byte
}

// editionDocument is the JSON export: the edition with its items inlined.
type editionDocument struct {
	domain.Edition
	Items []domain.EditionItem `json:"items"`
}

// Exporter serves previews and downloads of stored editions.
type Exporter struct {
	editions ports.EditionRepository
}

// NewExporter wires the edition store.
func NewExporter(editions ports.EditionRepository) *Exporter {
	return &Exporter{editions: editions}
}

// Preview returns the stored HTML of an edition.
func (e *Exporter) Preview(ctx context.Context, editionID string) (string, error) {
	edition, err := e.load(ctx, editionID)
	if err != nil {
		return "", err
	}
	return edition.HTMLContent, nil
}

// Export renders the edition in the requested format.
func (e *Exporter) Export(ctx context.Context, editionID, format string) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatHTML
	}
	switch format {
	case FormatHTML, FormatJSON, FormatText, FormatMarkdown:
	default:
		return Export{}, domain.Invalid("format", "must be one of: html, json, text, markdown")
	}

	edition, err := e.load(ctx, editionID)
	if err != nil {
		return Export{}, err
	}
	base := fmt.Sprintf("herald-%s-%d", edition.EditionType, edition.EditionNumber)

	switch format {
	case FormatJSON:
		items, err := e.editions.EditionItems(ctx, edition.ID)
		if err != nil {
			return Export{}, fmt.Errorf("load edition items %s: %w", edition.ID, err)
		}
		if items == nil {
			items = []domain.EditionItem{}
		}
		body, err := json.MarshalIndent(editionDocument{Edition: edition, Items: items}, "", "  ")
		if err != nil {
			return Export{}, fmt.Errorf("marshal edition: %w", err)
		}
		return Export{ContentType: "application/json", Filename: base + ".json", Body: body}, nil
	case FormatText:
		text, err := render.PlainText(edition.HTMLContent)
		if err != nil {
			return Export{}, err
		}
		return Export{ContentType: "text/plain; charset=utf-8", Filename: base + ".txt", Body: []byte(text)}, nil
	case FormatMarkdown:
		md, err := render.Markdown(edition.HTMLContent)
		if err != nil {
			return Export{}, err
		}
		return Export{ContentType: "text/markdown; charset=utf-8", Filename: base + ".md", Body: []byte(md)}, nil
	default:
		return Export{ContentType: "text/html; charset=utf-8", Filename: base + ".html", Body: []byte(edition.HTMLContent)}, nil
	}
}

func (e *Exporter) load(ctx context.Context, editionID string) (domain.Edition, error) {
	if strings.TrimSpace(editionID) == "" {
		return domain.Edition{}, domain.Invalid("id", "is required")
	}
	edition, err := e.editions.GetEdition(ctx, editionID)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("load edition %s: %w", editionID, err)
	}
	if edition.HTMLContent == "" {
		return domain.Edition{}, fmt.Errorf("edition %s has no html: %w", editionID, domain.ErrNotFound)
	}
	return edition, nil
}
