package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

// ParsedItem is an item recovered from rendered HTML.
type ParsedItem struct {
	ID    string
	Type  string
	Title string
}

// ParsedSection is a section recovered from rendered HTML.
type ParsedSection struct {
	Key   string
	Title string
	Items []ParsedItem
}

// ParsedDocument is the structure recovered from a rendered edition.
type ParsedDocument struct {
	Title      string
	Intro      string
	EditorNote string
	Sections   []ParsedSection
}

// Parse reads back the structure Render wrote, so stored HTML can be checked
// against the content sections it was rendered from.
func Parse(rendered string) (ParsedDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return ParsedDocument{}, fmt.Errorf("parse html: %w", err)
	}

	parsed := ParsedDocument{
		Title:      collapse(doc.Find("header.masthead h1").First().Text()),
		Intro:      collapse(doc.Find("div.intro").First().Text()),
		EditorNote: collapse(doc.Find(".editor-note .editor-note-body").First().Text()),
	}

	doc.Find("section[data-section]").Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("data-section")
		section := ParsedSection{
			Key:   key,
			Title: collapse(s.Find("h2").First().Text()),
		}
		s.Find("article.item").Each(func(_ int, a *goquery.Selection) {
			id, _ := a.Attr("data-item-id")
			itemType, _ := a.Attr("data-item-type")
			section.Items = append(section.Items, ParsedItem{
				ID:    id,
				Type:  itemType,
				Title: collapse(a.Find("h3").First().Text()),
			})
		})
		parsed.Sections = append(parsed.Sections, section)
	})

	return parsed, nil
}

// PlainText strips tags from a rendered document and collapses whitespace.
func PlainText(rendered string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("head, style, script").Remove()
	return collapse(doc.Text()), nil
}

var markdownConverter = htmltomarkdown.NewConverter(
	htmltomarkdown.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Markdown converts a rendered document to CommonMark.
func Markdown(rendered string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("head, style, script").Remove()
	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("extract body: %w", err)
	}

	md, err := markdownConverter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
