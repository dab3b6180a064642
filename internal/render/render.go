// Package render turns edition content into self-contained HTML documents.
//
// Rendering is pure: the same Document always yields the same bytes. All
// dynamic text goes through html/template, and text that may come from a
// model or a community submission is first stripped of markup.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"Herald/internal/domain"
)

// Section is one titled group of content items.
type Section struct {
	Key   string
	Title string
	Items []domain.ContentItem
}

// EditorBlock is the personal note spliced in after the intro.
type EditorBlock struct {
	Note      string
	Name      string
	AvatarURL string
}

// Document is everything needed to render an edition.
type Document struct {
	Title       string
	Intro       string
	EditionType domain.EditionType
	Sections    []Section
	Editor      *EditorBlock
}

var strict = bluemonday.StrictPolicy()

// Text strips any markup from s and returns plain text ready for escaping.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// SectionsFor builds the ordered sections of an edition's content.
func SectionsFor(editionType domain.EditionType, content domain.ContentSections) []Section {
	period := "This Week"
	if editionType == domain.EditionMonthly {
		period = "This Month"
	}
	return []Section{
		{Key: domain.SectionHighlights, Title: period + "'s Highlights", Items: content.Highlights},
		{Key: domain.SectionEvents, Title: "Upcoming Events", Items: content.Events},
		{Key: domain.SectionResources, Title: "Community Resources", Items: content.Resources},
	}
}

// DocumentFor assembles a Document from a stored edition, adding the editor
// block when the edition carries an editor note.
func DocumentFor(edition domain.Edition, editorName, avatarURL string) Document {
	doc := Document{
		Title:       edition.Title,
		Intro:       edition.ContentSections.Intro,
		EditionType: edition.EditionType,
		Sections:    SectionsFor(edition.EditionType, edition.ContentSections),
	}
	if strings.TrimSpace(edition.EditorNote) != "" {
		doc.Editor = &EditorBlock{Note: edition.EditorNote, Name: editorName, AvatarURL: avatarURL}
	}
	return doc
}

type itemView struct {
	ID        string
	Type      domain.ContentType
	Title     template.HTML
	Summary   template.HTML
	URL       string
	ImageURL  string
	DateLabel string
}

type sectionView struct {
	Key   string
	Title string
	Items []itemView
}

type editorView struct {
	Note      template.HTML
	Name      string
	AvatarURL string
}

type documentView struct {
	Title      string
	Kicker     string
	Intro      []template.HTML
	Editor     *editorView
	Sections   []sectionView
	FooterLine string
}

// Render produces the full HTML document.
func Render(doc Document) (string, error) {
	view := documentView{
		Title:      Text(doc.Title),
		Kicker:     kicker(doc.EditionType),
		Intro:      paragraphs(doc.Intro),
		FooterLine: "You are receiving this because you are part of our community.",
	}

	if doc.Editor != nil && strings.TrimSpace(doc.Editor.Note) != "" {
		view.Editor = &editorView{
			Note:      textNode(Text(doc.Editor.Note)),
			Name:      Text(doc.Editor.Name),
			AvatarURL: doc.Editor.AvatarURL,
		}
	}

	for _, section := range doc.Sections {
		if len(section.Items) == 0 {
			continue
		}
		sv := sectionView{Key: section.Key, Title: Text(section.Title)}
		for _, item := range section.Items {
			sv.Items = append(sv.Items, itemView{
				ID:        item.ID,
				Type:      item.Type,
				Title:     textNode(Text(item.Title)),
				Summary:   textNode(Text(item.Summary)),
				URL:       item.URL,
				ImageURL:  item.ImageURL,
				DateLabel: dateLabel(item.Date),
			})
		}
		view.Sections = append(view.Sections, sv)
	}

	var buf bytes.Buffer
	if err := editionTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render edition: %w", err)
	}
	return buf.String(), nil
}

func kicker(t domain.EditionType) string {
	if t == domain.EditionMonthly {
		return "Monthly Edition"
	}
	return "Weekly Edition"
}

func paragraphs(s string) []template.HTML {
	var out []template.HTML
	for _, p := range strings.Split(s, "\n\n") {
		if p = Text(p); p != "" {
			out = append(out, textNode(p))
		}
	}
	return out
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// textNode escapes plain text for an HTML text node. Quotes are left as
// typed so stored text appears verbatim in the document; it must never be
// used for attribute values.
func textNode(s string) template.HTML {
	return template.HTML(textEscaper.Replace(s))
}

func dateLabel(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Monday, 2 January 2006")
}

var editionTemplate = template.Must(template.New("edition").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;padding:0;background:#f6f3ee;font-family:Georgia,serif;color:#222}
.container{max-width:640px;margin:0 auto;background:#fff;padding:32px}
.kicker{text-transform:uppercase;letter-spacing:2px;font-size:12px;color:#8a5a2b}
h1{font-size:28px;margin:8px 0 24px}
h2{font-size:20px;border-bottom:2px solid #8a5a2b;padding-bottom:4px}
.editor-note{background:#faf5ec;border-left:4px solid #8a5a2b;padding:16px;margin:24px 0}
.editor-note img{width:48px;height:48px;border-radius:24px}
.item{margin:16px 0}
.item img{max-width:100%}
.meta{font-size:13px;color:#666}
footer{font-size:12px;color:#888;margin-top:32px}
</style>
</head>
<body>
<div class="container">
<header class="masthead">
<p class="kicker">{{.Kicker}}</p>
<h1>{{.Title}}</h1>
</header>
<div class="intro">
{{- range .Intro}}
<p>{{.}}</p>
{{- end}}
</div>
{{- with .Editor}}
<div class="editor-note" data-block="editor">
{{- if .AvatarURL}}
<img src="{{.AvatarURL}}" alt="{{.Name}}">
{{- end}}
<p>Hi friends,</p>
<p class="editor-note-body">{{.Note}}</p>
<p class="signoff">With care,<br>{{.Name}}</p>
</div>
{{- end}}
{{- range .Sections}}
<section class="section" data-section="{{.Key}}">
<h2>{{.Title}}</h2>
{{- range .Items}}
<article class="item" data-item-id="{{.ID}}" data-item-type="{{.Type}}">
{{- if .ImageURL}}
<img src="{{.ImageURL}}" alt="">
{{- end}}
<h3>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
{{- if .DateLabel}}
<p class="meta">{{.DateLabel}}</p>
{{- end}}
{{- if .Summary}}
<p>{{.Summary}}</p>
{{- end}}
</article>
{{- end}}
</section>
{{- end}}
<footer>
<p>{{.FooterLine}}</p>
</footer>
</div>
</body>
</html>
`))
