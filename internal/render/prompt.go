package render

import (
	"bytes"
	"fmt"
	"html/template"

	"Herald/internal/domain"
)

// EditorPrompt is the digest sent to the editor asking for a note.
type EditorPrompt struct {
	EditionTitle string
	EditorName   string
	ResponseURL  string
	Highlights   []domain.ContentItem
	Events       []domain.ContentItem
}

const promptDigestSize = 3

// RenderEditorPrompt renders the editor prompt email. Only the top three
// highlights and events are included.
func RenderEditorPrompt(p EditorPrompt) (string, error) {
	view := struct {
		EditionTitle string
		EditorName   string
		ResponseURL  string
		Highlights   []itemView
		Events       []itemView
	}{
		EditionTitle: Text(p.EditionTitle),
		EditorName:   Text(p.EditorName),
		ResponseURL:  p.ResponseURL,
		Highlights:   digestItems(p.Highlights),
		Events:       digestItems(p.Events),
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render editor prompt: %w", err)
	}
	return buf.String(), nil
}

func digestItems(items []domain.ContentItem) []itemView {
	if len(items) > promptDigestSize {
		items = items[:promptDigestSize]
	}
	out := make([]itemView, 0, len(items))
	for _, item := range items {
		out = append(out, itemView{
			ID:        item.ID,
			Type:      item.Type,
			Title:     textNode(Text(item.Title)),
			Summary:   textNode(Text(item.Summary)),
			URL:       item.URL,
			DateLabel: dateLabel(item.Date),
		})
	}
	return out
}

var promptTemplate = template.Must(template.New("prompt").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Editor's note for {{.EditionTitle}}</title></head>
<body style="font-family:Georgia,serif;color:#222">
<p>Hi {{.EditorName}},</p>
<p>The next edition, <strong>{{.EditionTitle}}</strong>, is drafted. Could you share a topic and one key takeaway for this issue's editor's note?</p>
{{- if .Highlights}}
<h3>Top highlights</h3>
<ul>
{{- range .Highlights}}
<li>{{.Title}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Events}}
<h3>Coming up</h3>
<ul>
{{- range .Events}}
<li>{{.Title}}{{if .DateLabel}} ({{.DateLabel}}){{end}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .ResponseURL}}
<p><a href="{{.ResponseURL}}">Write your note</a></p>
{{- end}}
<p>Thank you!</p>
</body>
</html>
`))
