package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

// FallbackModel is recorded as the generation model when no AI copy was used.
const FallbackModel = "fallback"

// GenerateOptions tunes one completion call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

var (
	introOptions      = GenerateOptions{MaxTokens: 200, Temperature: 0.7}
	editorNoteOptions = GenerateOptions{MaxTokens: 250, Temperature: 0.7}
	agentOptions      = GenerateOptions{MaxTokens: 1000, Temperature: 0.8}
)

// CopyGenerator produces editorial copy through the completion service and
// falls back to deterministic text whenever the service cannot answer.
type CopyGenerator struct {
	completer ports.Completer
	logger    *slog.Logger
}

// NewCopyGenerator wires an optional completer; nil means fallback-only.
func NewCopyGenerator(completer ports.Completer, logger *slog.Logger) *CopyGenerator {
	return &CopyGenerator{completer: completer, logger: logging.Component(logger, "copy")}
}

// Model names the model used for generated copy.
func (g *CopyGenerator) Model() string {
	if g.completer == nil || g.completer.Model() == "" {
		return FallbackModel
	}
	return g.completer.Model()
}

// Generate returns the completion for prompt, or fallback when the service
// is unconfigured, fails, or answers with nothing. The bool reports whether
// the text came from the service.
func (g *CopyGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions, fallback string) (string, bool) {
	if g.completer == nil {
		return fallback, false
	}

	text, err := g.completer.Complete(ctx, ports.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return fallback, false
	case err != nil:
		g.logger.Warn("completion failed, using fallback", "error", err)
		return fallback, false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, false
	}
	return text, true
}

// IntroInput describes the edition an intro is written for.
type IntroInput struct {
	EditionType    domain.EditionType
	HighlightCount int
	EventCount     int
	ResourceCount  int
	Intelligence   domain.IntelligenceContext
}

// Intro writes the opening paragraph of an edition.
func (g *CopyGenerator) Intro(ctx context.Context, in IntroInput) (string, bool) {
	return g.Generate(ctx, IntroPrompt(in), introOptions, FallbackIntro(in))
}

// IntroPrompt builds the intro prompt, including a compact intelligence
// digest when one is available.
func IntroPrompt(in IntroInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a warm, welcoming introduction (2-3 sentences) for the %s edition of our community newsletter.\n", in.EditionType)
	fmt.Fprintf(&b, "This edition includes %d highlighted stories, %d upcoming events and %d community resources.\n",
		in.HighlightCount, in.EventCount, in.ResourceCount)
	b.WriteString("Tone: friendly, grounded, community-first. Avoid hype and do not include a greeting line or sign-off.\n")

	intel := in.Intelligence
	if !intel.Empty() {
		b.WriteString("\nCommunity pulse:\n")
		if intel.CommunitySize > 0 {
			fmt.Fprintf(&b, "- %d community members\n", intel.CommunitySize)
		}
		if intel.TopArticle != nil {
			fmt.Fprintf(&b, "- Most read story: %s\n", intel.TopArticle.Title)
		}
		if intel.NextEvent != nil {
			fmt.Fprintf(&b, "- Next event: %s\n", intel.NextEvent.Title)
		}
		if len(intel.KeyInsights) > 0 {
			fmt.Fprintf(&b, "- Insight: %s\n", intel.KeyInsights[0])
		}
	}
	return b.String()
}

// FallbackIntro is the deterministic intro used without AI copy.
func FallbackIntro(in IntroInput) string {
	period := "week"
	if in.EditionType == domain.EditionMonthly {
		period = "month"
	}
	return fmt.Sprintf(
		"Welcome to this %s's Herald. We've gathered %s, %s and %s from across our community. Thank you for reading and for everything you do to keep us connected.",
		period,
		plural(in.HighlightCount, "story", "stories"),
		plural(in.EventCount, "upcoming event", "upcoming events"),
		plural(in.ResourceCount, "resource", "resources"),
	)
}

// EditorNote writes a short first-person note from the editor's topic and takeaway.
func (g *CopyGenerator) EditorNote(ctx context.Context, topic, takeaway string) (string, bool) {
	return g.Generate(ctx, EditorNotePrompt(topic, takeaway), editorNoteOptions, FallbackEditorNote(topic, takeaway))
}

// EditorNotePrompt builds the editor-note prompt.
func EditorNotePrompt(topic, takeaway string) string {
	var b strings.Builder
	b.WriteString("Write a personal editor's note of about 100 words for our community newsletter.\n")
	fmt.Fprintf(&b, "Topic: %s\n", strings.TrimSpace(topic))
	if t := strings.TrimSpace(takeaway); t != "" {
		fmt.Fprintf(&b, "Key takeaway for readers: %s\n", t)
	}
	b.WriteString("Voice: first person, warm, honest and rooted in community care.\n")
	b.WriteString("Write a single paragraph. Do not include a greeting or a sign-off; those are added separately.")
	return b.String()
}

// FallbackEditorNote joins topic and takeaway when no AI copy is available.
func FallbackEditorNote(topic, takeaway string) string {
	topic = strings.TrimSpace(topic)
	takeaway = strings.TrimSpace(takeaway)
	switch {
	case topic == "" && takeaway == "":
		return "A short note from the editor this time: thank you for being part of this community."
	case takeaway == "":
		return topic
	case topic == "":
		return takeaway
	}
	return strings.TrimRight(topic, ".!? ") + ". " + takeaway
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
