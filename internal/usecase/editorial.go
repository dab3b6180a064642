package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
	"Herald/internal/render"
)

// submitAttempts bounds how often Submit re-renders after a concurrent write.
const submitAttempts = 3

// EditorialDeps wires the editorial workflow.
type EditorialDeps struct {
	Editions  ports.EditionRepository
	Mailer    ports.Mailer
	Copy      *CopyGenerator
	Editorial config.EditorialConfig
	Email     config.EmailConfig
	Now       func() time.Time
	Logger    *slog.Logger
}

// EditorialWorkflow drives the prompt, reply and re-render cycle of an edition.
type EditorialWorkflow struct {
	editions  ports.EditionRepository
	mailer    ports.Mailer
	copy      *CopyGenerator
	editorial config.EditorialConfig
	email     config.EmailConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewEditorialWorkflow constructs the workflow.
func NewEditorialWorkflow(deps EditorialDeps) *EditorialWorkflow {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &EditorialWorkflow{
		editions:  deps.Editions,
		mailer:    deps.Mailer,
		copy:      deps.Copy,
		editorial: deps.Editorial,
		email:     deps.Email,
		now:       deps.Now,
		logger:    logging.Component(deps.Logger, "editorial"),
	}
}

// ManualPrompt is the composed prompt returned when email cannot be sent.
type ManualPrompt struct {
	To           string `json:"to"`
	Subject      string `json:"subject"`
	HTML         string `json:"html"`
	ReplyTo      string `json:"reply_to,omitempty"`
	Instructions string `json:"instructions"`
}

// PromptResult reports how the editorial prompt was dispatched.
type PromptResult struct {
	EditionID string        `json:"edition_id"`
	Sent      bool          `json:"sent"`
	MessageID string        `json:"message_id,omitempty"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	Manual    *ManualPrompt `json:"manual,omitempty"`
}

// SendPrompt emails the editor a digest of the edition asking for a note.
// Without a configured email service the composed prompt is returned for
// manual dispatch instead; that is a successful outcome.
func (w *EditorialWorkflow) SendPrompt(ctx context.Context, editionID string) (PromptResult, error) {
	if strings.TrimSpace(editionID) == "" {
		return PromptResult{}, domain.Invalid("edition_id", "is required")
	}

	edition, err := w.editions.GetEdition(ctx, editionID)
	if err != nil {
		return PromptResult{}, fmt.Errorf("load edition %s: %w", editionID, err)
	}
	next, err := edition.Status.Transition(domain.StatusPromptSent)
	if err != nil {
		return PromptResult{}, err
	}

	html, err := render.RenderEditorPrompt(render.EditorPrompt{
		EditionTitle: edition.Title,
		EditorName:   w.editorial.EditorName,
		ResponseURL:  w.responseURL(edition.ID),
		Highlights:   edition.ContentSections.Highlights,
		Events:       edition.ContentSections.Events,
	})
	if err != nil {
		return PromptResult{}, err
	}

	msg := ports.Email{
		From:    w.email.From,
		To:      []string{w.email.EditorEmail},
		Subject: "Editor's note needed: " + edition.Title,
		HTML:    html,
		ReplyTo: w.email.ReplyTo,
	}

	if w.mailer == nil || !w.mailer.Configured() || w.email.EditorEmail == "" {
		w.logger.Info("email not configured, returning manual prompt", "edition_id", edition.ID)
		return PromptResult{
			EditionID: edition.ID,
			Manual: &ManualPrompt{
				To:           w.email.EditorEmail,
				Subject:      msg.Subject,
				HTML:         msg.HTML,
				ReplyTo:      msg.ReplyTo,
				Instructions: "Email is not configured. Send this prompt to the editor manually and submit their topic and takeaway when they reply.",
			},
		}, nil
	}

	messageID, err := w.mailer.Send(ctx, msg)
	if err != nil {
		return PromptResult{}, fmt.Errorf("send editorial prompt for %s: %w", edition.ID, err)
	}

	sentAt := w.now().UTC()
	if _, err := w.editions.UpdateEdition(ctx, edition.ID, domain.EditionPatch{
		Status:             &next,
		EditorPromptSentAt: &sentAt,
		IfRevision:         edition.Revision,
	}); err != nil {
		return PromptResult{}, fmt.Errorf("record prompt sent for %s: %w", edition.ID, err)
	}

	w.logger.Info("editorial prompt sent", "edition_id", edition.ID, "message_id", messageID)
	return PromptResult{EditionID: edition.ID, Sent: true, MessageID: messageID, SentAt: &sentAt}, nil
}

// Submit folds the editor's topic and takeaway into the edition: it writes
// the note, re-renders the HTML from the stored sections with the editor
// block, and saves note fields and HTML in a single update.
func (w *EditorialWorkflow) Submit(ctx context.Context, editionID, topic, takeaway string) (domain.Edition, error) {
	if strings.TrimSpace(editionID) == "" {
		return domain.Edition{}, domain.Invalid("edition_id", "is required")
	}
	topic = strings.TrimSpace(topic)
	takeaway = strings.TrimSpace(takeaway)
	if topic == "" {
		return domain.Edition{}, domain.Invalid("topic", "is required")
	}

	edition, err := w.load(ctx, editionID)
	if err != nil {
		return domain.Edition{}, err
	}
	if _, err := edition.Status.Transition(domain.StatusEditorialReceived); err != nil {
		return domain.Edition{}, err
	}

	note, usedAI := w.copy.EditorNote(ctx, topic, takeaway)
	promptTopic := topic
	if takeaway != "" {
		promptTopic = topic + " | " + takeaway
	}

	// The note is written once; only the read, render and guarded write
	// repeat when another writer moved the edition in between.
	for attempt := 1; ; attempt++ {
		updated, err := w.saveEditorial(ctx, editionID, note, promptTopic)
		if errors.Is(err, domain.ErrConflict) && attempt < submitAttempts {
			w.logger.Warn("edition changed during editorial submit, retrying", "edition_id", editionID, "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.Edition{}, err
		}
		w.logger.Info("editorial received", "edition_id", updated.ID, "ai", usedAI)
		return updated, nil
	}
}

// saveEditorial re-renders the latest stored sections with the note and
// writes note fields and HTML in one update guarded by the revision read.
func (w *EditorialWorkflow) saveEditorial(ctx context.Context, editionID, note, promptTopic string) (domain.Edition, error) {
	edition, err := w.load(ctx, editionID)
	if err != nil {
		return domain.Edition{}, err
	}
	next, err := edition.Status.Transition(domain.StatusEditorialReceived)
	if err != nil {
		return domain.Edition{}, err
	}

	edition.EditorNote = note
	html, err := render.Render(render.DocumentFor(edition, w.editorial.EditorName, w.editorial.EditorAvatarURL))
	if err != nil {
		return domain.Edition{}, err
	}

	responded := true
	updated, err := w.editions.UpdateEdition(ctx, edition.ID, domain.EditionPatch{
		Status:                &next,
		EditorNote:            &note,
		EditorPromptTopic:     &promptTopic,
		EditorPromptResponded: &responded,
		HTMLContent:           &html,
		IfRevision:            edition.Revision,
	})
	if err != nil {
		return domain.Edition{}, fmt.Errorf("save editorial for %s: %w", edition.ID, err)
	}
	return updated, nil
}

func (w *EditorialWorkflow) load(ctx context.Context, editionID string) (domain.Edition, error) {
	edition, err := w.editions.GetEdition(ctx, editionID)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("load edition %s: %w", editionID, err)
	}
	return edition, nil
}

func (w *EditorialWorkflow) responseURL(editionID string) string {
	if w.editorial.ResponseURL == "" {
		return ""
	}
	u, err := url.Parse(w.editorial.ResponseURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("edition_id", editionID)
	u.RawQuery = q.Encode()
	return u.String()
}
