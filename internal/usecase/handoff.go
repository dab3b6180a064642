package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

var handoffSteps = []string{
	"Open the campaign editor using the link provided.",
	"Create a new campaign and paste the subject line.",
	"Switch the editor to HTML mode and paste the edition HTML.",
	"Select the recipient list shown here.",
	"Send a test email to yourself and review it on desktop and mobile.",
	"Schedule or send the campaign, then mark the edition as sent.",
}

// ListHandoff prepares editions for manual delivery through the mailing-list
// platform, which offers no programmatic send.
type ListHandoff struct {
	editions ports.EditionRepository
	lists    ports.ListDirectory
	cfg      config.SendFoxConfig
	logger   *slog.Logger
}

// NewListHandoff wires the edition store and the list directory.
func NewListHandoff(editions ports.EditionRepository, lists ports.ListDirectory, cfg config.SendFoxConfig, logger *slog.Logger) *ListHandoff {
	return &ListHandoff{editions: editions, lists: lists, cfg: cfg, logger: logging.Component(logger, "handoff")}
}

// HandoffResult is everything a person needs to send the edition by hand.
type HandoffResult struct {
	EditionID    string               `json:"edition_id"`
	ListID       string               `json:"list_id"`
	Status       domain.EditionStatus `json:"status"`
	SubjectLine  string               `json:"subject_line"`
	PreviewText  string               `json:"preview_text"`
	HTML         string               `json:"html"`
	Instructions []string             `json:"instructions"`
	CampaignURL  string               `json:"campaign_url"`
}

// Prepare approves the edition for the resolved list and returns the handoff
// payload. Editions without HTML are rejected and left untouched.
func (h *ListHandoff) Prepare(ctx context.Context, editionID, listID string) (HandoffResult, error) {
	if strings.TrimSpace(editionID) == "" {
		return HandoffResult{}, domain.Invalid("edition_id", "is required")
	}

	edition, err := h.editions.GetEdition(ctx, editionID)
	if err != nil {
		return HandoffResult{}, fmt.Errorf("load edition %s: %w", editionID, err)
	}
	if strings.TrimSpace(edition.HTMLContent) == "" {
		return HandoffResult{}, domain.Invalid("html_content", "edition %s has no HTML yet; generate it first", edition.ID)
	}

	listID = strings.TrimSpace(listID)
	if listID == "" {
		listID = h.cfg.Lists[string(edition.EditionType)]
	}
	if listID == "" {
		return HandoffResult{}, domain.Invalid("list_id", "no list given and no default list for %s editions", edition.EditionType)
	}

	next, err := edition.Status.Transition(domain.StatusApproved)
	if err != nil {
		return HandoffResult{}, err
	}

	updated, err := h.editions.UpdateEdition(ctx, edition.ID, domain.EditionPatch{
		Status:        &next,
		SendfoxListID: &listID,
		IfRevision:    edition.Revision,
	})
	if err != nil {
		return HandoffResult{}, fmt.Errorf("approve edition %s: %w", edition.ID, err)
	}

	h.logger.Info("edition handed off", "edition_id", updated.ID, "list_id", listID)
	return HandoffResult{
		EditionID:    updated.ID,
		ListID:       listID,
		Status:       updated.Status,
		SubjectLine:  updated.SubjectLine,
		PreviewText:  updated.PreviewText,
		HTML:         updated.HTMLContent,
		Instructions: append([]string(nil), handoffSteps...),
		CampaignURL:  h.cfg.CampaignURL,
	}, nil
}

// Lists reads the available lists from the platform.
func (h *ListHandoff) Lists(ctx context.Context) ([]ports.MailingList, error) {
	if h.lists == nil {
		return nil, domain.ErrNotConfigured
	}
	lists, err := h.lists.Lists(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch lists: %w", err)
	}
	return lists, nil
}
