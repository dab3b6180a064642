package domain

import (
	"fmt"
	"time"
)

// EditionType is the cadence of a newsletter edition.
type EditionType string

const (
	EditionWeekly  EditionType = "weekly"
	EditionMonthly EditionType = "monthly"
)

// Valid reports whether t is a known edition type.
func (t EditionType) Valid() bool {
	return t == EditionWeekly || t == EditionMonthly
}

// EditionStatus is the lifecycle state of an edition.
type EditionStatus string

const (
	StatusDraft             EditionStatus = "draft"
	StatusPromptSent        EditionStatus = "prompt_sent"
	StatusEditorialReceived EditionStatus = "editorial_received"
	StatusApproved          EditionStatus = "approved"
	StatusScheduled         EditionStatus = "scheduled"
	StatusSent              EditionStatus = "sent"
)

var transitions = map[EditionStatus][]EditionStatus{
	StatusDraft:             {StatusDraft, StatusPromptSent, StatusEditorialReceived, StatusApproved},
	StatusPromptSent:        {StatusDraft, StatusPromptSent, StatusEditorialReceived, StatusApproved},
	StatusEditorialReceived: {StatusDraft, StatusPromptSent, StatusEditorialReceived, StatusApproved},
	StatusApproved:          {StatusDraft, StatusApproved, StatusScheduled, StatusSent},
	StatusScheduled:         {StatusDraft, StatusApproved, StatusSent},
	StatusSent:              nil,
}

// Valid reports whether s is a known status.
func (s EditionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an edition in state s may move to next.
func (s EditionStatus) CanTransition(next EditionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is allowed, or ErrInvalidTransition.
func (s EditionStatus) Transition(next EditionStatus) (EditionStatus, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// ContentSections is the structured content an edition's HTML is rendered from.
type ContentSections struct {
	Intro      string        `json:"intro"`
	Highlights []ContentItem `json:"highlights"`
	Events     []ContentItem `json:"events"`
	Resources  []ContentItem `json:"resources"`
}

// Edition is one persisted newsletter instance.
type Edition struct {
	ID                    string          `json:"id"`
	EditionType           EditionType     `json:"edition_type"`
	EditionNumber         int             `json:"edition_number"`
	EditionDate           time.Time       `json:"edition_date"`
	Title                 string          `json:"title"`
	SubjectLine           string          `json:"subject_line"`
	PreviewText           string          `json:"preview_text"`
	ContentSections       ContentSections `json:"content_sections"`
	HTMLContent           string          `json:"html_content"`
	Status                EditionStatus   `json:"status"`
	ScheduledFor          *time.Time      `json:"scheduled_for,omitempty"`
	EditorNote            string          `json:"editor_note,omitempty"`
	EditorPromptTopic     string          `json:"editor_prompt_topic,omitempty"`
	EditorPromptSentAt    *time.Time      `json:"editor_prompt_sent_at,omitempty"`
	EditorPromptResponded bool            `json:"editor_prompt_responded"`
	GeneratedByAgent      string          `json:"generated_by_agent"`
	GenerationModel       string          `json:"generation_model"`
	SendfoxListID         string          `json:"sendfox_list_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	// Revision increases on every write; guarded writes compare against it.
	Revision              int             `json:"revision"`
}

// Section keys used for persisted edition items and rendered section markers.
const (
	SectionHighlights = "highlights"
	SectionEvents     = "events"
	SectionResources  = "resources"
)

// EditionItem is one content item attached to an edition.
type EditionItem struct {
	NewsletterID string      `json:"newsletter_id"`
	ContentType  ContentType `json:"content_type"`
	ContentID    string      `json:"content_id"`
	ContentTable string      `json:"content_table"`
	Section      string      `json:"section"`
	DisplayOrder int         `json:"display_order"`
	Headline     string      `json:"headline"`
	Summary      string      `json:"summary"`
	ImageURL     string      `json:"image_url,omitempty"`
	CTAURL       string      `json:"cta_url"`
}

// NewEdition carries the fields of an edition before the store assigns id and number.
type NewEdition struct {
	EditionType      EditionType
	EditionDate      time.Time
	Title            string
	SubjectLine      string
	PreviewText      string
	ContentSections  ContentSections
	HTMLContent      string
	GeneratedByAgent string
	GenerationModel  string
}

// CheckRevision returns ErrConflict when want is positive and the edition has moved past it.
func (e Edition) CheckRevision(want int) error {
	if want > 0 && e.Revision != want {
		return fmt.Errorf("edition %s at revision %d, expected %d: %w", e.ID, e.Revision, want, ErrConflict)
	}
	return nil
}

// Regeneration overwrites the generated content of an existing edition.
type Regeneration struct {
	Title           string
	SubjectLine     string
	PreviewText     string
	ContentSections ContentSections
	HTMLContent     string
	GenerationModel string
	// IfRevision, when positive, makes the write fail with ErrConflict
	// unless the stored edition is still at that revision.
	IfRevision      int
}

// EditionPatch is a partial update; nil fields are left untouched.
type EditionPatch struct {
	Status                *EditionStatus
	ScheduledFor          *time.Time
	HTMLContent           *string
	EditorNote            *string
	EditorPromptTopic     *string
	EditorPromptSentAt    *time.Time
	EditorPromptResponded *bool
	SendfoxListID         *string
	// IfRevision guards the patch like Regeneration.IfRevision.
	IfRevision            int
}

// Empty reports whether the patch changes nothing. The revision guard is not a change.
func (p EditionPatch) Empty() bool {
	return p.Status == nil && p.ScheduledFor == nil && p.HTMLContent == nil &&
		p.EditorNote == nil && p.EditorPromptTopic == nil && p.EditorPromptSentAt == nil &&
		p.EditorPromptResponded == nil && p.SendfoxListID == nil
}
