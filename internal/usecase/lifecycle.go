package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Herald/internal/domain"
	"Herald/internal/ports"
)

// EditionLifecycle applies status patches outside the generation and
// editorial flows, such as scheduling or marking an edition sent.
type EditionLifecycle struct {
	editions ports.EditionRepository
}

// NewEditionLifecycle wires the edition store.
func NewEditionLifecycle(editions ports.EditionRepository) *EditionLifecycle {
	return &EditionLifecycle{editions: editions}
}

// Advance moves the edition to status, rejecting moves the state machine forbids.
func (l *EditionLifecycle) Advance(ctx context.Context, editionID string, status domain.EditionStatus, scheduledFor *time.Time) (domain.Edition, error) {
	if strings.TrimSpace(editionID) == "" {
		return domain.Edition{}, domain.Invalid("edition_id", "is required")
	}
	if !status.Valid() {
		return domain.Edition{}, domain.Invalid("status", "unknown status %q", status)
	}
	if status == domain.StatusScheduled && scheduledFor == nil {
		return domain.Edition{}, domain.Invalid("scheduled_for", "is required when scheduling")
	}

	edition, err := l.editions.GetEdition(ctx, editionID)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("load edition %s: %w", editionID, err)
	}
	next, err := edition.Status.Transition(status)
	if err != nil {
		return domain.Edition{}, err
	}

	patch := domain.EditionPatch{Status: &next, ScheduledFor: scheduledFor, IfRevision: edition.Revision}
	updated, err := l.editions.UpdateEdition(ctx, edition.ID, patch)
	if err != nil {
		return domain.Edition{}, fmt.Errorf("update edition %s: %w", edition.ID, err)
	}
	return updated, nil
}
