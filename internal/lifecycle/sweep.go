package lifecycle

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// SweepCriteria holds the cutoffs for the stale-complaint sweep.
type SweepCriteria struct {
	UnassignedCutoff time.Time
	StalledCutoff    time.Time
}

// NewSweepCriteria computes cutoffs relative to now.
func NewSweepCriteria(now time.Time, unassignedAfter, stalledAfter time.Duration) SweepCriteria {
	return SweepCriteria{
		UnassignedCutoff: now.Add(-unassignedAfter),
		StalledCutoff:    now.Add(-stalledAfter),
	}
}

// StaleUnassigned matches open complaints nobody picked up before the cutoff.
func (c SweepCriteria) StaleUnassigned(cmp *domain.Complaint) bool {
	return cmp.Status == domain.ComplaintStatusOpen &&
		!cmp.IsAssigned() &&
		!cmp.CreatedAt.After(c.UnassignedCutoff)
}

// Stalled matches in-progress complaints assigned before the cutoff and
// still unresolved.
func (c SweepCriteria) Stalled(cmp *domain.Complaint) bool {
	return cmp.Status == domain.ComplaintStatusInProgress &&
		cmp.IsAssigned() &&
		cmp.AssignedDate != nil &&
		!cmp.AssignedDate.After(c.StalledCutoff) &&
		cmp.ResolvedDate == nil
}

// Matches reports whether the sweep would move the complaint to pending.
func (c SweepCriteria) Matches(cmp *domain.Complaint) bool {
	return c.StaleUnassigned(cmp) || c.Stalled(cmp)
}
