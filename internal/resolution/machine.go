package resolution

import (
	"fmt"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

// Apply returns the status a ticket should move to after an AI assessment.
// Only confident potential_resolution and escalate assessments move a ticket;
// the decision depends on nothing but the current status and this assessment.
func (p Policy) Apply(current support.TicketStatus, a support.ResolutionAssessment) (support.TicketStatus, bool) {
	a = a.Normalize()
	if a.Confidence <= p.ConfidenceThreshold {
		return current, false
	}
	var next support.TicketStatus
	switch a.Status {
	case support.ResolutionPotentialResolution:
		next = p.ResolveStatus
	case support.ResolutionEscalate:
		next = p.EscalateStatus
	default:
		return current, false
	}
	if next == current {
		return current, false
	}
	return next, true
}

// Reopen is the customer's way back from a resolution the AI got wrong.
func Reopen(current support.TicketStatus) (support.TicketStatus, error) {
	if current != support.StatusResolved {
		return current, fmt.Errorf("%w: only resolved tickets can be reopened (status %q)", apperr.ErrInvalidTransition, current)
	}
	return support.StatusReopened, nil
}

var transitions = map[support.TicketStatus][]support.TicketStatus{
	support.StatusOpen:       {support.StatusInProgress, support.StatusResolved, support.StatusClosed},
	support.StatusInProgress: {support.StatusOpen, support.StatusResolved, support.StatusClosed},
	support.StatusResolved:   {support.StatusInProgress, support.StatusClosed, support.StatusReopened},
	support.StatusReopened:   {support.StatusInProgress, support.StatusResolved, support.StatusClosed},
	support.StatusClosed:     {support.StatusReopened},
}

// CanTransition reports whether staff may move a ticket from one status to another.
func CanTransition(from, to support.TicketStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition is CanTransition as an error.
func CheckTransition(from, to support.TicketStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %q -> %q", apperr.ErrInvalidTransition, from, to)
}
