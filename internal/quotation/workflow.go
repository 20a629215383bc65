package quotation

import (
	"fmt"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// transitions is the full adjacency table of the quotation lifecycle. There
// is no path backward and no draft shortcut past sent; expired is terminal.
var transitions = map[Status][]Status{
	StatusDraft:       {StatusSent},
	StatusSent:        {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
	StatusViewed:      {StatusNegotiating, StatusAccepted, StatusRejected, StatusExpired},
	StatusNegotiating: {StatusAccepted, StatusRejected, StatusExpired},
	StatusAccepted:    {StatusExpired},
	StatusRejected:    {StatusExpired},
	StatusExpired:     {},
}

// InvalidTransitionError reports a status change not permitted from the
// current state, carrying the attempted pair and the allowed set.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// Is lets errors.Is match the shared sentinel.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == shared.ErrInvalidTransition
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTransitions returns the outgoing states from the given status.
func AllowedTransitions(from Status) []Status {
	return transitions[from]
}

// CanTransition reports whether from -> to is in the adjacency table.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Transition validates and applies a status change in memory. On failure the
// quotation is left untouched.
func Transition(q *Quotation, to Status) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", shared.ErrValidation, to)
	}
	if !CanTransition(q.Status, to) {
		return &InvalidTransitionError{From: q.Status, To: to, Allowed: AllowedTransitions(q.Status)}
	}
	q.Status = to
	return nil
}
