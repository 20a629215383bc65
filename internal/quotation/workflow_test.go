package quotation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusDraft:       {StatusSent: true},
		StatusSent:        {StatusViewed: true, StatusAccepted: true, StatusRejected: true, StatusExpired: true},
		StatusViewed:      {StatusNegotiating: true, StatusAccepted: true, StatusRejected: true, StatusExpired: true},
		StatusNegotiating: {StatusAccepted: true, StatusRejected: true, StatusExpired: true},
		StatusAccepted:    {StatusExpired: true},
		StatusRejected:    {StatusExpired: true},
		StatusExpired:     {},
	}

	all := []Status{StatusDraft, StatusSent, StatusViewed, StatusNegotiating, StatusAccepted, StatusRejected, StatusExpired}
	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			require.Equalf(t, allowed[from][to], got, "%s -> %s", from, to)
		}
	}
}

func TestTransitionRejectsInvalidPair(t *testing.T) {
	q := &Quotation{Status: StatusDraft}

	err := Transition(q, StatusAccepted)

	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, StatusDraft, q.Status, "status must not change on a rejected transition")

	var ite *InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	require.Equal(t, StatusDraft, ite.From)
	require.Equal(t, StatusAccepted, ite.To)
	require.Equal(t, []Status{StatusSent}, ite.Allowed)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	q := &Quotation{Status: StatusDraft}

	err := Transition(q, Status("archived"))

	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, StatusDraft, q.Status)
}

func TestTransitionHappyPath(t *testing.T) {
	q := &Quotation{Status: StatusDraft}

	for _, to := range []Status{StatusSent, StatusViewed, StatusNegotiating, StatusAccepted} {
		require.NoError(t, Transition(q, to))
		require.Equal(t, to, q.Status)
	}

	// Acceptance straight from sent, without the viewed hop.
	q = &Quotation{Status: StatusDraft}
	require.NoError(t, Transition(q, StatusSent))
	require.NoError(t, Transition(q, StatusAccepted))
	require.Equal(t, StatusAccepted, q.Status)
}

func TestExpiredIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(StatusExpired))
	require.Empty(t, AllowedTransitions(StatusExpired))

	q := &Quotation{Status: StatusExpired}
	for _, to := range []Status{StatusDraft, StatusSent, StatusViewed, StatusNegotiating, StatusAccepted, StatusRejected} {
		require.ErrorIs(t, Transition(q, to), shared.ErrInvalidTransition)
	}
	require.Equal(t, StatusExpired, q.Status)
}

func TestNoBackwardTransitions(t *testing.T) {
	require.False(t, CanTransition(StatusSent, StatusDraft))
	require.False(t, CanTransition(StatusViewed, StatusSent))
	require.False(t, CanTransition(StatusNegotiating, StatusViewed))
	require.False(t, CanTransition(StatusAccepted, StatusNegotiating))
	require.False(t, CanTransition(StatusAccepted, StatusRejected))
	require.False(t, CanTransition(StatusRejected, StatusAccepted))
}

func TestValidStatus(t *testing.T) {
	require.True(t, ValidStatus(StatusDraft))
	require.True(t, ValidStatus(StatusExpired))
	require.False(t, ValidStatus(Status("pending")))
	require.False(t, ValidStatus(Status("")))
}
