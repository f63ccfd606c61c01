package services

import "grameen_connect/internal/models"

// TransitionPolicy decides whether a request may move from one status to another.
type TransitionPolicy interface {
	Allow(from, to models.RequestStatus) bool
}

// FreeTransitions allows any status change, including reopening completed requests.
type FreeTransitions struct{}

func (FreeTransitions) Allow(_, _ models.RequestStatus) bool { return true }

// TransitionTable allows only the listed moves. Keeping the current status is always allowed
// so a volunteer can be reassigned.
type TransitionTable map[models.RequestStatus][]models.RequestStatus

func (t TransitionTable) Allow(from, to models.RequestStatus) bool {
	if from == to {
		return true
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

var StrictTransitions = TransitionTable{
	models.StatusPending:    {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled, models.StatusPending},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {models.StatusPending},
}

// PolicyFor returns the strict table when strict is set, otherwise free transitions.
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictTransitions
	}
	return FreeTransitions{}
}
