package usecase

import "errors"

// Closed error taxonomy for the rules engine. Business-rule conflicts are
// recoverable by the caller with different input; anything unwrapped here
// surfaces as a server error.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrRoundLocked        = errors.New("round is locked")
	ErrRoundNotLocked     = errors.New("round is not locked yet")
	ErrTeamAlreadyPicked  = errors.New("team already picked in this competition")
	ErrTeamNotAllowed     = errors.New("team not in allowed pool")
	ErrRegistrationClosed = errors.New("competition registration is closed")
)
