package game

import "errors"

// Rule violations. Every violation is raised at the point of detection and
// left to the caller to surface; the engine never retries and never mutates
// state on a failed check. The API layer translates each sentinel to a
// client-visible status via errors.Is.
var (
	// ErrNoActiveGame is returned when no persisted session exists for the
	// calling identity.
	ErrNoActiveGame = errors.New("no active game")

	// ErrAlreadySet guards one-shot assignments (faction, priority).
	ErrAlreadySet = errors.New("already set")

	// ErrEmptyDeck is returned on pop/draw from an exhausted deck.
	ErrEmptyDeck = errors.New("deck is empty")

	// ErrInsufficientCards is returned when a peek or rearrange asks for
	// more cards than remain.
	ErrInsufficientCards = errors.New("not enough cards in deck")

	// ErrArrangeMismatch is returned when a supplied reorder is not a
	// permutation of the actual top cards. The deck is left unchanged.
	ErrArrangeMismatch = errors.New("arranged cards do not match deck top")

	// ErrNotAvailable is returned when a referenced card or ability is not
	// in the expected location or queue.
	ErrNotAvailable = errors.New("not available")

	// ErrWrongPhase is returned when an operation is attempted outside its
	// legal phase window.
	ErrWrongPhase = errors.New("not allowed in current phase")

	// ErrNoAccess is returned when an ability was never granted to the
	// requesting side.
	ErrNoAccess = errors.New("ability not granted")

	// ErrAlreadyRevealed is returned when the top of the group deck is
	// already visible to the peeking side.
	ErrAlreadyRevealed = errors.New("cards already revealed")

	// ErrLastPhase signals that the turn, not the phase, must be advanced.
	ErrLastPhase = errors.New("last phase of turn")

	// ErrGameEnded is returned by every mutating operation once the
	// terminal flag is set.
	ErrGameEnded = errors.New("game ended")

	// Briefing and influence-struggle preconditions.
	ErrNoPriority     = errors.New("priority not assigned")
	ErrNoMissionCard  = errors.New("mission card not drawn")
	ErrAnalystPending = errors.New("analyst ability awaiting use")
	ErrAgentNotChosen = errors.New("agent not chosen")
	ErrBothMustPass   = errors.New("both sides must pass influence")

	// ErrCannotPassEmpty is returned when a side passes influence without
	// having recruited a single group.
	ErrCannotPassEmpty = errors.New("cannot pass without recruited groups")
)
