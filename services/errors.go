package services

import "errors"

// Error taxonomy for the settings and staging services. Controllers map
// these to HTTP status codes with errors.Is; messages stay generic for
// authorization failures so callers cannot probe which records exist.
var (
	// ErrValidation: bad input shape. Not retried, surfaced immediately.
	ErrValidation = errors.New("invalid input")

	// ErrPersistence: the current-value write failed. The whole call fails;
	// no partial state is acceptable for the settings table.
	ErrPersistence = errors.New("failed to persist settings")

	// ErrHistoryWrite: the history append failed after the settings row
	// landed. Logged and surfaced as a soft warning, never rolled back.
	ErrHistoryWrite = errors.New("failed to record settings history")

	// ErrRevisionConflict: the caller's revision is stale; re-read and retry.
	ErrRevisionConflict = errors.New("settings were modified by another writer")

	// ErrDuplicateWeek: a plan already exists for this (owner, start date).
	ErrDuplicateWeek = errors.New("a meal plan already exists for this week")

	// ErrNotAuthorized: actor lacks privilege for the transition. No
	// mutation occurs.
	ErrNotAuthorized = errors.New("not permitted")

	// ErrNotFound: the requested record does not exist (or is invisible to
	// the actor).
	ErrNotFound = errors.New("record not found")

	// ErrPlanNotPending: reject is only legal while a plan awaits approval.
	ErrPlanNotPending = errors.New("plan is not pending approval")
)
