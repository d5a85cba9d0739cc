package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. The API layer maps
// them onto status codes; anything not listed here is an internal failure.

var (
	// Account errors
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrSessionNotFound = errors.New("session not found")

	// Quest errors
	ErrQuestNotFound = errors.New("quest not found")

	// Item errors
	ErrItemNotFound        = errors.New("item not found")
	ErrNoRemainingQuantity = errors.New("no remaining quantity")

	// Ledger errors
	ErrInsufficientPoints = errors.New("insufficient points")
)
