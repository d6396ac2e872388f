// Package domain holds the business rules of the portal: lifecycle
// state machines, financial arithmetic, authorization policy and the
// approval-token contract. Nothing in this package performs I/O.
package domain

import "errors"

var (
	// ErrNotFound is returned for missing entities and for
	// cross-tenant access, which must be indistinguishable from
	// absence.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role or capabilities
	// do not permit the action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrStateConflict is returned when an action violates a lifecycle
	// invariant (editing an approved order, deleting a sent invoice).
	ErrStateConflict = errors.New("state conflict")

	// ErrTokenInvalid covers unknown and expired approval tokens.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrTokenUsed is returned when a token has already been redeemed.
	ErrTokenUsed = errors.New("token already used")

	// ErrTokenMismatch is returned when a token does not match the
	// entity being signed.
	ErrTokenMismatch = errors.New("token does not match target")

	// ErrIntegrity covers webhook signature failures and similar
	// tampering signals.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrUpstream is returned when an external collaborator (PDF
	// renderer, checkout provider) fails.
	ErrUpstream = errors.New("upstream dependency failed")
)
