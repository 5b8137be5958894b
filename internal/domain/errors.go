package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// item or loan does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when a caller supplies malformed arguments:
// blank identifiers, a non-positive quantity, or a non-positive day count.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrInvalidInput = errors.New("invalid input")

// ErrItemInactive is returned when a loan is requested against an item whose
// active flag is off. Handlers should map this to HTTP 409 Conflict.
var ErrItemInactive = errors.New("item is inactive")

// ErrInsufficientStock is returned when an item does not have enough available
// units to cover a requested loan quantity. The authoritative source of this
// error is the conditional stock decrement; the advisory pre-check in the
// engine produces it earlier with the same meaning.
// Handlers should map this to HTTP 409 Conflict.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidState is returned when a return or renewal targets a loan that is
// not OPEN — either it was already returned or it never existed. The two cases
// are deliberately indistinguishable: the conditional update that guards the
// transition cannot tell them apart, and callers need no distinction.
// Handlers should map this to HTTP 409 Conflict.
var ErrInvalidState = errors.New("loan not open or does not exist")

// ErrIntegrityViolation is returned when deactivating an item that still has
// open loans referencing it. Handlers should map this to HTTP 409 Conflict.
var ErrIntegrityViolation = errors.New("integrity violation")
