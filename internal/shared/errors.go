package shared

import "errors"

var (
	// ErrNotFound indicates a referenced quotation, item, or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a concurrent modification was detected at the persistence boundary.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate indicates a uniqueness violation such as a reused quotation number.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidTransition indicates a status change not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidToken indicates a share token failed signature, type, or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthorized indicates a missing or unverifiable identity.
	ErrUnauthorized = errors.New("unauthorized")
)
