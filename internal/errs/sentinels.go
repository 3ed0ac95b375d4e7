// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates missing or malformed client input.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist or is not
	// owned by the caller. The two cases are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an ownership mismatch on a resource whose
	// existence is not secret (e.g. another agent's dispatch list).
	ErrForbidden = errors.New("forbidden")

	// ErrVersionConflict indicates optimistic concurrency failure (base version mismatch).
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates failed authentication: bad credentials or a
	// missing, malformed or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., phone taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrSigningKeyMissing indicates the token signing secret was not configured.
	ErrSigningKeyMissing = errors.New("token signing key not configured")
)
