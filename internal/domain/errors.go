package domain

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrRateLimited    = errors.New("rate limited")
	ErrNoSession      = errors.New("no active session")
	ErrNotParticipant = errors.New("viewer is not a party to this offer")
	ErrOfferResolved  = errors.New("offer is no longer pending")
	ErrNotAllowed     = errors.New("action not allowed for this role")
)
