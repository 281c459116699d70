package lifecycle

import "errors"

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrUnauthorized     = errors.New("not allowed for this identity")
	ErrEventNotFound    = errors.New("event not found")
	ErrEmptyReason      = errors.New("rejection reason is required")
	ErrAlreadyFinalized = errors.New("event already finalized")
	ErrInvalidEvent     = errors.New("invalid event")
)
