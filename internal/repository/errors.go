package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrAlreadyFinalized    = errors.New("event already finalized")
	ErrUsernameUnavailable = errors.New("username does not exist or is already registered")
)

// InsufficientInventoryError is returned when a booking requests more
// tickets than the event has left. Remaining is the count observed inside
// the transaction, so the caller can report it accurately.
type InsufficientInventoryError struct {
	Requested int
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("requested %d tickets, only %d remaining", e.Requested, e.Remaining)
}
