package booking

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotApproved      = errors.New("event is not open for booking")
	ErrNoTicketSales         = errors.New("event does not sell tickets")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrInvalidCount          = errors.New("ticket count must be positive")
	ErrInvalidBuyer          = errors.New("invalid buyer details")
	ErrInsufficientInventory = errors.New("not enough tickets remaining")
)

// InsufficientInventoryError reports how many tickets were actually left
// when a booking failed, so the caller can show the real remaining count.
type InsufficientInventoryError struct {
	Requested int
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("requested %d tickets, only %d remaining", e.Requested, e.Remaining)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}
