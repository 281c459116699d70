// Package store defines the persistence contracts consumed by the service
// layer. The postgres repository implements them; tests substitute
// in-memory fakes. Transactional methods hand the callback a handle that
// is only valid for the duration of the transaction, mirroring the
// run-transaction primitive of the underlying database.
package store

import (
	"context"
	"time"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/google/uuid"
)

// AfterCommit is a hook that runs only after a successful commit.
type AfterCommit func(ctx context.Context)

type Events interface {
	Insert(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	// ListApproved returns approved events, optionally filtered by faculty
	// (empty string means all faculties), newest event date first.
	ListApproved(ctx context.Context, faculty string) ([]domain.Event, error)
	// ListPending returns the review queue for a faculty, oldest
	// submission first.
	ListPending(ctx context.Context, faculty string) ([]domain.Event, error)
	// Approve transitions a pending event to approved. Approving an
	// already-approved event is a no-op that returns the current record.
	// Returns repository.ErrAlreadyFinalized for a rejected event.
	Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) (*domain.Event, error)
	// Reject transitions a pending event to rejected. Returns
	// repository.ErrAlreadyFinalized if the event is already terminal.
	Reject(ctx context.Context, id uuid.UUID, rejectedBy, reason string, at time.Time) (*domain.Event, error)
}

// BookingTx is the transactional handle for the ticket inventory
// transaction. Every method sees and mutates state that commits or aborts
// as one unit.
type BookingTx interface {
	// EventForUpdate reads the event and locks its row for the remainder
	// of the transaction.
	EventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	DecrementAvailableTickets(ctx context.Context, eventID uuid.UUID, count int) error
	InsertTicket(ctx context.Context, t *domain.Ticket) error
}

type Bookings interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx, after func(AfterCommit)) error) error
	TicketByPublicID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	Availability(ctx context.Context, eventID uuid.UUID) (*domain.EventAvailability, error)
}

// IdentityTx is the transactional handle for crew registration: the
// allowlist claim and the profile insert commit or abort together.
type IdentityTx interface {
	// ClaimCrewUsername consumes an unregistered allowlist entry, binding
	// it to uid. Returns repository.ErrUsernameUnavailable if the entry
	// does not exist or was already claimed.
	ClaimCrewUsername(ctx context.Context, username, uid string) (*domain.CrewUsername, error)
	InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error
}

type Identities interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx IdentityTx, after func(AfterCommit)) error) error
	InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error
	ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error)
	// ProfileByEmail returns the profile together with its password hash.
	ProfileByEmail(ctx context.Context, email string) (*domain.Profile, string, error)
}
