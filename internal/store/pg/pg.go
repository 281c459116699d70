// Package pg binds the store contracts to the postgres repositories.
// Transactional contracts run through the unit of work so after-commit
// hooks fire only when the transaction actually commits.
package pg

import (
	"context"
	"time"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	postgres "github.com/Maheshi13/UNIVISTA-Project/internal/repository/postgres"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
	"github.com/Maheshi13/UNIVISTA-Project/internal/uow"
	"github.com/google/uuid"
)

type Stores struct {
	Events     *Events
	Bookings   *Bookings
	Identities *Identities
}

func New(s *postgres.Store) *Stores {
	u := uow.NewUoW(s)
	return &Stores{
		Events:     &Events{store: s},
		Bookings:   &Bookings{store: s, uow: u},
		Identities: &Identities{store: s, uow: u},
	}
}

type Events struct {
	store *postgres.Store
}

var _ store.Events = (*Events)(nil)

func (e *Events) Insert(ctx context.Context, ev *domain.Event) error {
	return e.store.Events().Insert(ctx, ev)
}

func (e *Events) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return e.store.Events().Get(ctx, id)
}

func (e *Events) ListApproved(ctx context.Context, faculty string) ([]domain.Event, error) {
	return e.store.Events().ListApproved(ctx, faculty)
}

func (e *Events) ListPending(ctx context.Context, faculty string) ([]domain.Event, error) {
	return e.store.Events().ListPending(ctx, faculty)
}

func (e *Events) Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) (*domain.Event, error) {
	return e.store.Events().Approve(ctx, id, approvedBy, at)
}

func (e *Events) Reject(ctx context.Context, id uuid.UUID, rejectedBy, reason string, at time.Time) (*domain.Event, error) {
	return e.store.Events().Reject(ctx, id, rejectedBy, reason, at)
}

type Bookings struct {
	store *postgres.Store
	uow   *uow.UoW
}

var _ store.Bookings = (*Bookings)(nil)

func (b *Bookings) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx store.BookingTx, after func(store.AfterCommit)) error,
) error {
	return b.uow.Do(ctx, func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error {
		handle := &bookingTx{
			events:  b.store.Events().With(tx),
			tickets: b.store.Tickets().With(tx),
		}
		return fn(ctx, handle, func(h store.AfterCommit) {
			after(uow.AfterCommit(h))
		})
	})
}

func (b *Bookings) TicketByPublicID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return b.store.Tickets().GetByPublicID(ctx, ticketID)
}

func (b *Bookings) Availability(ctx context.Context, eventID uuid.UUID) (*domain.EventAvailability, error) {
	return b.store.Tickets().Availability(ctx, eventID)
}

type bookingTx struct {
	events  *postgres.EventRepo
	tickets *postgres.TicketRepo
}

func (t *bookingTx) EventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return t.events.GetForUpdate(ctx, eventID)
}

func (t *bookingTx) DecrementAvailableTickets(ctx context.Context, eventID uuid.UUID, count int) error {
	return t.tickets.DecrementAvailable(ctx, eventID, count)
}

func (t *bookingTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	return t.tickets.Insert(ctx, tk)
}

type Identities struct {
	store *postgres.Store
	uow   *uow.UoW
}

var _ store.Identities = (*Identities)(nil)

func (i *Identities) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx store.IdentityTx, after func(store.AfterCommit)) error,
) error {
	return i.uow.Do(ctx, func(ctx context.Context, tx postgres.DB, after func(uow.AfterCommit)) error {
		handle := &identityTx{
			usernames: i.store.CrewUsernames().With(tx),
			profiles:  i.store.Profiles().With(tx),
		}
		return fn(ctx, handle, func(h store.AfterCommit) {
			after(uow.AfterCommit(h))
		})
	})
}

func (i *Identities) InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error {
	return i.store.Profiles().Insert(ctx, p, passwordHash)
}

func (i *Identities) ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	return i.store.Profiles().GetByUID(ctx, uid)
}

func (i *Identities) ProfileByEmail(ctx context.Context, email string) (*domain.Profile, string, error) {
	return i.store.Profiles().GetByEmail(ctx, email)
}

type identityTx struct {
	usernames *postgres.CrewUsernameRepo
	profiles  *postgres.ProfileRepo
}

func (t *identityTx) ClaimCrewUsername(ctx context.Context, username, uid string) (*domain.CrewUsername, error) {
	return t.usernames.Claim(ctx, username, uid)
}

func (t *identityTx) InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error {
	return t.profiles.Insert(ctx, p, passwordHash)
}
