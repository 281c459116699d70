package postgres

import (
	"context"
	"fmt"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO tickets (id, ticket_id, event_id, user_id, user_email, user_name,
			user_phone, ticket_count, amount_paid_cents, payment_status, booked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.TicketID, t.EventID, t.UserID, t.UserEmail, t.UserName,
		t.UserPhone, t.TicketCount, t.AmountPaidCents, t.PaymentStatus, t.BookedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *TicketRepo) GetByPublicID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.GetByPublicID"

	db := r.handle()

	var t domain.Ticket
	err := db.QueryRow(ctx,
		`SELECT id, ticket_id, event_id, user_id, user_email, user_name, user_phone,
			ticket_count, amount_paid_cents, payment_status, booked_at
		 FROM tickets WHERE ticket_id = $1`,
		ticketID,
	).Scan(
		&t.ID, &t.TicketID, &t.EventID, &t.UserID, &t.UserEmail, &t.UserName, &t.UserPhone,
		&t.TicketCount, &t.AmountPaidCents, &t.PaymentStatus, &t.BookedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

// DecrementAvailable subtracts count from the event's remaining tickets.
// The WHERE clause re-checks the inventory so the decrement can never push
// the counter below zero even if the caller's earlier read went stale.
func (r *TicketRepo) DecrementAvailable(ctx context.Context, eventID uuid.UUID, count int) error {
	const op = "postgres.TicketRepo.DecrementAvailable"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		    SET available_tickets = available_tickets - $2
		  WHERE id = $1 AND available_tickets >= $2`,
		eventID, count,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		remaining, err := r.availableCount(ctx, db, eventID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", op,
			&repository.InsufficientInventoryError{Requested: count, Remaining: remaining})
	}

	return nil
}

func (r *TicketRepo) availableCount(ctx context.Context, db DB, eventID uuid.UUID) (int, error) {
	const op = "postgres.TicketRepo.availableCount"

	var remaining int
	if err := db.QueryRow(ctx,
		`SELECT available_tickets FROM events WHERE id = $1`, eventID,
	).Scan(&remaining); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return remaining, nil
}

// Availability returns the ticketing counters of a single event.
func (r *TicketRepo) Availability(ctx context.Context, eventID uuid.UUID) (*domain.EventAvailability, error) {
	const op = "postgres.TicketRepo.Availability"

	db := r.handle()

	av := domain.EventAvailability{EventID: eventID}
	err := db.QueryRow(ctx,
		`SELECT has_tickets, available_tickets, ticket_price_cents
		 FROM events WHERE id = $1`,
		eventID,
	).Scan(&av.HasTickets, &av.AvailableTickets, &av.TicketPriceCents)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &av, nil
}
