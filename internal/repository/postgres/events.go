package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const eventColumns = `id, name, faculty, description, event_date, event_time, location,
	poster_image_url, has_tickets, ticket_price_cents, available_tickets, status,
	posted_by_uid, posted_by_name, approved_by, rejection_reason, submitted_at, approved_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Faculty, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.PosterImageURL, &e.HasTickets, &e.TicketPriceCents, &e.AvailableTickets, &e.Status,
		&e.PostedByUID, &e.PostedByName, &e.ApprovedBy, &e.RejectionReason, &e.SubmittedAt, &e.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert writes a new event record. The caller decides the initial status:
// pending for user submissions, approved for crew-authored events.
func (r *EventRepo) Insert(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO events (id, name, faculty, description, event_date, event_time,
			location, poster_image_url, has_tickets, ticket_price_cents, available_tickets,
			status, posted_by_uid, posted_by_name, approved_by, submitted_at, approved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.Name, e.Faculty, e.Description, e.Date, e.Time,
		e.Location, e.PosterImageURL, e.HasTickets, e.TicketPriceCents, e.AvailableTickets,
		e.Status, e.PostedByUID, e.PostedByName, e.ApprovedBy, e.SubmittedAt, e.ApprovedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *EventRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// GetForUpdate reads the event and locks its row until the enclosing
// transaction ends. Only meaningful through With(tx).
func (r *EventRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetForUpdate"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

func (r *EventRepo) ListApproved(ctx context.Context, faculty string) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListApproved"

	db := r.handle()

	query := `SELECT ` + eventColumns + ` FROM events WHERE status = 'approved'`
	args := []any{}
	if faculty != "" {
		query += ` AND faculty = $1`
		args = append(args, faculty)
	}
	query += ` ORDER BY event_date DESC, submitted_at DESC`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	return collectEvents(op, rows)
}

// ListPending returns the per-faculty review queue, oldest submission
// first.
func (r *EventRepo) ListPending(ctx context.Context, faculty string) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListPending"

	db := r.handle()

	query := `SELECT ` + eventColumns + ` FROM events WHERE status = 'pending'`
	args := []any{}
	if faculty != "" {
		query += ` AND faculty = $1`
		args = append(args, faculty)
	}
	query += ` ORDER BY submitted_at ASC`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	return collectEvents(op, rows)
}

func collectEvents(op string, rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}
	return events, nil
}

// Approve transitions pending -> approved. The status guard is part of the
// UPDATE, so concurrent reviewers cannot overwrite a terminal state: the
// loser of the race observes zero affected rows and falls through to the
// status check below.
func (r *EventRepo) Approve(
	ctx context.Context,
	id uuid.UUID,
	approvedBy string,
	at time.Time,
) (*domain.Event, error) {
	const op = "postgres.EventRepo.Approve"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`UPDATE events
		    SET status = 'approved', approved_by = $2, approved_at = $3, rejection_reason = ''
		  WHERE id = $1 AND status = 'pending'
		 RETURNING `+eventColumns, id, approvedBy, at))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	// The guard did not match: distinguish missing, already approved
	// (no-op success) and rejected (refused).
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case domain.StatusApproved:
		return current, nil
	default:
		return nil, fmt.Errorf("%s: %w", op, repository.ErrAlreadyFinalized)
	}
}

// Reject transitions pending -> rejected, storing the reviewer and reason.
func (r *EventRepo) Reject(
	ctx context.Context,
	id uuid.UUID,
	rejectedBy, reason string,
	at time.Time,
) (*domain.Event, error) {
	const op = "postgres.EventRepo.Reject"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`UPDATE events
		    SET status = 'rejected', approved_by = $2, rejection_reason = $3, approved_at = $4
		  WHERE id = $1 AND status = 'pending'
		 RETURNING `+eventColumns, id, rejectedBy, reason, at))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%s: %w", op, repository.ErrAlreadyFinalized)
}
