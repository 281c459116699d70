// Package booking implements the ticket inventory transaction. The
// decrement-and-check runs inside a single store transaction together with
// the ticket record insert, so concurrent bookings can never oversell and
// a sold ticket always has a record.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

type Config struct {
	TicketIDPrefix  string
	TicketIDLength  int
	AvailabilityTTL time.Duration
	QRSize          int
}

type Service struct {
	bookings store.Bookings
	cache    *redisrepo.Cache
	pubsub   *redisx.EventsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	cfg      Config
	now      func() time.Time
}

func New(
	bookings store.Bookings,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.TicketIDPrefix == "" {
		cfg.TicketIDPrefix = "UNIV-"
	}

	if cfg.TicketIDLength <= 0 {
		cfg.TicketIDLength = 10
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Second
	}

	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}

	return &Service{
		bookings: bookings,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		cfg:      cfg,
		now:      time.Now,
	}
}

// BookTickets atomically reserves count tickets of an event and records
// the resulting ticket. The amount charged is recomputed from the stored
// price inside the transaction; client-submitted totals are never trusted.
//
// Parameters:
//   - ctx: request-scoped context.
//   - eventID: event to book against.
//   - count: number of tickets, must be positive.
//   - buyer: contact details plus an authenticated uid, or empty UserID
//     for a guest (one is generated).
//   - rlKey: rate-limit bucket, usually the client IP. Empty disables.
//
// Returns:
//   - *domain.Ticket: the created ticket, including its public id.
//   - error: booking.ErrEventNotFound, booking.ErrEventNotApproved,
//     booking.ErrNoTicketSales, booking.ErrInvalidCount,
//     booking.ErrInvalidBuyer, or a *booking.InsufficientInventoryError.
func (s *Service) BookTickets(
	ctx context.Context,
	eventID uuid.UUID,
	count int,
	buyer domain.BuyerInfo,
	rlKey string,
) (*domain.Ticket, error) {
	const op = "service.booking.BookTickets"

	if count <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCount)
	}

	if err := buyer.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidBuyer, err)
	}

	if buyer.UserID == "" {
		buyer.UserID = "guest-" + uuid.NewString()
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: rate limited, retry in %s", op, retry)
		}
	}

	var ticket *domain.Ticket

	err := s.bookings.InTx(ctx, func(
		ctx context.Context,
		tx store.BookingTx,
		after func(store.AfterCommit),
	) error {
		event, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if event.Status != domain.StatusApproved {
			return fmt.Errorf("%s: %w", op, ErrEventNotApproved)
		}

		if !event.HasTickets {
			return fmt.Errorf("%s: %w", op, ErrNoTicketSales)
		}

		if event.AvailableTickets < count {
			return fmt.Errorf("%s: %w", op, &InsufficientInventoryError{
				Requested: count,
				Remaining: event.AvailableTickets,
			})
		}

		if err := tx.DecrementAvailableTickets(ctx, eventID, count); err != nil {
			var ins *repository.InsufficientInventoryError
			if errors.As(err, &ins) {
				return fmt.Errorf("%s: %w", op, &InsufficientInventoryError{
					Requested: ins.Requested,
					Remaining: ins.Remaining,
				})
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		ticket = &domain.Ticket{
			ID:              uuid.New(),
			TicketID:        newTicketID(s.cfg.TicketIDPrefix, s.cfg.TicketIDLength),
			EventID:         eventID,
			UserID:          buyer.UserID,
			UserEmail:       buyer.Email,
			UserName:        buyer.Name,
			UserPhone:       buyer.Phone,
			TicketCount:     count,
			AmountPaidCents: int64(count) * event.TicketPriceCents,
			PaymentStatus:   "completed",
			BookedAt:        s.now().UTC(),
		}

		if err := tx.InsertTicket(ctx, ticket); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, eventID.String(), event.Faculty)
			_ = s.pubsub.PublishEventChanged(ctx, eventID.String(), event.Faculty)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// Availability returns the ticketing counters for an event, served from
// cache when fresh.
func (s *Service) Availability(ctx context.Context, eventID uuid.UUID) (*domain.EventAvailability, error) {
	const op = "service.booking.Availability"

	key := redisx.KeyEventAvailability(eventID.String())

	av, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.EventAvailability, error) {
			a, err := s.bookings.Availability(ctx, eventID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.EventAvailability{}, ErrEventNotFound
				}
				return domain.EventAvailability{}, err
			}
			return *a, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &av, nil
}

// GetTicket resolves a ticket by its public identifier.
func (s *Service) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	const op = "service.booking.GetTicket"

	t, err := s.bookings.TicketByPublicID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// TicketQR renders the ticket's QR code as a PNG. The payload is the
// public ticket id, which is what gate staff scan.
func (s *Service) TicketQR(ctx context.Context, ticketID string) ([]byte, error) {
	const op = "service.booking.TicketQR"

	t, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(t.TicketID, qrcode.Medium, s.cfg.QRSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return png, nil
}
