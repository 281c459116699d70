package booking

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

// memBookings is an in-memory store.Bookings. InTx serializes transactions
// with a mutex and applies the staged state only when fn succeeds, so tests
// get the same commit-or-abort behavior as the real store.
type memBookings struct {
	mu      sync.Mutex
	events  map[uuid.UUID]domain.Event
	tickets map[string]domain.Ticket
	commits int
}

func newMemBookings(events ...domain.Event) *memBookings {
	m := &memBookings{
		events:  make(map[uuid.UUID]domain.Event),
		tickets: make(map[string]domain.Ticket),
	}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *memBookings) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx store.BookingTx, after func(store.AfterCommit)) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memBookingTx{
		events:  make(map[uuid.UUID]domain.Event, len(m.events)),
		tickets: make(map[string]domain.Ticket),
	}
	for id, e := range m.events {
		tx.events[id] = e
	}

	var hooks []store.AfterCommit
	if err := fn(ctx, tx, func(h store.AfterCommit) { hooks = append(hooks, h) }); err != nil {
		return err
	}

	m.events = tx.events
	for id, t := range tx.tickets {
		m.tickets[id] = t
	}
	m.commits++

	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

func (m *memBookings) TicketByPublicID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[ticketID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memBookings) Availability(ctx context.Context, eventID uuid.UUID) (*domain.EventAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.EventAvailability{
		EventID:          e.ID,
		HasTickets:       e.HasTickets,
		AvailableTickets: e.AvailableTickets,
		TicketPriceCents: e.TicketPriceCents,
	}, nil
}

func (m *memBookings) available(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].AvailableTickets
}

func (m *memBookings) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

type memBookingTx struct {
	events  map[uuid.UUID]domain.Event
	tickets map[string]domain.Ticket
}

func (t *memBookingTx) EventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	e, ok := t.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (t *memBookingTx) DecrementAvailableTickets(ctx context.Context, eventID uuid.UUID, count int) error {
	e, ok := t.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.AvailableTickets < count {
		return &repository.InsufficientInventoryError{
			Requested: count,
			Remaining: e.AvailableTickets,
		}
	}
	e.AvailableTickets -= count
	t.events[eventID] = e
	return nil
}

func (t *memBookingTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	if _, ok := t.tickets[tk.TicketID]; ok {
		return repository.ErrConflict
	}
	t.tickets[tk.TicketID] = *tk
	return nil
}

func approvedEvent(available int, priceCents int64) domain.Event {
	return domain.Event{
		ID:               uuid.New(),
		Name:             "Open Mic Night",
		Faculty:          "Engineering",
		Date:             "2026-09-01",
		HasTickets:       true,
		TicketPriceCents: priceCents,
		AvailableTickets: available,
		Status:           domain.StatusApproved,
		PostedByUID:      "poster-1",
	}
}

func buyer() domain.BuyerInfo {
	return domain.BuyerInfo{Email: "jo@uni.example", Name: "Jo", Phone: "0711234567"}
}

func TestBookTickets(t *testing.T) {
	event := approvedEvent(10, 1500)
	m := newMemBookings(event)
	svc := New(m, nil, nil, nil, Config{})

	ticket, err := svc.BookTickets(context.Background(), event.ID, 2, buyer(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.TicketID, "UNIV-"))
	assert.Equal(t, 2, ticket.TicketCount)
	assert.Equal(t, int64(3000), ticket.AmountPaidCents, "amount must come from the stored price")
	assert.Equal(t, "completed", ticket.PaymentStatus)
	assert.True(t, strings.HasPrefix(ticket.UserID, "guest-"), "anonymous buyers get a guest id")

	assert.Equal(t, 8, m.available(event.ID))
	assert.Equal(t, 1, m.ticketCount())

	stored, err := svc.GetTicket(context.Background(), ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketID, stored.TicketID)
}

func TestBookTicketsAuthenticatedBuyer(t *testing.T) {
	event := approvedEvent(3, 500)
	svc := New(newMemBookings(event), nil, nil, nil, Config{})

	b := buyer()
	b.UserID = "uid-42"

	ticket, err := svc.BookTickets(context.Background(), event.ID, 1, b, "")
	require.NoError(t, err)
	assert.Equal(t, "uid-42", ticket.UserID)
}

func TestBookTicketsConcurrent(t *testing.T) {
	event := approvedEvent(5, 1000)
	m := newMemBookings(event)
	svc := New(m, nil, nil, nil, Config{})

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.BookTickets(context.Background(), event.ID, 3, buyer(), "")
			results <- err
		}()
	}

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			failures = append(failures, err)
		}
	}

	require.Len(t, failures, 1, "exactly one of two competing bookings must fail")

	var ins *InsufficientInventoryError
	require.ErrorAs(t, failures[0], &ins)
	assert.Equal(t, 3, ins.Requested)
	assert.Equal(t, 2, ins.Remaining)

	assert.Equal(t, 2, m.available(event.ID))
	assert.Equal(t, 1, m.ticketCount())
}

func TestBookTicketsLastTicket(t *testing.T) {
	event := approvedEvent(1, 1000)
	m := newMemBookings(event)
	svc := New(m, nil, nil, nil, Config{})

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.BookTickets(context.Background(), event.ID, 1, buyer(), "")
			results <- err
		}()
	}

	errCount := 0
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			errCount++
			assert.ErrorIs(t, err, ErrInsufficientInventory)
		}
	}

	assert.Equal(t, 1, errCount)
	assert.Equal(t, 0, m.available(event.ID))
	assert.Equal(t, 1, m.ticketCount())
}

func TestBookTicketsInsufficient(t *testing.T) {
	event := approvedEvent(3, 1000)
	m := newMemBookings(event)
	svc := New(m, nil, nil, nil, Config{})

	_, err := svc.BookTickets(context.Background(), event.ID, 5, buyer(), "")

	var ins *InsufficientInventoryError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 5, ins.Requested)
	assert.Equal(t, 3, ins.Remaining)

	// A failed booking must not touch inventory or leave a ticket behind.
	assert.Equal(t, 3, m.available(event.ID))
	assert.Equal(t, 0, m.ticketCount())
	assert.Equal(t, 0, m.commits)
}

func TestBookTicketsValidation(t *testing.T) {
	event := approvedEvent(3, 1000)
	svc := New(newMemBookings(event), nil, nil, nil, Config{})
	ctx := context.Background()

	_, err := svc.BookTickets(ctx, event.ID, 0, buyer(), "")
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = svc.BookTickets(ctx, event.ID, -2, buyer(), "")
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = svc.BookTickets(ctx, event.ID, 1, domain.BuyerInfo{Name: "Jo"}, "")
	assert.ErrorIs(t, err, ErrInvalidBuyer)

	_, err = svc.BookTickets(ctx, uuid.New(), 1, buyer(), "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestBookTicketsEventState(t *testing.T) {
	pending := approvedEvent(3, 1000)
	pending.Status = domain.StatusPending

	free := approvedEvent(0, 0)
	free.HasTickets = false

	svc := New(newMemBookings(pending, free), nil, nil, nil, Config{})
	ctx := context.Background()

	_, err := svc.BookTickets(ctx, pending.ID, 1, buyer(), "")
	assert.ErrorIs(t, err, ErrEventNotApproved)

	_, err = svc.BookTickets(ctx, free.ID, 1, buyer(), "")
	assert.ErrorIs(t, err, ErrNoTicketSales)
}

func TestAvailability(t *testing.T) {
	event := approvedEvent(7, 2500)
	svc := New(newMemBookings(event), nil, nil, nil, Config{AvailabilityTTL: time.Second})

	av, err := svc.Availability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, av.AvailableTickets)
	assert.Equal(t, int64(2500), av.TicketPriceCents)
	assert.True(t, av.HasTickets)

	_, err = svc.Availability(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetTicketNotFound(t *testing.T) {
	svc := New(newMemBookings(), nil, nil, nil, Config{})

	_, err := svc.GetTicket(context.Background(), "UNIV-NOPE")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketQR(t *testing.T) {
	event := approvedEvent(2, 1000)
	svc := New(newMemBookings(event), nil, nil, nil, Config{})

	ticket, err := svc.BookTickets(context.Background(), event.ID, 1, buyer(), "")
	require.NoError(t, err)

	png, err := svc.TicketQR(context.Background(), ticket.TicketID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "QR must render as PNG")

	_, err = svc.TicketQR(context.Background(), "UNIV-NOPE")
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}
