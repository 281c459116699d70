// Package lifecycle implements the event approval workflow: user
// submissions enter a per-faculty pending queue, crew reviewers approve or
// reject them, and crew-authored events skip review entirely.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

type Service struct {
	events store.Events
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	now    func() time.Time
}

func New(events store.Events, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub) *Service {
	return &Service{
		events: events,
		cache:  cache,
		pubsub: pubsub,
		now:    time.Now,
	}
}

// Submit creates a new event. User submissions start pending; crew
// submissions start approved with the creator recorded as the approver.
//
// Returns:
//   - lifecycle.ErrUnauthenticated if identity is nil.
//   - lifecycle.ErrInvalidEvent if the payload fails validation.
func (s *Service) Submit(
	ctx context.Context,
	identity *domain.Identity,
	in domain.EventInput,
) (*domain.Event, error) {
	const op = "service.lifecycle.Submit"

	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidEvent, err)
	}

	now := s.now().UTC()

	event := &domain.Event{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(in.Name),
		Faculty:          in.Faculty,
		Description:      in.Description,
		Date:             in.Date,
		Time:             in.Time,
		Location:         in.Location,
		PosterImageURL:   in.PosterImageURL,
		HasTickets:       in.HasTickets,
		TicketPriceCents: in.TicketPriceCents,
		AvailableTickets: in.AvailableTickets,
		Status:           domain.StatusPending,
		PostedByUID:      identity.UID,
		PostedByName:     identity.Name,
		SubmittedAt:      now,
	}

	if identity.Role == domain.RoleCrew {
		// Crew posts go live immediately, stamped as self-approved.
		event.Status = domain.StatusApproved
		event.ApprovedBy = identity.UID
		event.ApprovedAt = &now
	}

	if err := s.events.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if event.Status == domain.StatusApproved {
		s.invalidate(ctx, event)
	}

	return event, nil
}

// Approve transitions a pending event to approved. Re-approving an
// approved event is a no-op success; any other terminal state is refused.
//
// Returns:
//   - lifecycle.ErrUnauthenticated if identity is nil.
//   - lifecycle.ErrUnauthorized if the identity may not review the
//     event's faculty.
//   - lifecycle.ErrEventNotFound if the event does not exist.
//   - lifecycle.ErrAlreadyFinalized if the event was already rejected.
func (s *Service) Approve(
	ctx context.Context,
	identity *domain.Identity,
	eventID uuid.UUID,
) (*domain.Event, error) {
	const op = "service.lifecycle.Approve"

	event, err := s.authorizeReview(ctx, op, identity, eventID)
	if err != nil {
		return nil, err
	}

	updated, err := s.events.Approve(ctx, eventID, identity.UID, s.now().UTC())
	if err != nil {
		return nil, s.mapTransitionErr(op, err)
	}

	s.invalidate(ctx, event)

	return updated, nil
}

// Reject transitions a pending event to rejected, storing the reviewer and
// a mandatory reason.
//
// Returns:
//   - lifecycle.ErrEmptyReason if reason is blank.
//   - the same authorization and state errors as Approve.
func (s *Service) Reject(
	ctx context.Context,
	identity *domain.Identity,
	eventID uuid.UUID,
	reason string,
) (*domain.Event, error) {
	const op = "service.lifecycle.Reject"

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyReason)
	}

	event, err := s.authorizeReview(ctx, op, identity, eventID)
	if err != nil {
		return nil, err
	}

	updated, err := s.events.Reject(ctx, eventID, identity.UID, reason, s.now().UTC())
	if err != nil {
		return nil, s.mapTransitionErr(op, err)
	}

	s.invalidate(ctx, event)

	return updated, nil
}

// PendingQueue returns the review queue for a faculty, oldest submission
// first. Crew scoped to a single faculty only see their own queue.
func (s *Service) PendingQueue(
	ctx context.Context,
	identity *domain.Identity,
	faculty string,
) ([]domain.Event, error) {
	const op = "service.lifecycle.PendingQueue"

	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if identity.Role != domain.RoleCrew {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if faculty == "" {
		faculty = identity.Faculty
	}

	if !identity.CanReview(faculty) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if identity.Faculty == domain.FacultyUniversityWide && faculty == domain.FacultyUniversityWide {
		// University-wide crew default to the whole queue.
		faculty = ""
	}

	events, err := s.events.ListPending(ctx, faculty)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) authorizeReview(
	ctx context.Context,
	op string,
	identity *domain.Identity,
	eventID uuid.UUID,
) (*domain.Event, error) {
	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !identity.CanReview(event.Faculty) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	return event, nil
}

func (s *Service) mapTransitionErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrEventNotFound)
	case errors.Is(err, repository.ErrAlreadyFinalized):
		return fmt.Errorf("%s: %w", op, ErrAlreadyFinalized)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) invalidate(ctx context.Context, event *domain.Event) {
	_ = s.cache.InvalidateEvent(ctx, event.ID.String(), event.Faculty)
	_ = s.pubsub.PublishEventChanged(ctx, event.ID.String(), event.Faculty)
}
