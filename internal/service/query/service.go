// Package query is the read side: event lookups and the public
// approved-events listing, with a caching layer in front of the store.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

type Config struct {
	EventSummaryTTL time.Duration
	ListingTTL      time.Duration
}

type Service struct {
	events store.Events
	cache  *redisrepo.Cache
	cfg    Config
}

func New(events store.Events, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 30 * time.Second
	}

	return &Service{
		events: events,
		cache:  cache,
		cfg:    cfg,
	}
}

// GetEvent retrieves an event by its ID through the cache.
//
// Returns:
//   - query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	key := redisx.KeyEventSummary(id.String())

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.events.Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListApproved returns approved events, optionally filtered by faculty.
// Only approved events are ever visible here; pending and rejected events
// stay out of public listings.
func (s *Service) ListApproved(ctx context.Context, faculty string) ([]domain.Event, error) {
	const op = "service.query.ListApproved"

	key := redisx.KeyApprovedEvents(faculty)

	events, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.ListingTTL,
		func(ctx context.Context) ([]domain.Event, error) {
			return s.events.ListApproved(ctx, faculty)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
