package service

import (
	"github.com/Maheshi13/UNIVISTA-Project/internal/auth"
	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/booking"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/identity"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/lifecycle"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/query"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

type Services struct {
	Lifecycle *lifecycle.Service
	Booking   *booking.Service
	Identity  *identity.Service
	Query     *query.Service
}

type Config struct {
	Booking booking.Config
	Query   query.Config
}

func NewServices(
	events store.Events,
	bookings store.Bookings,
	identities store.Identities,
	tokens *auth.TokenManager,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Lifecycle: lifecycle.New(events, cache, pubsub),
		Booking:   booking.New(bookings, cache, pubsub, limiter, cfg.Booking),
		Identity:  identity.New(identities, tokens),
		Query:     query.New(events, cache, cfg.Query),
	}
}
