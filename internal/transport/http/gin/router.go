package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Maheshi13/UNIVISTA-Project/internal/auth"
	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/booking"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/identity"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/lifecycle"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service/query"
)

func NewRouter(
	svcs *service.Services,
	tokens *auth.TokenManager,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), MetricsMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", MetricsHandler())

	// Auth
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handleRegister(svcs))
		authGroup.POST("/crew/register", handleCrewRegister(svcs))
		authGroup.POST("/login", handleLogin(svcs))
		authGroup.POST("/password-reset", handlePasswordReset(svcs))
	}

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/availability", handleGetAvailability(svcs))

	r.POST("/events", AuthMiddleware(tokens, true), handleSubmitEvent(svcs))
	r.POST("/events/:id/bookings", AuthMiddleware(tokens, false), handleBookTickets(svcs, idem))

	r.GET("/tickets/:id", handleGetTicket(svcs))
	r.GET("/tickets/:id/qr", handleTicketQR(svcs))

	// Crew API
	crew := r.Group("/crew", AuthMiddleware(tokens, true), CrewOnly())
	{
		crew.GET("/pending", handlePendingQueue(svcs))
		crew.POST("/events/:id/approve", handleApproveEvent(svcs))
		crew.POST("/events/:id/reject", handleRejectEvent(svcs))
	}

	return r
}

// --- Auth handlers ---

func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		profile, err := svcs.Identity.Register(
			c.Request.Context(),
			req.Name, req.Email, req.Password, req.Faculty,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toProfileResponse(profile))
	}
}

func handleCrewRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CrewRegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		profile, err := svcs.Identity.RegisterCrew(
			c.Request.Context(),
			req.Username, req.Name, req.Email, req.Password,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toProfileResponse(profile))
	}
}

func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		token, profile, err := svcs.Identity.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, AuthResponse{
			Token:   token,
			Profile: toProfileResponse(profile),
		})
	}
}

func handlePasswordReset(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		token, err := svcs.Identity.PasswordReset(c.Request.Context(), req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, PasswordResetResponse{ResetToken: token})
	}
}

// --- Event handlers ---

func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		faculty := c.Query("faculty")

		events, err := svcs.Query.ListApproved(c.Request.Context(), faculty)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, toEventResponses(events), "public, max-age=30", true)
	}
}

func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := toEventResponse(e)
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=60", true)
	}
}

func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		av, err := svcs.Booking.Availability(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := AvailabilityResponse{
			EventID:          av.EventID.String(),
			HasTickets:       av.HasTickets,
			AvailableTickets: av.AvailableTickets,
			TicketPriceCents: av.TicketPriceCents,
		}
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=5", true)
	}
}

func handleSubmitEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := svcs.Lifecycle.Submit(c.Request.Context(), identityFrom(c), domain.EventInput{
			Name:             req.Name,
			Faculty:          req.Faculty,
			Description:      req.Description,
			Date:             req.Date,
			Time:             req.Time,
			Location:         req.Location,
			PosterImageURL:   req.PosterImageURL,
			HasTickets:       req.HasTickets,
			TicketPriceCents: req.TicketPriceCents,
			AvailableTickets: req.AvailableTickets,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toEventResponse(event))
	}
}

// --- Booking handlers ---

func handleBookTickets(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req BookTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(eventID.String(), idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		buyer := domain.BuyerInfo{
			Email: req.Email,
			Name:  req.Name,
			Phone: req.Phone,
		}
		if id := identityFrom(c); id != nil {
			buyer.UserID = id.UID
		}

		rlKey := "ip:" + c.ClientIP()

		ticket, err := svcs.Booking.BookTickets(
			c.Request.Context(),
			eventID,
			req.TicketCount,
			buyer,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if isRateLimitedErr(err) {
				observeBooking("rate_limited")
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			if errors.Is(err, booking.ErrInsufficientInventory) {
				observeBooking("sold_out")
			} else {
				observeBooking("error")
			}
			respondErr(c, err)
			return
		}

		observeBooking("success")

		resp := toTicketResponse(ticket)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket, err := svcs.Booking.GetTicket(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toTicketResponse(ticket))
	}
}

func handleTicketQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		png, err := svcs.Booking.TicketQR(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	}
}

// --- Crew handlers ---

func handlePendingQueue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Lifecycle.PendingQueue(
			c.Request.Context(),
			identityFrom(c),
			c.Query("faculty"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toEventResponses(events))
	}
}

func handleApproveEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		event, err := svcs.Lifecycle.Approve(c.Request.Context(), identityFrom(c), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toEventResponse(event))
	}
}

func handleRejectEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req RejectEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := svcs.Lifecycle.Reject(c.Request.Context(), identityFrom(c), eventID, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toEventResponse(event))
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var insufficient *booking.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		remaining := insufficient.Remaining
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:     insufficient.Error(),
			Remaining: &remaining,
		})
		return
	}

	switch {
	// lifecycle service
	case errors.Is(err, lifecycle.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	case errors.Is(err, lifecycle.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed"})
	case errors.Is(err, lifecycle.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, lifecycle.ErrEmptyReason):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rejection reason is required"})
	case errors.Is(err, lifecycle.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, lifecycle.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event already finalized"})

	// booking service
	case errors.Is(err, booking.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, booking.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
	case errors.Is(err, booking.ErrEventNotApproved):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event is not open for booking"})
	case errors.Is(err, booking.ErrNoTicketSales):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event does not sell tickets"})
	case errors.Is(err, booking.ErrInvalidCount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ticket count must be positive"})
	case errors.Is(err, booking.ErrInvalidBuyer):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	// identity service
	case errors.Is(err, identity.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email already registered"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, identity.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	case errors.Is(err, identity.ErrInvalidOrUsedUsername):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "username does not exist or is already used"})
	case errors.Is(err, identity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
