package httpgin

import (
	"time"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Faculty  string `json:"faculty"`
}

type CrewRegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type SubmitEventRequest struct {
	Name             string `json:"name" binding:"required"`
	Faculty          string `json:"faculty" binding:"required"`
	Description      string `json:"description"`
	Date             string `json:"date" binding:"required"`
	Time             string `json:"time"`
	Location         string `json:"location"`
	PosterImageURL   string `json:"posterImageUrl"`
	HasTickets       bool   `json:"hasTickets"`
	TicketPriceCents int64  `json:"ticketPriceCents" binding:"gte=0"`
	AvailableTickets int    `json:"availableTickets" binding:"gte=0"`
}

type BookTicketsRequest struct {
	TicketCount int    `json:"ticketCount" binding:"required,gt=0"`
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
}

type RejectEventRequest struct {
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Remaining *int   `json:"remaining,omitempty"`
}

type AuthResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

type ProfileResponse struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Faculty string `json:"faculty"`
}

type PasswordResetResponse struct {
	ResetToken string `json:"resetToken"`
}

type EventResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Faculty          string     `json:"faculty"`
	Description      string     `json:"description"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	Location         string     `json:"location"`
	PosterImageURL   string     `json:"posterImageUrl,omitempty"`
	HasTickets       bool       `json:"hasTickets"`
	TicketPriceCents int64      `json:"ticketPriceCents"`
	AvailableTickets int        `json:"availableTickets"`
	Status           string     `json:"status"`
	PostedByUID      string     `json:"postedByUid"`
	PostedByName     string     `json:"postedByName"`
	ApprovedBy       string     `json:"approvedBy,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	SubmittedAt      time.Time  `json:"submittedAt"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
}

type TicketResponse struct {
	ID              string    `json:"id"`
	TicketID        string    `json:"ticketId"`
	EventID         string    `json:"eventId"`
	UserID          string    `json:"userId"`
	UserEmail       string    `json:"userEmail"`
	UserName        string    `json:"userName"`
	UserPhone       string    `json:"userPhone,omitempty"`
	TicketCount     int       `json:"ticketCount"`
	AmountPaidCents int64     `json:"amountPaidCents"`
	PaymentStatus   string    `json:"paymentStatus"`
	QRCodeData      string    `json:"qrCodeData"`
	BookedAt        time.Time `json:"bookedAt"`
}

type AvailabilityResponse struct {
	EventID          string `json:"eventId"`
	HasTickets       bool   `json:"hasTickets"`
	AvailableTickets int    `json:"availableTickets"`
	TicketPriceCents int64  `json:"ticketPriceCents"`
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		UID:     p.UID,
		Name:    p.Name,
		Email:   p.Email,
		Role:    string(p.Role),
		Faculty: p.Faculty,
	}
}

func toEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:               e.ID.String(),
		Name:             e.Name,
		Faculty:          e.Faculty,
		Description:      e.Description,
		Date:             e.Date,
		Time:             e.Time,
		Location:         e.Location,
		PosterImageURL:   e.PosterImageURL,
		HasTickets:       e.HasTickets,
		TicketPriceCents: e.TicketPriceCents,
		AvailableTickets: e.AvailableTickets,
		Status:           string(e.Status),
		PostedByUID:      e.PostedByUID,
		PostedByName:     e.PostedByName,
		ApprovedBy:       e.ApprovedBy,
		RejectionReason:  e.RejectionReason,
		SubmittedAt:      e.SubmittedAt,
		ApprovedAt:       e.ApprovedAt,
	}
}

func toEventResponses(events []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	return out
}

func toTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID.String(),
		TicketID:        t.TicketID,
		EventID:         t.EventID.String(),
		UserID:          t.UserID,
		UserEmail:       t.UserEmail,
		UserName:        t.UserName,
		UserPhone:       t.UserPhone,
		TicketCount:     t.TicketCount,
		AmountPaidCents: t.AmountPaidCents,
		PaymentStatus:   t.PaymentStatus,
		QRCodeData:      t.TicketID,
		BookedAt:        t.BookedAt,
	}
}
