package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// Terminal reports whether no further transitions are allowed from s.
func (s EventStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Role string

const (
	RoleUser Role = "user"
	RoleCrew Role = "crew"
)

// FacultyUniversityWide is the sentinel faculty for events that are not
// scoped to a single faculty. Crew registered under it may review events
// of any faculty.
const FacultyUniversityWide = "University Wide"

type Event struct {
	ID               uuid.UUID
	Name             string
	Faculty          string
	Description      string
	Date             string // calendar date, YYYY-MM-DD
	Time             string // wall-clock time, HH:MM
	Location         string
	PosterImageURL   string
	HasTickets       bool
	TicketPriceCents int64
	AvailableTickets int
	Status           EventStatus
	PostedByUID      string
	PostedByName     string
	ApprovedBy       string
	RejectionReason  string
	SubmittedAt      time.Time
	ApprovedAt       *time.Time
}

type Ticket struct {
	ID              uuid.UUID
	TicketID        string // human-facing id, also the QR payload
	EventID         uuid.UUID
	UserID          string
	UserEmail       string
	UserName        string
	UserPhone       string
	TicketCount     int
	AmountPaidCents int64
	PaymentStatus   string
	BookedAt        time.Time
}

type Profile struct {
	UID       string
	Name      string
	Email     string
	Role      Role
	Faculty   string
	CreatedAt time.Time
}

// CrewUsername is one entry of the pre-provisioned crew allowlist. A record
// is consumable exactly once: claiming it flips IsRegistered and binds the
// registering uid.
type CrewUsername struct {
	Username     string
	Faculty      string
	IsRegistered bool
	UID          string
}

// Identity is the authenticated caller, threaded explicitly through every
// operation that needs one. A nil *Identity means the caller is anonymous.
type Identity struct {
	UID     string
	Name    string
	Role    Role
	Faculty string
}

// CanReview reports whether the identity may approve or reject events of
// the given faculty.
func (id *Identity) CanReview(faculty string) bool {
	if id == nil || id.Role != RoleCrew {
		return false
	}
	return id.Faculty == faculty || id.Faculty == FacultyUniversityWide
}

type EventInput struct {
	Name             string
	Faculty          string
	Description      string
	Date             string
	Time             string
	Location         string
	PosterImageURL   string
	HasTickets       bool
	TicketPriceCents int64
	AvailableTickets int
}

// Validate rejects malformed event payloads before they reach the store.
func (in *EventInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("event name is required")
	}
	if strings.TrimSpace(in.Faculty) == "" {
		return errors.New("faculty is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return errors.New("date is required")
	}
	if in.TicketPriceCents < 0 {
		return errors.New("ticket price cannot be negative")
	}
	if in.AvailableTickets < 0 {
		return errors.New("available tickets cannot be negative")
	}
	if in.HasTickets && in.AvailableTickets == 0 {
		return errors.New("ticketed event needs at least one ticket")
	}
	return nil
}

type BuyerInfo struct {
	UserID string // authenticated uid or generated guest id
	Email  string
	Name   string
	Phone  string
}

func (b *BuyerInfo) Validate() error {
	if strings.TrimSpace(b.Email) == "" {
		return errors.New("buyer email is required")
	}
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("buyer name is required")
	}
	return nil
}

type EventAvailability struct {
	EventID          uuid.UUID
	HasTickets       bool
	AvailableTickets int
	TicketPriceCents int64
}
