package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		createEventsTable,
		createTicketsTable,
		createProfilesTable,
		createCrewUsernamesTable,
		createEventsStatusIndex,
		createTicketsEventIndex,
	}

	for i, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("database migrations applied", "count", len(migrations))
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    faculty TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    event_date TEXT NOT NULL,
    event_time TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    poster_image_url TEXT NOT NULL DEFAULT '',
    has_tickets BOOLEAN NOT NULL DEFAULT FALSE,
    ticket_price_cents BIGINT NOT NULL DEFAULT 0 CHECK (ticket_price_cents >= 0),
    available_tickets INTEGER NOT NULL DEFAULT 0 CHECK (available_tickets >= 0),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    posted_by_uid TEXT NOT NULL,
    posted_by_name TEXT NOT NULL DEFAULT '',
    approved_by TEXT NOT NULL DEFAULT '',
    rejection_reason TEXT NOT NULL DEFAULT '',
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    approved_at TIMESTAMPTZ
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY,
    ticket_id TEXT UNIQUE NOT NULL,
    event_id UUID NOT NULL REFERENCES events(id),
    user_id TEXT NOT NULL,
    user_email TEXT NOT NULL,
    user_name TEXT NOT NULL DEFAULT '',
    user_phone TEXT NOT NULL DEFAULT '',
    ticket_count INTEGER NOT NULL CHECK (ticket_count > 0),
    amount_paid_cents BIGINT NOT NULL CHECK (amount_paid_cents >= 0),
    payment_status TEXT NOT NULL DEFAULT 'completed',
    booked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    uid TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'crew')),
    faculty TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createCrewUsernamesTable = `
CREATE TABLE IF NOT EXISTS crew_usernames (
    username TEXT PRIMARY KEY,
    faculty TEXT NOT NULL,
    is_registered BOOLEAN NOT NULL DEFAULT FALSE,
    uid TEXT NOT NULL DEFAULT ''
);`

const createEventsStatusIndex = `
CREATE INDEX IF NOT EXISTS idx_events_status_faculty
    ON events (status, faculty, submitted_at);`

const createTicketsEventIndex = `
CREATE INDEX IF NOT EXISTS idx_tickets_event
    ON tickets (event_id);`
