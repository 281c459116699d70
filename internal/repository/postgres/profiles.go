package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ProfileRepo) With(db DB) *ProfileRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ProfileRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *ProfileRepo) Insert(ctx context.Context, p *domain.Profile, passwordHash string) error {
	const op = "postgres.ProfileRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO profiles (uid, name, email, password_hash, role, faculty, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UID, p.Name, p.Email, passwordHash, p.Role, p.Faculty, p.CreatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ProfileRepo) GetByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.GetByUID"

	db := r.handle()

	var p domain.Profile
	err := db.QueryRow(ctx,
		`SELECT uid, name, email, role, faculty, created_at
		 FROM profiles WHERE uid = $1`, uid,
	).Scan(&p.UID, &p.Name, &p.Email, &p.Role, &p.Faculty, &p.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

// GetByEmail returns the profile and its password hash for credential
// verification.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, string, error) {
	const op = "postgres.ProfileRepo.GetByEmail"

	db := r.handle()

	var p domain.Profile
	var hash string
	err := db.QueryRow(ctx,
		`SELECT uid, name, email, password_hash, role, faculty, created_at
		 FROM profiles WHERE email = $1`, email,
	).Scan(&p.UID, &p.Name, &p.Email, &hash, &p.Role, &p.Faculty, &p.CreatedAt)
	if err != nil {
		return nil, "", wrapDBErr(op, err)
	}

	return &p, hash, nil
}

type CrewUsernameRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CrewUsernameRepo) With(db DB) *CrewUsernameRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CrewUsernameRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Claim consumes an unregistered allowlist entry and binds it to uid. The
// conditional UPDATE makes the claim atomic: a username that is missing or
// already registered affects zero rows.
func (r *CrewUsernameRepo) Claim(ctx context.Context, username, uid string) (*domain.CrewUsername, error) {
	const op = "postgres.CrewUsernameRepo.Claim"

	db := r.handle()

	var cu domain.CrewUsername
	err := db.QueryRow(ctx,
		`UPDATE crew_usernames
		    SET is_registered = TRUE, uid = $2
		  WHERE username = $1 AND is_registered = FALSE
		 RETURNING username, faculty, is_registered, uid`,
		username, uid,
	).Scan(&cu.Username, &cu.Faculty, &cu.IsRegistered, &cu.UID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, repository.ErrUsernameUnavailable)
		}
		return nil, wrapDBErr(op, err)
	}

	return &cu, nil
}

// Provision adds an entry to the allowlist. Used by operators to seed the
// fixed pool of crew usernames.
func (r *CrewUsernameRepo) Provision(ctx context.Context, username, faculty string) error {
	const op = "postgres.CrewUsernameRepo.Provision"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO crew_usernames (username, faculty) VALUES ($1, $2)`,
		username, faculty,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
