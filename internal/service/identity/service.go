// Package identity covers account registration, the one-time crew
// allowlist gate, and credential verification. It replaces the hosted
// identity provider the original site delegated to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Maheshi13/UNIVISTA-Project/internal/auth"
	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

type Service struct {
	ids    store.Identities
	tokens *auth.TokenManager
	now    func() time.Time
}

func New(ids store.Identities, tokens *auth.TokenManager) *Service {
	return &Service{
		ids:    ids,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a regular user account.
//
// Returns:
//   - identity.ErrInvalidInput for missing fields or a short password.
//   - identity.ErrEmailTaken if the email is already registered.
func (s *Service) Register(
	ctx context.Context,
	name, email, password, faculty string,
) (*domain.Profile, error) {
	const op = "service.identity.Register"

	profile, hash, err := s.prepareProfile(op, name, email, password, domain.RoleUser, faculty)
	if err != nil {
		return nil, err
	}

	if err := s.ids.InsertProfile(ctx, profile, hash); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// RegisterCrew creates a crew account by consuming a pre-provisioned
// allowlist username. The claim and the profile insert commit as one
// transaction, so a replayed username can never leave a half-registered
// account behind.
//
// Returns:
//   - identity.ErrInvalidOrUsedUsername if the username is unknown or
//     already consumed.
//   - identity.ErrEmailTaken if the email is already registered.
func (s *Service) RegisterCrew(
	ctx context.Context,
	username, name, email, password string,
) (*domain.Profile, error) {
	const op = "service.identity.RegisterCrew"

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%s: %w: username is required", op, ErrInvalidInput)
	}

	profile, hash, err := s.prepareProfile(op, name, email, password, domain.RoleCrew, "")
	if err != nil {
		return nil, err
	}

	err = s.ids.InTx(ctx, func(
		ctx context.Context,
		tx store.IdentityTx,
		after func(store.AfterCommit),
	) error {
		claimed, err := tx.ClaimCrewUsername(ctx, username, profile.UID)
		if err != nil {
			if errors.Is(err, repository.ErrUsernameUnavailable) {
				return fmt.Errorf("%s: %w", op, ErrInvalidOrUsedUsername)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		// The crew's faculty scope comes from the allowlist entry, not
		// from the registration form.
		profile.Faculty = claimed.Faculty

		if err := tx.InsertProfile(ctx, profile, hash); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrEmailTaken)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// Login verifies credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	const op = "service.identity.Login"

	email = normalizeEmail(email)

	profile, hash, err := s.ids.ProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.IssueSession(profile)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return token, profile, nil
}

// PasswordReset issues a short-lived reset token for the account. The
// token is handed to the delivery channel (email) by the caller.
func (s *Service) PasswordReset(ctx context.Context, email string) (string, error) {
	const op = "service.identity.PasswordReset"

	profile, _, err := s.ids.ProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrProfileNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.IssueReset(profile.UID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Current resolves the stored profile behind an authenticated uid.
func (s *Service) Current(ctx context.Context, uid string) (*domain.Profile, error) {
	const op = "service.identity.Current"

	profile, err := s.ids.ProfileByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func (s *Service) prepareProfile(
	op, name, email, password string,
	role domain.Role,
	faculty string,
) (*domain.Profile, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, "", fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%s: %w: valid email is required", op, ErrInvalidInput)
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("%s: %w: password must be at least 6 characters", op, ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return &domain.Profile{
		UID:       uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		Faculty:   faculty,
		CreatedAt: s.now().UTC(),
	}, string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
