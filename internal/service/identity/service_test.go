package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maheshi13/UNIVISTA-Project/internal/auth"
	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store"
)

// memIdentities is an in-memory store.Identities. InTx stages writes and
// applies them only when fn succeeds, matching the all-or-nothing behavior
// of the crew registration transaction.
type memIdentities struct {
	mu        sync.Mutex
	profiles  map[string]profileRecord // by email
	usernames map[string]domain.CrewUsername
}

type profileRecord struct {
	profile domain.Profile
	hash    string
}

func newMemIdentities(allowlist ...domain.CrewUsername) *memIdentities {
	m := &memIdentities{
		profiles:  make(map[string]profileRecord),
		usernames: make(map[string]domain.CrewUsername),
	}
	for _, u := range allowlist {
		m.usernames[u.Username] = u
	}
	return m
}

func (m *memIdentities) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx store.IdentityTx, after func(store.AfterCommit)) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memIdentityTx{
		base:      m,
		profiles:  make(map[string]profileRecord),
		usernames: make(map[string]domain.CrewUsername),
	}

	var hooks []store.AfterCommit
	if err := fn(ctx, tx, func(h store.AfterCommit) { hooks = append(hooks, h) }); err != nil {
		return err
	}

	for email, rec := range tx.profiles {
		m.profiles[email] = rec
	}
	for name, u := range tx.usernames {
		m.usernames[name] = u
	}

	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

func (m *memIdentities) InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return insertProfile(m.profiles, nil, p, passwordHash)
}

func (m *memIdentities) ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.profiles {
		if rec.profile.UID == uid {
			p := rec.profile
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memIdentities) ProfileByEmail(ctx context.Context, email string) (*domain.Profile, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.profiles[email]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	p := rec.profile
	return &p, rec.hash, nil
}

func insertProfile(base, staged map[string]profileRecord, p *domain.Profile, hash string) error {
	if _, ok := base[p.Email]; ok {
		return repository.ErrConflict
	}
	if staged != nil {
		if _, ok := staged[p.Email]; ok {
			return repository.ErrConflict
		}
		staged[p.Email] = profileRecord{profile: *p, hash: hash}
		return nil
	}
	base[p.Email] = profileRecord{profile: *p, hash: hash}
	return nil
}

type memIdentityTx struct {
	base      *memIdentities
	profiles  map[string]profileRecord
	usernames map[string]domain.CrewUsername
}

func (t *memIdentityTx) ClaimCrewUsername(ctx context.Context, username, uid string) (*domain.CrewUsername, error) {
	u, ok := t.base.usernames[username]
	if !ok || u.IsRegistered {
		return nil, repository.ErrUsernameUnavailable
	}
	if staged, ok := t.usernames[username]; ok && staged.IsRegistered {
		return nil, repository.ErrUsernameUnavailable
	}

	u.IsRegistered = true
	u.UID = uid
	t.usernames[username] = u
	return &u, nil
}

func (t *memIdentityTx) InsertProfile(ctx context.Context, p *domain.Profile, passwordHash string) error {
	return insertProfile(t.base.profiles, t.profiles, p, passwordHash)
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour, 10*time.Minute)
}

func TestRegister(t *testing.T) {
	m := newMemIdentities()
	svc := New(m, testTokens())
	ctx := context.Background()

	profile, err := svc.Register(ctx, "Sam", "  Sam@Uni.Example ", "secret1", "Engineering")
	require.NoError(t, err)

	assert.Equal(t, "sam@uni.example", profile.Email, "email must be normalized")
	assert.Equal(t, domain.RoleUser, profile.Role)
	assert.Equal(t, "Engineering", profile.Faculty)
	assert.NotEmpty(t, profile.UID)

	// Stored hash must verify, not the plaintext.
	_, hash, err := m.ProfileByEmail(ctx, "sam@uni.example")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	m := newMemIdentities()
	svc := New(m, testTokens())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam", "sam@uni.example", "secret1", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Sam", "sam@uni.example", "secret2", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := New(newMemIdentities(), testTokens())
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "sam@uni.example", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Sam", "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Sam", "sam@uni.example", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterCrew(t *testing.T) {
	m := newMemIdentities(domain.CrewUsername{Username: "eng-crew-7", Faculty: "Engineering"})
	svc := New(m, testTokens())
	ctx := context.Background()

	profile, err := svc.RegisterCrew(ctx, "eng-crew-7", "Pat", "pat@uni.example", "secret1")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleCrew, profile.Role)
	assert.Equal(t, "Engineering", profile.Faculty, "faculty must come from the allowlist entry")
}

func TestRegisterCrewUsernameReplay(t *testing.T) {
	m := newMemIdentities(domain.CrewUsername{Username: "eng-crew-7", Faculty: "Engineering"})
	svc := New(m, testTokens())
	ctx := context.Background()

	_, err := svc.RegisterCrew(ctx, "eng-crew-7", "Pat", "pat@uni.example", "secret1")
	require.NoError(t, err)

	// A consumed username is gone for good.
	_, err = svc.RegisterCrew(ctx, "eng-crew-7", "Imposter", "imp@uni.example", "secret1")
	assert.ErrorIs(t, err, ErrInvalidOrUsedUsername)

	_, _, err = m.ProfileByEmail(ctx, "imp@uni.example")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterCrewUnknownUsername(t *testing.T) {
	svc := New(newMemIdentities(), testTokens())

	_, err := svc.RegisterCrew(context.Background(), "nobody", "Pat", "pat@uni.example", "secret1")
	assert.ErrorIs(t, err, ErrInvalidOrUsedUsername)
}

func TestRegisterCrewEmailConflictReleasesNothing(t *testing.T) {
	m := newMemIdentities(domain.CrewUsername{Username: "eng-crew-7", Faculty: "Engineering"})
	svc := New(m, testTokens())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam", "pat@uni.example", "secret1", "")
	require.NoError(t, err)

	// The profile insert fails, so the whole transaction rolls back and the
	// username stays claimable.
	_, err = svc.RegisterCrew(ctx, "eng-crew-7", "Pat", "pat@uni.example", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.RegisterCrew(ctx, "eng-crew-7", "Pat", "pat2@uni.example", "secret1")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	m := newMemIdentities()
	svc := New(m, testTokens())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Sam", "sam@uni.example", "secret1", "Engineering")
	require.NoError(t, err)

	token, profile, err := svc.Login(ctx, "Sam@Uni.Example", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.UID, profile.UID)

	id, err := testTokens().ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, registered.UID, id.UID)
	assert.Equal(t, domain.RoleUser, id.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	m := newMemIdentities()
	svc := New(m, testTokens())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam", "sam@uni.example", "secret1", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "sam@uni.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts and wrong passwords are indistinguishable.
	_, _, err = svc.Login(ctx, "ghost@uni.example", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	m := newMemIdentities()
	tokens := testTokens()
	svc := New(m, tokens)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Sam", "sam@uni.example", "secret1", "")
	require.NoError(t, err)

	token, err := svc.PasswordReset(ctx, "sam@uni.example")
	require.NoError(t, err)

	uid, err := tokens.ParseReset(token)
	require.NoError(t, err)
	assert.Equal(t, registered.UID, uid)

	// A reset token must not pass as a session.
	_, err = tokens.ParseSession(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.PasswordReset(ctx, "ghost@uni.example")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCurrent(t *testing.T) {
	m := newMemIdentities()
	svc := New(m, testTokens())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Sam", "sam@uni.example", "secret1", "")
	require.NoError(t, err)

	profile, err := svc.Current(ctx, registered.UID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", profile.Name)

	_, err = svc.Current(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
