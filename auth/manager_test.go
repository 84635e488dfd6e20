package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pc-inventory/directory"
	"pc-inventory/types"
)

type fakeDirectory struct {
	err   error
	calls int
}

func (d *fakeDirectory) Authenticate(_ context.Context, username, _ string) (*types.Identity, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &types.Identity{Username: username, IsActive: true}, nil
}

type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) Verify(_ context.Context, username, _ string) (*types.Identity, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return &types.Identity{Username: username, IsActive: true, IsSuperuser: true}, nil
}

type fakeIdentities struct {
	idents map[string]types.Identity
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{idents: make(map[string]types.Identity)}
}

func (s *fakeIdentities) Upsert(_ context.Context, ident *types.Identity) error {
	s.idents[ident.Username] = *ident
	return nil
}

func (s *fakeIdentities) GetIdentity(_ context.Context, username string) (*types.Identity, error) {
	ident, ok := s.idents[username]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &ident, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(dir DirectoryAuthenticator, local CredentialVerifier) (*Manager, *fakeIdentities, *clock) {
	idents := newFakeIdentities()
	c := &clock{t: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)}
	m := NewManager(dir, local, idents, time.Hour, zerolog.Nop())
	m.now = c.now
	return m, idents, c
}

func TestAuthenticateDirectoryFirst(t *testing.T) {
	dir := &fakeDirectory{}
	local := &fakeVerifier{}
	m, idents, _ := newTestManager(dir, local)

	session, err := m.Authenticate(context.Background(), "jdoe", "secret")
	require.NoError(t, err)

	assert.Equal(t, "jdoe", session.Username)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, time.Hour, session.ExpiresAt.Sub(session.IssuedAt))
	assert.Equal(t, 1, dir.calls)
	assert.Zero(t, local.calls, "directory success must not consult local logins")
	assert.Empty(t, idents.idents, "the bridge owns the upsert on the directory path")
}

func TestAuthenticateFallsThroughOnNoMatch(t *testing.T) {
	dir := &fakeDirectory{err: directory.ErrNoMatch}
	local := &fakeVerifier{}
	m, idents, _ := newTestManager(dir, local)

	session, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)

	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, 1, dir.calls)
	assert.Equal(t, 1, local.calls)
	assert.Contains(t, idents.idents, "admin", "local logins resolve through the identity table")
}

func TestAuthenticateNoFallthroughOnRejection(t *testing.T) {
	dir := &fakeDirectory{err: types.ErrRejected}
	local := &fakeVerifier{}
	m, _, _ := newTestManager(dir, local)

	_, err := m.Authenticate(context.Background(), "jdoe", "wrong")
	assert.ErrorIs(t, err, types.ErrRejected)
	assert.Zero(t, local.calls, "a known directory account with a wrong password never falls through")
}

func TestAuthenticateNoFallthroughOnOutage(t *testing.T) {
	dir := &fakeDirectory{err: directory.ErrUnavailable}
	local := &fakeVerifier{}
	m, _, _ := newTestManager(dir, local)

	_, err := m.Authenticate(context.Background(), "jdoe", "secret")
	assert.ErrorIs(t, err, directory.ErrUnavailable)
	assert.Zero(t, local.calls)
}

func TestAuthenticateWithoutDirectory(t *testing.T) {
	local := &fakeVerifier{}
	m, _, _ := newTestManager(nil, local)

	session, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, 1, local.calls)
}

func TestAuthenticateLocalRejection(t *testing.T) {
	local := &fakeVerifier{err: types.ErrRejected}
	m, _, _ := newTestManager(nil, local)

	_, err := m.Authenticate(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, types.ErrRejected)
	assert.Zero(t, m.SessionCount())
}

func TestValidateSlidesExpiry(t *testing.T) {
	m, _, c := newTestManager(&fakeDirectory{}, &fakeVerifier{})

	session, err := m.Authenticate(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	// The directory path does not populate the identity table in this
	// fixture, so seed it for Validate.
	require.NoError(t, m.identities.Upsert(context.Background(), &types.Identity{Username: "jdoe", IsActive: true}))

	// 40 minutes in: valid, and the touch pushes expiry to now+TTL.
	c.advance(40 * time.Minute)
	ident, err := m.Validate(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", ident.Username)

	// 50 more minutes: past the original expiry, inside the slid one.
	c.advance(50 * time.Minute)
	_, err = m.Validate(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestValidateExpiredSessionRemovedOnTouch(t *testing.T) {
	m, _, c := newTestManager(&fakeDirectory{}, &fakeVerifier{})

	session, err := m.Authenticate(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, m.SessionCount())

	c.advance(time.Hour)
	_, err = m.Validate(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, m.SessionCount())

	// A second touch no longer finds the session at all.
	_, err = m.Validate(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateJustBeforeExpiry(t *testing.T) {
	m, _, c := newTestManager(nil, &fakeVerifier{})

	session, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)

	c.advance(time.Hour - time.Second)
	_, err = m.Validate(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestValidateUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(nil, &fakeVerifier{})

	_, err := m.Validate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateMissingIdentity(t *testing.T) {
	m, idents, _ := newTestManager(nil, &fakeVerifier{})

	session, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)

	delete(idents.idents, "admin")
	_, err = m.Validate(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager(nil, &fakeVerifier{})

	session, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, m.SessionCount())

	m.Logout(session.ID)
	assert.Zero(t, m.SessionCount())
	m.Logout(session.ID)
	assert.Zero(t, m.SessionCount())

	_, err = m.Validate(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionsAreIndependent(t *testing.T) {
	m, _, _ := newTestManager(nil, &fakeVerifier{})

	first, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)
	second, err := m.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	m.Logout(first.ID)
	_, err = m.Validate(context.Background(), second.ID)
	require.NoError(t, err)
}
