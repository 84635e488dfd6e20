// Package auth turns successful authentications into time-bounded
// sessions and enforces session policy on every request.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pc-inventory/directory"
	"pc-inventory/types"
)

var (
	// ErrSessionNotFound and ErrSessionExpired are expected outcomes,
	// not failures: they route the caller back through authentication.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// DirectoryAuthenticator is the directory-backed first stage of the
// backend chain.
type DirectoryAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*types.Identity, error)
}

// CredentialVerifier is the local credential store, the second stage.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*types.Identity, error)
}

// IdentityStore resolves and persists local principals.
type IdentityStore interface {
	Upsert(ctx context.Context, ident *types.Identity) error
	GetIdentity(ctx context.Context, username string) (*types.Identity, error)
}

// Manager owns session storage and expiry. Sessions slide: every
// successful validation pushes the expiry a full TTL from now. Expired
// entries are reaped lazily on access; there is no sweeper.
type Manager struct {
	dir        DirectoryAuthenticator
	local      CredentialVerifier
	identities IdentityStore
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]types.Session
}

func NewManager(dir DirectoryAuthenticator, local CredentialVerifier, identities IdentityStore, ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		dir:        dir,
		local:      local,
		identities: identities,
		ttl:        ttl,
		log:        log.With().Str("component", "auth").Logger(),
		now:        time.Now,
		sessions:   make(map[string]types.Session),
	}
}

// Authenticate runs the ordered backend chain: the directory bridge
// first, then the local credential store, but only when the directory
// had no matching principal at all. A wrong password for a known
// directory account never falls through.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*types.Session, error) {
	ident, err := m.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := types.Session{
		ID:         uuid.NewString(),
		Username:   ident.Username,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
		LastSeenAt: now,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.log.Info().Str("username", ident.Username).Int("sessions", count).Msg("session issued")
	return &session, nil
}

func (m *Manager) authenticate(ctx context.Context, username, password string) (*types.Identity, error) {
	if m.dir != nil {
		ident, err := m.dir.Authenticate(ctx, username, password)
		switch {
		case err == nil:
			return ident, nil
		case errors.Is(err, directory.ErrNoMatch):
			// Legacy/superuser path below.
		default:
			return nil, err
		}
	}

	ident, err := m.local.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	// Local logins still resolve through the identity table so that
	// Validate has one source of truth.
	if err := m.identities.Upsert(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// Validate resolves a session ID to its identity, sliding the expiry as
// a side effect. Expired sessions are removed on touch.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*types.Identity, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	now := m.now()
	if !now.Before(session.ExpiresAt) {
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}
	session.ExpiresAt = now.Add(m.ttl)
	session.LastSeenAt = now
	m.sessions[sessionID] = session
	m.mu.Unlock()

	ident, err := m.identities.GetIdentity(ctx, session.Username)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return ident, nil
}

// Logout destroys the session. Idempotent if it is already gone.
func (m *Manager) Logout(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// SessionCount reports live (possibly expired but unreaped) sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// TTL is the fixed session time-to-live.
func (m *Manager) TTL() time.Duration { return m.ttl }
