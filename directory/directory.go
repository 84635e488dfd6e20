// Package directory authenticates operators against an external LDAP
// directory and provisions local identities from directory attributes.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"

	"pc-inventory/types"
)

var (
	// ErrUnavailable: could not reach or query the directory. Not the
	// same as bad credentials; surfaced to end users as a generic
	// rejection and logged in detail for operators.
	ErrUnavailable = errors.New("directory unavailable")

	// ErrConfiguration: the service account bind failed. Operator
	// actionable, never to be mistaken for a wrong user password.
	ErrConfiguration = errors.New("directory service bind failed")

	// ErrNoMatch: no usable directory entry for the username (zero
	// matches, or an ambiguous multi-match). The caller may fall through
	// to the local credential store.
	ErrNoMatch = errors.New("no matching directory principal")
)

// Config is the externally supplied directory surface.
type Config struct {
	ServerURI     string        // e.g. ldap://dc1.example.com:389
	BindDN        string        // service account DN
	BindPassword  string        // service account password
	UserBaseDN    string        // search base
	LoginAttr     string        // attribute matched against the username
	AttrFirstName string        // mapped to Identity.FirstName
	AttrLastName  string        // mapped to Identity.LastName
	AttrEmail     string        // mapped to Identity.Email
	Timeout       time.Duration // per network round-trip
	CacheTTL      time.Duration // search result cache window
}

// Enabled reports whether a directory endpoint is configured at all.
func (c Config) Enabled() bool { return c.ServerURI != "" }

// Conn is the subset of the LDAP client the bridge uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// DialFunc opens a directory connection with a bounded network timeout.
type DialFunc func(ctx context.Context, uri string, timeout time.Duration) (Conn, error)

func dialLDAP(_ context.Context, uri string, timeout time.Duration) (Conn, error) {
	conn, err := ldap.DialURL(uri, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)
	return conn, nil
}

// IdentityStore is where successful directory authentications are
// mirrored.
type IdentityStore interface {
	Upsert(ctx context.Context, ident *types.Identity) error
}

// Bridge runs the per-attempt state machine: dial, service bind, search,
// candidate bind, identity upsert. Search results (DN plus mapped
// attributes) are cached for CacheTTL; credentials never are, so a cache
// hit still verifies the password with a bind.
type Bridge struct {
	cfg        Config
	dial       DialFunc
	identities IdentityStore
	log        zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	dn        string
	firstName string
	lastName  string
	email     string
	expires   time.Time
}

func NewBridge(cfg Config, identities IdentityStore, log zerolog.Logger) *Bridge {
	return &Bridge{
		cfg:        cfg,
		dial:       dialLDAP,
		identities: identities,
		log:        log.With().Str("component", "directory").Logger(),
		cache:      make(map[string]cacheEntry),
	}
}

// Authenticate verifies the supplied credentials against the directory
// and upserts the mirrored identity on success. Errors: ErrUnavailable,
// ErrConfiguration, ErrNoMatch, types.ErrRejected.
func (b *Bridge) Authenticate(ctx context.Context, username, password string) (*types.Identity, error) {
	// An empty password would be an unauthenticated LDAP bind, which
	// most servers happily accept.
	if username == "" || password == "" {
		return nil, types.ErrRejected
	}

	conn, err := b.dial(ctx, b.cfg.ServerURI, b.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, b.cfg.ServerURI, err)
	}
	defer conn.Close()

	entry, cached := b.cached(username)
	if !cached {
		entry, err = b.search(conn, username)
		if err != nil {
			return nil, err
		}
		b.store(username, entry)
	}

	if err := conn.Bind(entry.dn, password); err != nil {
		// Covers both a wrong password and a stale cached DN; dropping
		// the entry makes the next attempt search again.
		b.evict(username)
		b.log.Debug().Str("username", username).Msg("candidate bind rejected")
		return nil, types.ErrRejected
	}

	ident := &types.Identity{
		Username:  username,
		FirstName: entry.firstName,
		LastName:  entry.lastName,
		Email:     entry.email,
		IsActive:  true,
	}
	if err := b.identities.Upsert(ctx, ident); err != nil {
		return nil, err
	}
	b.log.Info().Str("username", username).Msg("directory authentication succeeded")
	return ident, nil
}

func (b *Bridge) search(conn Conn, username string) (cacheEntry, error) {
	if err := conn.Bind(b.cfg.BindDN, b.cfg.BindPassword); err != nil {
		return cacheEntry{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	timeLimit := int(b.cfg.Timeout / time.Second)
	req := ldap.NewSearchRequest(
		b.cfg.UserBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, timeLimit, false,
		fmt.Sprintf("(%s=%s)", b.cfg.LoginAttr, ldap.EscapeFilter(username)),
		[]string{b.cfg.AttrFirstName, b.cfg.AttrLastName, b.cfg.AttrEmail},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}

	switch len(res.Entries) {
	case 0:
		return cacheEntry{}, ErrNoMatch
	case 1:
	default:
		// Never authenticate against an ambiguous result.
		b.log.Warn().Str("username", username).Int("matches", len(res.Entries)).
			Msg("ambiguous directory search, treating as no match")
		return cacheEntry{}, ErrNoMatch
	}

	e := res.Entries[0]
	return cacheEntry{
		dn:        e.DN,
		firstName: e.GetAttributeValue(b.cfg.AttrFirstName),
		lastName:  e.GetAttributeValue(b.cfg.AttrLastName),
		email:     e.GetAttributeValue(b.cfg.AttrEmail),
	}, nil
}

func (b *Bridge) cached(username string) (cacheEntry, bool) {
	if b.cfg.CacheTTL <= 0 {
		return cacheEntry{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.cache[username]
	if !ok {
		return cacheEntry{}, false
	}
	if time.Now().After(entry.expires) {
		delete(b.cache, username)
		return cacheEntry{}, false
	}
	return entry, true
}

func (b *Bridge) store(username string, entry cacheEntry) {
	if b.cfg.CacheTTL <= 0 {
		return
	}
	entry.expires = time.Now().Add(b.cfg.CacheTTL)
	b.mu.Lock()
	b.cache[username] = entry
	b.mu.Unlock()
}

func (b *Bridge) evict(username string) {
	b.mu.Lock()
	delete(b.cache, username)
	b.mu.Unlock()
}
