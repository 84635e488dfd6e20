package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pc-inventory/query"
	"pc-inventory/types"
)

// MemoryStore is an in-process implementation of the record, identity
// and login stores. It backs the memory backend (single-node dev
// deployments) and the package tests. Semantics mirror the Postgres
// repositories exactly, including the append-only record lifecycle.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	records    []types.InventoryRecord
	byErrors   map[bool][]int // positions into records, per error flag
	identities map[string]types.Identity
	logins     map[string]memoryLogin
}

type memoryLogin struct {
	hash      string
	superuser bool
	enabled   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		byErrors:   make(map[bool][]int),
		identities: make(map[string]types.Identity),
		logins:     make(map[string]memoryLogin),
	}
}

// Append persists a record draft as a new history row.
func (s *MemoryStore) Append(_ context.Context, draft *types.InventoryRecord) (*types.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *draft
	rec.ID = s.nextID
	s.nextID++
	now := time.Now()
	rec.UploadTime = now
	rec.LastUpdate = now
	if rec.ErrorLog != nil {
		v := *rec.ErrorLog
		rec.ErrorLog = &v
	}

	s.byErrors[rec.HasErrors] = append(s.byErrors[rec.HasErrors], len(s.records))
	s.records = append(s.records, rec)

	out := rec
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*types.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, f query.Filter, page int) (*types.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.InventoryRecord
	if f.Search == "" && f.DeviceType == "" && f.HasErrors != nil {
		// Error-flag-only listings come off the flag index.
		for _, pos := range s.byErrors[*f.HasErrors] {
			matched = append(matched, s.records[pos])
		}
	} else {
		for i := range s.records {
			if f.Match(&s.records[i]) {
				matched = append(matched, s.records[i])
			}
		}
	}

	// Newest first, identity breaking ties.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UploadTime.Equal(matched[j].UploadTime) {
			return matched[i].UploadTime.After(matched[j].UploadTime)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	page, totalPages := query.ClampPage(page, total)
	lo, hi := query.PageBounds(page, total)

	results := make([]types.InventoryRecord, hi-lo)
	copy(results, matched[lo:hi])

	return &types.Page{Results: results, Page: page, TotalPages: totalPages, TotalCount: total}, nil
}

func (s *MemoryStore) DeviceTypes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var values []string
	for i := range s.records {
		values = append(values, s.records[i].DeviceType)
	}
	sort.Strings(values)
	return dedupeFold(values), nil
}

// Upsert mirrors IdentityRepo.Upsert: mapped fields refresh, locally
// owned flags survive.
func (s *MemoryStore) Upsert(_ context.Context, ident *types.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.identities[ident.Username]; ok {
		existing.FirstName = ident.FirstName
		existing.LastName = ident.LastName
		existing.Email = ident.Email
		existing.LastLogin = &now
		s.identities[ident.Username] = existing
		*ident = existing
		return nil
	}

	stored := *ident
	stored.LastLogin = &now
	s.identities[ident.Username] = stored
	*ident = stored
	return nil
}

func (s *MemoryStore) GetIdentity(_ context.Context, username string) (*types.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[username]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &ident, nil
}

func (s *MemoryStore) EnsureAdmin(_ context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[username] = memoryLogin{hash: string(hash), superuser: true, enabled: true}
	return nil
}

// SetLogin adds or replaces a local credential. Test and tooling hook.
func (s *MemoryStore) SetLogin(username, password string, superuser, enabled bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[username] = memoryLogin{hash: string(hash), superuser: superuser, enabled: enabled}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, username, password string) (*types.Identity, error) {
	s.mu.RLock()
	login, ok := s.logins[username]
	s.mu.RUnlock()
	if !ok || !login.enabled {
		return nil, types.ErrRejected
	}
	if err := bcrypt.CompareHashAndPassword([]byte(login.hash), []byte(password)); err != nil {
		return nil, types.ErrRejected
	}
	return &types.Identity{
		Username:    username,
		IsActive:    true,
		IsStaff:     login.superuser,
		IsSuperuser: login.superuser,
	}, nil
}
