package database

import (
	"context"
	"database/sql"
	"errors"

	"pc-inventory/types"
)

// IdentityRepo stores local principals mirroring directory accounts.
type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo { return &IdentityRepo{db: db} }

// Upsert creates the identity on first login and refreshes only the
// mapped attribute fields afterwards. The privilege flags are locally
// owned: a refresh never downgrades is_staff or is_superuser that were
// granted here. The effective flags are read back into ident.
func (repo *IdentityRepo) Upsert(ctx context.Context, ident *types.Identity) error {
	sqlCode := `
	INSERT INTO identities (username, first_name, last_name, email, is_active, is_staff, is_superuser, last_login)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (username)
	DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
		email = EXCLUDED.email, last_login = now()
	RETURNING is_active, is_staff, is_superuser, last_login`

	err := repo.db.QueryRowContext(ctx, sqlCode,
		ident.Username, ident.FirstName, ident.LastName, ident.Email,
		ident.IsActive, ident.IsStaff, ident.IsSuperuser,
	).Scan(&ident.IsActive, &ident.IsStaff, &ident.IsSuperuser, &ident.LastLogin)
	if err != nil {
		return &types.StorageError{Op: "upsert identity", Err: err}
	}
	return nil
}

// GetIdentity returns one identity by username, or ErrNotFound.
func (repo *IdentityRepo) GetIdentity(ctx context.Context, username string) (*types.Identity, error) {
	var ident types.Identity
	row := repo.db.QueryRowContext(ctx, `
	SELECT username, first_name, last_name, email, is_active, is_staff, is_superuser, last_login
	FROM identities WHERE username = $1`, username)
	err := row.Scan(&ident.Username, &ident.FirstName, &ident.LastName, &ident.Email,
		&ident.IsActive, &ident.IsStaff, &ident.IsSuperuser, &ident.LastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, &types.StorageError{Op: "get identity", Err: err}
	}
	return &ident, nil
}
