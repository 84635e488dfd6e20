package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pc-inventory/types"
)

// LoginRepo is the local credential store, the fallback behind the
// directory for superusers and break-glass accounts.
type LoginRepo struct {
	db *sql.DB
}

func NewLoginRepo(db *sql.DB) *LoginRepo { return &LoginRepo{db: db} }

// EnsureAdmin seeds or refreshes the configured admin account.
func (repo *LoginRepo) EnsureAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("admin username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("admin password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash admin password: " + err.Error())
	}

	sqlCode := `
	INSERT INTO logins (username, password, is_superuser, enabled)
	VALUES ($1, $2, TRUE, TRUE)
	ON CONFLICT (username)
	DO UPDATE SET password = EXCLUDED.password`

	if _, err := repo.db.ExecContext(ctx, sqlCode, username, string(hash)); err != nil {
		return &types.StorageError{Op: "seed admin login", Err: err}
	}
	return nil
}

// Verify checks a username/password pair against the local store. An
// unknown username, a disabled account and a wrong password all return
// ErrRejected so the caller cannot enumerate accounts.
func (repo *LoginRepo) Verify(ctx context.Context, username, password string) (*types.Identity, error) {
	var hash string
	var superuser, enabled bool
	row := repo.db.QueryRowContext(ctx,
		`SELECT password, is_superuser, enabled FROM logins WHERE username = $1`, username)
	if err := row.Scan(&hash, &superuser, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrRejected
		}
		return nil, &types.StorageError{Op: "lookup login", Err: err}
	}
	if !enabled {
		return nil, types.ErrRejected
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, types.ErrRejected
	}
	return &types.Identity{
		Username:    username,
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}, nil
}
