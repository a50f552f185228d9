package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// User represents a player account. Money never lives here: balances
// are derived from the ledger, this row only carries identity.
type User struct {
	ID           uuid.UUID    `db:"id"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Role         Role         `db:"role"`
	Currency     string       `db:"currency"`
	IsBanned     bool         `db:"is_banned"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if user is not banned
func (u *User) IsActive() bool {
	return !u.IsBanned
}
