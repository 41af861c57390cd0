package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/neurodir/neurodir/internal/identity"
)

// User represents a directory account holder. A freshly signed-up user is
// inactive until the emailed confirmation link is followed; changing the
// account email deactivates it again until the new address confirms.
type User struct {
	ID           uuid.UUID `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	IsActive     bool      `json:"is_active"    db:"is_active"`
	IsStaff      bool      `json:"-"            db:"is_staff"`
	IsSuperuser  bool      `json:"-"            db:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"   db:"updated_at"`
}

// BoundState is the snapshot verification codes are bound to. Any change
// to the password hash or active flag invalidates outstanding codes.
func (u *User) BoundState() identity.BoundState {
	return identity.BoundState{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}
