package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a signup or email change attempts to
// use an already-registered email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateUsername is returned when the requested username is taken.
var ErrDuplicateUsername = errors.New("username already taken")

// UserRepository provides CRUD operations for users against PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	q := `
		INSERT INTO users (id, username, display_name, email, password_hash,
			is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q,
		u.ID, u.Username, u.DisplayName, u.Email, u.PasswordHash,
		u.IsActive, u.IsStaff, u.IsSuperuser, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapUnique(err)
	}
	return nil
}

// GetByID retrieves a user by their internal UUID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanOne(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanOne(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

// UpdateAccount persists username, display name, email, and active flag.
func (r *UserRepository) UpdateAccount(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	q := `
		UPDATE users SET username = $2, display_name = $3, email = $4,
			is_active = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, u.ID, u.Username, u.DisplayName, u.Email, u.IsActive, u.UpdatedAt)
	if err != nil {
		return mapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the account's active flag.
func (r *UserRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	q := `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, userID, active, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordHash updates a user's password hash.
func (r *UserRepository) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	q := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, userID, hash, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a user record. Profile rows reference users
// with ON DELETE SET NULL, so the caller must have soft-deleted and
// unlinked the profile beforehand for the directory invariants to hold.
func (r *UserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapUnique converts unique-constraint violations into the package
// sentinels.
func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "users_email_key" {
			return ErrDuplicateEmail
		}
		return ErrDuplicateUsername
	}
	return err
}

// scanOne executes a single-row query and scans the result into a User.
// Column order matches the users table definition.
func (r *UserRepository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var u User
	if err := rows.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, rows.Err()
}
