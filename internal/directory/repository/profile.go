// Package repository implements the directory's PostgreSQL storage layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/search"
)

// ErrNotFound is returned when a profile lookup finds no matching record.
var ErrNotFound = errors.New("profile not found")

// ErrAlreadyClaimed is returned when a claim races another user to the same
// profile, or targets a profile that already has an owner.
var ErrAlreadyClaimed = errors.New("profile already claimed")

// profileColumns is the join-projection every profile query selects.
// Column order must match scan().
const profileColumns = `
	p.id, p.name, p.contact_email, p.institution, p.position,
	p.brain_structure, p.modalities, p.methods, p.domains, p.keywords,
	p.country_id, p.is_public, p.published_at, p.created_at, p.updated_at,
	p.deleted_at, p.user_id, p.claimed_at,
	COALESCE(c.name, ''), COALESCE(c.is_under_represented, FALSE)`

const profileFrom = ` FROM profiles p LEFT JOIN countries c ON c.id = p.country_id `

// ProfileRepository provides profile storage against PostgreSQL.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile. Sets ID, PublishedAt, CreatedAt, UpdatedAt.
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.PublishedAt = now
	p.CreatedAt = now
	p.UpdatedAt = now

	q := `
		INSERT INTO profiles (
			id, name, contact_email, institution, position,
			brain_structure, modalities, methods, domains, keywords,
			country_id, is_public, published_at, created_at, updated_at,
			deleted_at, user_id, claimed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18
		)`
	_, err := r.db.Exec(ctx, q,
		p.ID, p.Name, p.ContactEmail, p.Institution, p.Position,
		p.BrainStructure, p.Modalities, p.Methods, p.Domains, p.Keywords,
		p.CountryID, p.IsPublic, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
		p.DeletedAt, p.UserID, p.ClaimedAt,
	)
	return err
}

// Update modifies the editable fields of an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, p *model.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	q := `
		UPDATE profiles SET
			name            = $2,
			contact_email   = $3,
			institution     = $4,
			position        = $5,
			brain_structure = $6,
			modalities      = $7,
			methods         = $8,
			domains         = $9,
			keywords        = $10,
			country_id      = $11,
			is_public       = $12,
			updated_at      = $13
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q,
		p.ID, p.Name, p.ContactEmail, p.Institution, p.Position,
		p.BrainStructure, p.Modalities, p.Methods, p.Domains, p.Keywords,
		p.CountryID, p.IsPublic, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a profile by its UUID, joined with its country.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return r.scanOne(ctx, `SELECT`+profileColumns+profileFrom+`WHERE p.id = $1`, id)
}

// GetByUserID retrieves the profile linked to a user account.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	return r.scanOne(ctx, `SELECT`+profileColumns+profileFrom+`WHERE p.user_id = $1`, userID)
}

// GetByContactEmail retrieves the non-deleted profile with the given
// contact email, used to auto-link profiles on account confirmation.
func (r *ProfileRepository) GetByContactEmail(ctx context.Context, contactEmail string) (*model.Profile, error) {
	q := `SELECT` + profileColumns + profileFrom + `WHERE p.contact_email = $1 AND p.deleted_at IS NULL`
	return r.scanOne(ctx, q, contactEmail)
}

// Search applies a compiled predicate, newest publication first, and
// returns one page of rows plus the total match count.
func (r *ProfileRepository) Search(ctx context.Context, pred search.Node, limit, offset int) ([]*model.Profile, int, error) {
	where, args := search.CompileSQL(pred)

	var total int
	countQ := `SELECT COUNT(*)` + profileFrom + `WHERE ` + where
	if err := r.db.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	q := fmt.Sprintf(`SELECT%s%sWHERE %s ORDER BY p.published_at DESC LIMIT $%d OFFSET $%d`,
		profileColumns, profileFrom, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

// SearchUnclaimed returns up to limit unlinked profiles whose name contains
// every given term, for the claim-suggestion view.
func (r *ProfileRepository) SearchUnclaimed(ctx context.Context, terms []string, limit int) ([]*model.Profile, error) {
	if limit <= 0 {
		limit = 5
	}
	conj := []search.Node{
		search.Match{Field: search.FieldDeletedAt, Op: search.OpIsNull},
	}
	for _, t := range terms {
		conj = append(conj, search.Match{Field: search.FieldName, Op: search.OpIContains, Value: t})
	}
	where, args := search.CompileSQL(search.And{Kids: conj})

	q := fmt.Sprintf(`SELECT%s%sWHERE p.user_id IS NULL AND %s ORDER BY p.name LIMIT $%d`,
		profileColumns, profileFrom, where, len(args)+1)
	rows, err := r.db.Query(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Claim atomically links an unclaimed, non-deleted profile to a user.
// The guard and the mutation are one statement, so two racing claims cannot
// both succeed: the loser sees ErrAlreadyClaimed.
func (r *ProfileRepository) Claim(ctx context.Context, profileID, userID uuid.UUID) error {
	q := `
		UPDATE profiles SET user_id = $2, claimed_at = $3, updated_at = $3
		WHERE id = $1 AND user_id IS NULL AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, q, profileID, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either no such profile or somebody else got there first.
		if _, getErr := r.GetByID(ctx, profileID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadyClaimed
	}
	return nil
}

// LinkUser attaches a profile to a user without the unclaimed guard, used
// by the confirmation auto-link. Linking an already-linked profile is a
// silent no-op.
func (r *ProfileRepository) LinkUser(ctx context.Context, profileID, userID uuid.UUID) error {
	q := `
		UPDATE profiles SET user_id = $2, updated_at = $3
		WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`
	_, err := r.db.Exec(ctx, q, profileID, userID, time.Now().UTC())
	return err
}

// UnlinkAndSoftDelete detaches the user's profile and stamps deleted_at.
// The row stays in place so recommendations keep a valid target. No-op when
// the user has no linked profile; an already soft-deleted profile keeps its
// original deletion time.
func (r *ProfileRepository) UnlinkAndSoftDelete(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	q := `
		UPDATE profiles SET user_id = NULL, claimed_at = NULL,
			deleted_at = COALESCE(deleted_at, $2), updated_at = $2
		WHERE user_id = $1`
	_, err := r.db.Exec(ctx, q, userID, now)
	return err
}

// PositionHistogram groups non-deleted public profiles by position,
// descending by count.
func (r *ProfileRepository) PositionHistogram(ctx context.Context) ([]model.PositionCount, error) {
	q := `
		SELECT position, COUNT(*) AS n
		FROM profiles
		WHERE is_public = TRUE AND deleted_at IS NULL AND position <> ''
		GROUP BY position
		ORDER BY n DESC, position`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.PositionCount
	for rows.Next() {
		var pc model.PositionCount
		if err := rows.Scan(&pc.Position, &pc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}

// VisibilityCounts returns how many profiles are currently listed and how
// many are hidden (private or soft-deleted). Feeds the profiles gauge.
func (r *ProfileRepository) VisibilityCounts(ctx context.Context) (visible, hidden int, err error) {
	q := `
		SELECT
			COUNT(*) FILTER (WHERE is_public AND deleted_at IS NULL),
			COUNT(*) FILTER (WHERE NOT is_public OR deleted_at IS NOT NULL)
		FROM profiles`
	if err := r.db.QueryRow(ctx, q).Scan(&visible, &hidden); err != nil {
		return 0, 0, fmt.Errorf("count profiles: %w", err)
	}
	return visible, hidden, nil
}

// scanOne executes a query expected to return at most one profile row.
func (r *ProfileRepository) scanOne(ctx context.Context, q string, args ...any) (*model.Profile, error) {
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
	return r.scan(rows)
}

// scan reads one profile from a cursor. Column order matches profileColumns.
func (r *ProfileRepository) scan(rows pgx.Rows) (*model.Profile, error) {
	var p model.Profile
	err := rows.Scan(
		&p.ID, &p.Name, &p.ContactEmail, &p.Institution, &p.Position,
		&p.BrainStructure, &p.Modalities, &p.Methods, &p.Domains, &p.Keywords,
		&p.CountryID, &p.IsPublic, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.DeletedAt, &p.UserID, &p.ClaimedAt,
		&p.CountryName, &p.CountryUnderRepresented,
	)
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
