package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurodir/neurodir/internal/directory/model"
)

// ErrCountryNotFound is returned when a country lookup finds no record.
var ErrCountryNotFound = errors.New("country not found")

// CountryRepository provides read access to the seeded countries table.
type CountryRepository struct {
	db *pgxpool.Pool
}

// NewCountryRepository creates a CountryRepository.
func NewCountryRepository(db *pgxpool.Pool) *CountryRepository {
	return &CountryRepository{db: db}
}

// GetByCode retrieves a country by its ISO code.
func (r *CountryRepository) GetByCode(ctx context.Context, code string) (*model.Country, error) {
	q := `SELECT id, code, name, is_under_represented FROM countries WHERE code = $1`
	var c model.Country
	err := r.db.QueryRow(ctx, q, code).Scan(&c.ID, &c.Code, &c.Name, &c.IsUnderRepresented)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCountryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a country by UUID.
func (r *CountryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Country, error) {
	q := `SELECT id, code, name, is_under_represented FROM countries WHERE id = $1`
	var c model.Country
	err := r.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Code, &c.Name, &c.IsUnderRepresented)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCountryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListRepresented returns countries with at least one non-deleted public
// profile, alphabetically — the payload of the read-only countries endpoint.
func (r *CountryRepository) ListRepresented(ctx context.Context) ([]model.CountrySummary, error) {
	q := `
		SELECT c.code, c.name
		FROM countries c
		JOIN profiles p ON p.country_id = c.id
		WHERE p.is_public = TRUE AND p.deleted_at IS NULL
		GROUP BY c.code, c.name
		HAVING COUNT(p.id) > 0
		ORDER BY c.name`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CountrySummary
	for rows.Next() {
		var cs model.CountrySummary
		if err := rows.Scan(&cs.Code, &cs.Name); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Seed inserts the given countries, updating on conflict so re-running the
// seeder is safe.
func (r *CountryRepository) Seed(ctx context.Context, countries []model.Country) error {
	q := `
		INSERT INTO countries (id, code, name, is_under_represented)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, is_under_represented = EXCLUDED.is_under_represented`
	for _, c := range countries {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if _, err := r.db.Exec(ctx, q, c.ID, c.Code, c.Name, c.IsUnderRepresented); err != nil {
			return err
		}
	}
	return nil
}
