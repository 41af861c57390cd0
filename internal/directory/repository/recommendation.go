package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurodir/neurodir/internal/directory/model"
)

// RecommendationRepository provides recommendation storage.
type RecommendationRepository struct {
	db *pgxpool.Pool
}

// NewRecommendationRepository creates a RecommendationRepository.
func NewRecommendationRepository(db *pgxpool.Pool) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create inserts a new recommendation. Sets ID and CreatedAt.
func (r *RecommendationRepository) Create(ctx context.Context, rec *model.Recommendation) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UTC()

	q := `
		INSERT INTO recommendations (
			id, profile_id, reviewer_user_id, reviewer_name, reviewer_email,
			reviewer_position, reviewer_institution, comment, seen_at_conference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q,
		rec.ID, rec.ProfileID, rec.ReviewerUserID, rec.ReviewerName, rec.ReviewerEmail,
		rec.ReviewerPosition, rec.ReviewerInstitution, rec.Comment, rec.SeenAtConference, rec.CreatedAt,
	)
	return err
}

// ListByProfile returns a profile's recommendations, newest first.
func (r *RecommendationRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Recommendation, error) {
	q := `
		SELECT id, profile_id, reviewer_user_id, reviewer_name, reviewer_email,
		       reviewer_position, reviewer_institution, comment, seen_at_conference, created_at
		FROM recommendations
		WHERE profile_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, q, profileID)
}

// ListLatest returns up to limit recommendations on non-deleted profiles,
// newest first — the pool the home-page sample draws from.
func (r *RecommendationRepository) ListLatest(ctx context.Context, limit int) ([]*model.Recommendation, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
		SELECT r.id, r.profile_id, r.reviewer_user_id, r.reviewer_name, r.reviewer_email,
		       r.reviewer_position, r.reviewer_institution, r.comment, r.seen_at_conference, r.created_at
		FROM recommendations r
		JOIN profiles p ON p.id = r.profile_id
		WHERE p.deleted_at IS NULL
		ORDER BY r.created_at DESC
		LIMIT $1`
	return r.list(ctx, q, limit)
}

func (r *RecommendationRepository) list(ctx context.Context, q string, args ...any) ([]*model.Recommendation, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.Recommendation
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *RecommendationRepository) scan(rows pgx.Rows) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := rows.Scan(
		&rec.ID, &rec.ProfileID, &rec.ReviewerUserID, &rec.ReviewerName, &rec.ReviewerEmail,
		&rec.ReviewerPosition, &rec.ReviewerInstitution, &rec.Comment, &rec.SeenAtConference, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan recommendation: %w", err)
	}
	return &rec, nil
}
