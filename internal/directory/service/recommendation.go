package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/repository"
)

// sampleSize is how many recommendations the home-page sample shows.
const sampleSize = 6

// samplePool is how many recent recommendations the sample draws from.
const samplePool = 100

// ErrSelfRecommendation is returned when someone recommends their own
// profile, either via their linked account or their contact email.
var ErrSelfRecommendation = errors.New("you cannot recommend your own profile")

var recommendationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "directory_recommendations_total",
		Help: "Total number of recommendations submitted.",
	},
)

// recommendationStore is satisfied by *repository.RecommendationRepository.
type recommendationStore interface {
	Create(ctx context.Context, rec *model.Recommendation) error
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Recommendation, error)
	ListLatest(ctx context.Context, limit int) ([]*model.Recommendation, error)
}

// profileGetter is the slice of profile storage recommendations need.
type profileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}

// RecommendationService handles submitting and sampling recommendations.
type RecommendationService struct {
	recs     recommendationStore
	profiles profileGetter
	logger   *zap.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(recs recommendationStore, profiles profileGetter, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{recs: recs, profiles: profiles, logger: logger}
}

// RecommendationInput is the submitted form for a new recommendation.
type RecommendationInput struct {
	ReviewerName        string
	ReviewerEmail       string
	ReviewerPosition    string
	ReviewerInstitution string
	Comment             string
	SeenAtConference    bool
}

func (in *RecommendationInput) validate() error {
	if in.ReviewerName == "" {
		return fmt.Errorf("reviewer name is required")
	}
	if in.Comment == "" {
		return fmt.Errorf("comment is required")
	}
	return nil
}

// Create submits a recommendation for a visible profile. reviewerUserID is
// non-nil when the submitter is logged in; their linked profile may not be
// the target. Anonymous submitters are blocked only by the contact-email
// check.
func (s *RecommendationService) Create(ctx context.Context, profileID uuid.UUID, in RecommendationInput, reviewerUserID *uuid.UUID) (*model.Recommendation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !p.Visible() {
		return nil, repository.ErrNotFound
	}

	if reviewerUserID != nil {
		if own, err := s.profiles.GetByUserID(ctx, *reviewerUserID); err == nil && own.ID == profileID {
			return nil, ErrSelfRecommendation
		}
	}
	if in.ReviewerEmail != "" && in.ReviewerEmail == p.ContactEmail {
		return nil, ErrSelfRecommendation
	}

	rec := &model.Recommendation{
		ProfileID:           profileID,
		ReviewerUserID:      reviewerUserID,
		ReviewerName:        in.ReviewerName,
		ReviewerEmail:       in.ReviewerEmail,
		ReviewerPosition:    in.ReviewerPosition,
		ReviewerInstitution: in.ReviewerInstitution,
		Comment:             in.Comment,
		SeenAtConference:    in.SeenAtConference,
	}
	if err := s.recs.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recommendation: %w", err)
	}

	recommendationsTotal.Inc()
	s.logger.Info("recommendation submitted",
		zap.String("profile_id", profileID.String()),
		zap.Bool("authenticated", reviewerUserID != nil))
	return rec, nil
}

// ListForProfile returns a profile's recommendations, newest first.
func (s *RecommendationService) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Recommendation, error) {
	recs, err := s.recs.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	if recs == nil {
		recs = []*model.Recommendation{}
	}
	return recs, nil
}

// Sample returns up to six recommendations drawn at random from the
// hundred most recent ones on non-deleted profiles.
func (s *RecommendationService) Sample(ctx context.Context) ([]*model.Recommendation, error) {
	pool, err := s.recs.ListLatest(ctx, samplePool)
	if err != nil {
		return nil, fmt.Errorf("sample recommendations: %w", err)
	}
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > sampleSize {
		pool = pool[:sampleSize]
	}
	if pool == nil {
		pool = []*model.Recommendation{}
	}
	return pool, nil
}
