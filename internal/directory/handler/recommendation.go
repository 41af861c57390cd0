package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/service"
	"github.com/neurodir/neurodir/internal/identity"
)

// recommendationSvc is the subset of service.RecommendationService used by
// RecommendationHandler.
type recommendationSvc interface {
	Create(ctx context.Context, profileID uuid.UUID, in service.RecommendationInput, reviewerUserID *uuid.UUID) (*model.Recommendation, error)
	Sample(ctx context.Context) ([]*model.Recommendation, error)
}

// RecommendationHandler handles recommendation submission and the home
// page sample.
type RecommendationHandler struct {
	recs     recommendationSvc
	sessions *identity.SessionIssuer
	logger   *zap.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(recs recommendationSvc, sessions *identity.SessionIssuer, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{recs: recs, sessions: sessions, logger: logger}
}

// Register mounts the recommendation routes on the provided router group.
// Submission is open to anonymous visitors; a session, when present, is
// recorded as the reviewer.
func (h *RecommendationHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/profiles/:id/recommendations", identity.OptionalSession(h.sessions), h.Create)
	rg.GET("/recommendations/sample", h.Sample)
}

type createRecommendationRequest struct {
	ReviewerName        string `json:"reviewer_name"        binding:"required"`
	ReviewerEmail       string `json:"reviewer_email"`
	ReviewerPosition    string `json:"reviewer_position"`
	ReviewerInstitution string `json:"reviewer_institution"`
	Comment             string `json:"comment"              binding:"required"`
	SeenAtConference    bool   `json:"seen_at_conference"`
}

// Create handles POST /profiles/:id/recommendations.
func (h *RecommendationHandler) Create(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var req createRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var reviewerUserID *uuid.UUID
	if claims := identity.SessionClaimsFromCtx(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			reviewerUserID = &uid
		}
	}

	rec, err := h.recs.Create(c.Request.Context(), profileID, service.RecommendationInput{
		ReviewerName:        req.ReviewerName,
		ReviewerEmail:       req.ReviewerEmail,
		ReviewerPosition:    req.ReviewerPosition,
		ReviewerInstitution: req.ReviewerInstitution,
		Comment:             req.Comment,
		SeenAtConference:    req.SeenAtConference,
	}, reviewerUserID)
	if err != nil {
		switch {
		case service.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		case errors.Is(err, service.ErrSelfRecommendation):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			h.logger.Error("create recommendation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit recommendation"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recommendation": rec})
}

// Sample handles GET /recommendations/sample — up to six random recent
// recommendations for the home page.
func (h *RecommendationHandler) Sample(c *gin.Context) {
	recs, err := h.recs.Sample(c.Request.Context())
	if err != nil {
		h.logger.Error("sample recommendations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sample recommendations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}
