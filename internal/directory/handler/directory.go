// Package handler exposes the directory over a JSON HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/search"
	"github.com/neurodir/neurodir/internal/directory/service"
)

// directorySvc is the subset of service.DirectoryService used by
// DirectoryHandler.
type directorySvc interface {
	Search(ctx context.Context, query string, filters search.Filters, page int) (*service.SearchResult, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

// recommendationLister is the subset of service.RecommendationService used
// for profile detail enrichment.
type recommendationLister interface {
	ListForProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Recommendation, error)
}

// DirectoryHandler handles the public search and detail routes.
type DirectoryHandler struct {
	dir    directorySvc
	recs   recommendationLister
	logger *zap.Logger
}

// NewDirectoryHandler creates a DirectoryHandler.
func NewDirectoryHandler(dir directorySvc, recs recommendationLister, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{dir: dir, recs: recs, logger: logger}
}

// Register mounts the directory routes on the provided router group.
func (h *DirectoryHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/profiles", h.List)
	rg.GET("/profiles/:id", h.Get)
}

// List handles GET /profiles — the faceted directory search.
//
// Query parameters: s (free text), ur (under-represented countries only),
// senior (senior positions only), page (1-indexed).
func (h *DirectoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	filters := search.Filters{
		UnderRepresentedOnly: boolQuery(c, "ur"),
		SeniorOnly:           boolQuery(c, "senior"),
	}

	res, err := h.dir.Search(c.Request.Context(), c.Query("s"), filters, page)
	if err != nil {
		h.logger.Error("search profiles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles":    res.Profiles,
		"total":       res.Total,
		"page":        res.Page,
		"total_pages": res.TotalPages,
	})
}

// Get handles GET /profiles/:id — public profile detail with its
// recommendations.
func (h *DirectoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	ctx := c.Request.Context()

	p, err := h.dir.GetProfile(ctx, id)
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	recs, err := h.recs.ListForProfile(ctx, id)
	if err != nil {
		h.logger.Error("list profile recommendations", zap.Error(err))
		recs = []*model.Recommendation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":         p,
		"recommendations": recs,
	})
}

// boolQuery parses a query flag; "1" and "true" count as set.
func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}
