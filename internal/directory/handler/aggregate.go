package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
)

// aggregateSvc is the subset of service.DirectoryService used by
// AggregateHandler.
type aggregateSvc interface {
	Countries(ctx context.Context) ([]model.CountrySummary, error)
	Positions(ctx context.Context) ([]model.PositionCount, error)
}

// AggregateHandler serves the read-only aggregate routes backing the
// frontend filter widgets.
type AggregateHandler struct {
	dir    aggregateSvc
	logger *zap.Logger
}

// NewAggregateHandler creates an AggregateHandler.
func NewAggregateHandler(dir aggregateSvc, logger *zap.Logger) *AggregateHandler {
	return &AggregateHandler{dir: dir, logger: logger}
}

// Register mounts the aggregate routes on the provided router group.
func (h *AggregateHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/countries", h.Countries)
	rg.GET("/positions", h.Positions)
}

// Countries handles GET /countries — countries with at least one visible
// profile, alphabetically.
func (h *AggregateHandler) Countries(c *gin.Context) {
	out, err := h.dir.Countries(c.Request.Context())
	if err != nil {
		h.logger.Error("list countries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list countries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": out})
}

// Positions handles GET /positions — the position histogram over visible
// profiles, descending by count.
func (h *AggregateHandler) Positions(c *gin.Context) {
	out, err := h.dir.Positions(c.Request.Context())
	if err != nil {
		h.logger.Error("position histogram", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list positions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}
