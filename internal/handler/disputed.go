package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"conflictwatch/internal/export"
	"conflictwatch/internal/repository"
)

// DisputedAreaHandler exports the static contested-zone polygons. The data is
// slow-changing reference geometry maintained outside the ingestion pipeline.
type DisputedAreaHandler struct {
	Repo   repository.TweetRepository
	Logger *zap.Logger
}

func (h *DisputedAreaHandler) Register(r *gin.Engine) {
	r.GET("/api/twitter_conflicts/disputed_area.geojson", h.disputedAreas)
}

func (h *DisputedAreaHandler) disputedAreas(c *gin.Context) {
	rows, err := h.Repo.ListDisputedAreas(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("query failed", zap.String("op", "list disputed areas"), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "list disputed areas failed")
		return
	}
	fc, err := export.DisputedAreaCollection(rows)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("disputed area geometry decode failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "disputed area export failed")
		return
	}
	c.JSON(http.StatusOK, fc)
}
