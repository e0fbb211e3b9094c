package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/services"
)

// AdminOpsHandler exposes operational admin endpoints: forcing an index
// resync and inspecting recent mint attempts.
type AdminOpsHandler struct {
	index    *services.AssetIndexService
	recorder *services.AttemptRecorder
}

// NewAdminOpsHandler creates the handler. Either dependency may be nil
// when the corresponding subsystem is disabled.
func NewAdminOpsHandler(index *services.AssetIndexService, recorder *services.AttemptRecorder) *AdminOpsHandler {
	return &AdminOpsHandler{index: index, recorder: recorder}
}

// ReindexHandler handles POST /api/admin/reindex.
func (h *AdminOpsHandler) ReindexHandler(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Asset index is disabled",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	if err := h.index.Reindex(ctx); err != nil {
		logrus.WithField("error", err.Error()).Error("Manual reindex failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AttemptsHandler handles GET /api/admin/attempts.
func (h *AdminOpsHandler) AttemptsHandler(c *gin.Context) {
	if h.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Attempt persistence is disabled",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.recorder.RecentAttempts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"attempts": records,
		"count":    len(records),
	})
}
