package handlers

import (
	"net/http"

	"pedestrian-forecast-api/models"
	"pedestrian-forecast-api/store"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	store *store.ObservationStore
}

func NewAdminHandler(s *store.ObservationStore) *AdminHandler {
	return &AdminHandler{store: s}
}

// Reindex serves POST /api/admin/reindex?street=, rebuilding the
// street's sorted-set index from a full key scan.
func (h *AdminHandler) Reindex(c *gin.Context) {
	street := c.Query("street")
	if street == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "street query parameter is required"})
		return
	}

	indexed, err := h.store.RebuildIndex(c.Request.Context(), street)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index rebuild failed", "indexed": indexed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"street": street, "indexed": indexed})
}

type BulkObservationsRequest struct {
	Street  string               `json:"street" binding:"required"`
	Records []models.Observation `json:"records" binding:"required"`
}

// BulkObservations serves POST /api/admin/observations/bulk for
// historical backfills. The whole batch goes through one pipelined
// upsert; re-posting the same batch is harmless.
func (h *AdminHandler) BulkObservations(c *gin.Context) {
	var req BulkObservationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, obs := range req.Records {
		if !validDate(obs.Date) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record dates must be YYYY-MM-DD"})
			return
		}
		if obs.Hour < 0 || obs.Hour > 23 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record hours must be 0-23"})
			return
		}
	}

	if err := h.store.BulkWrite(c.Request.Context(), req.Street, req.Records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk write failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"street": req.Street, "written": len(req.Records)})
}
