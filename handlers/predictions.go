package handlers

import (
	"net/http"
	"strconv"
	"time"

	"pedestrian-forecast-api/store"

	"github.com/gin-gonic/gin"
)

const (
	defaultForecastHours = 24
	maxForecastHours     = 192
)

type PredictionHandler struct {
	store *store.ObservationStore
	now   func() time.Time
}

func NewPredictionHandler(s *store.ObservationStore) *PredictionHandler {
	return &PredictionHandler{store: s, now: time.Now}
}

// Get serves GET /api/predictions?street=&hours=.
func (h *PredictionHandler) Get(c *gin.Context) {
	street := c.Query("street")
	if street == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "street query parameter is required"})
		return
	}

	hours := defaultForecastHours
	if hoursStr := c.Query("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}
	if hours > maxForecastHours {
		hours = maxForecastHours
	}

	preds, err := h.store.ReadPredictions(c.Request.Context(), street, h.now().UTC(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"street": street, "count": len(preds), "data": preds})
}
