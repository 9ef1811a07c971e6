package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pedestrian-forecast-api/services"
	"pedestrian-forecast-api/store"

	"github.com/gin-gonic/gin"
)

type ObservationHandler struct {
	store *store.ObservationStore
	cache *services.CacheService
}

func NewObservationHandler(s *store.ObservationStore, cache *services.CacheService) *ObservationHandler {
	return &ObservationHandler{store: s, cache: cache}
}

// GetRange serves GET /api/pedestrians/:street?start_date=&end_date=.
func (h *ObservationHandler) GetRange(c *gin.Context) {
	street := c.Param("street")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	if !validDate(startDate) || !validDate(endDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date must be YYYY-MM-DD"})
		return
	}
	if startDate > endDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must not be after end_date"})
		return
	}

	cacheKey := fmt.Sprintf("api:range:%s:%s:%s", street, startDate, endDate)
	var cached gin.H
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached["data"] != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	observations, err := h.store.ReadRange(c.Request.Context(), street, startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read observations"})
		return
	}

	resp := gin.H{"street": street, "count": len(observations), "data": observations}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// GetOne serves GET /api/pedestrians/:street/:date/:hour.
func (h *ObservationHandler) GetOne(c *gin.Context) {
	street := c.Param("street")
	date := c.Param("date")

	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil || hour < 0 || hour > 23 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hour must be 0-23"})
		return
	}

	obs, err := h.store.ReadOne(c.Request.Context(), street, date, hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read observation"})
		return
	}
	if obs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no observation for this hour"})
		return
	}

	c.JSON(http.StatusOK, obs)
}

// GetLatest serves GET /api/pedestrians/latest/:street.
func (h *ObservationHandler) GetLatest(c *gin.Context) {
	street := c.Param("street")

	latest, ok, err := h.store.LatestTimestamp(c.Request.Context(), street)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read latest timestamp"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for this street"})
		return
	}

	obs, err := h.store.ReadOne(c.Request.Context(), street, latest.Format(dateLayout), latest.Hour())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read observation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"street":    street,
		"timestamp": latest.Format(time.RFC3339),
		"data":      obs,
	})
}
