package handlers

import (
	"net/http"

	"pedestrian-forecast-api/store"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	source *store.CalendarSource
}

func NewCalendarHandler(source *store.CalendarSource) *CalendarHandler {
	return &CalendarHandler{source: source}
}

// Get serves GET /api/calendar/:date, bundling the holiday, school
// holiday and lecture info for one day.
func (h *CalendarHandler) Get(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	ctx := c.Request.Context()

	holiday, err := h.source.HolidayInfo(ctx, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read calendar"})
		return
	}
	schoolPeriod, err := h.source.SchoolHolidayPeriod(ctx, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read calendar"})
		return
	}
	isSchool, err := h.source.IsSchoolHoliday(ctx, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read calendar"})
		return
	}
	lecture, err := h.source.LectureInfo(ctx, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read calendar"})
		return
	}

	resp := gin.H{
		"date":              date,
		"is_holiday":        holiday != nil && holiday.IsHoliday,
		"is_nationwide":     holiday != nil && holiday.IsNationwide,
		"is_school_holiday": isSchool,
		"is_lecture_period": lecture != nil && (lecture.JMU || lecture.THWS),
	}
	if schoolPeriod != nil {
		resp["school_holiday"] = schoolPeriod
	}

	c.JSON(http.StatusOK, resp)
}
