package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/response"
)

type statisticsService interface {
	PlanStatistics(ctx context.Context, planID string) (*dto.PlanStatistics, error)
}

type reviewService interface {
	Schedule(ctx context.Context, date string, days int) (*dto.ReviewSchedule, error)
}

// StatisticsHandler exposes plan progress and the review schedule.
type StatisticsHandler struct {
	statistics statisticsService
	reviews    reviewService
}

// NewStatisticsHandler builds a new handler.
func NewStatisticsHandler(statistics statisticsService, reviews reviewService) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics, reviews: reviews}
}

// Statistics godoc
// @Summary Completion and performance of a plan
// @Tags Statistics
// @Produce json
// @Param planId query string false "Plan ID, selected plan when omitted"
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *StatisticsHandler) Statistics(c *gin.Context) {
	stats, err := h.statistics.PlanStatistics(c.Request.Context(), c.Query("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Reviews godoc
// @Summary Reviews due, overdue and upcoming
// @Tags Statistics
// @Produce json
// @Param date query string false "Reference day (YYYY-MM-DD)"
// @Param days query int false "Upcoming window in days"
// @Success 200 {object} response.Envelope
// @Router /reviews [get]
func (h *StatisticsHandler) Reviews(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, appErrors.WithField("days", "must be a non-negative integer"))
			return
		}
		days = n
	}
	schedule, err := h.reviews.Schedule(c.Request.Context(), c.Query("date"), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
