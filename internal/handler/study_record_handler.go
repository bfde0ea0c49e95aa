package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/response"
)

type studyRecordService interface {
	Get(ctx context.Context, id string) (*models.StudyRecord, error)
	Create(ctx context.Context, req dto.StudyRecordRequest) (*models.StudyRecord, error)
	Update(ctx context.Context, id string, req dto.StudyRecordRequest) (*models.StudyRecord, error)
	Delete(ctx context.Context, id string) error
	Filter(ctx context.Context, q dto.StudyRecordQuery) ([]models.StudyRecord, error)
	History(ctx context.Context, q dto.StudyRecordQuery) (*dto.History, error)
	ToggleCompletion(ctx context.Context, req dto.ToggleCompletionRequest) (*dto.ToggleCompletionResult, error)
}

// StudyRecordHandler exposes the study history.
type StudyRecordHandler struct {
	service studyRecordService
}

// NewStudyRecordHandler builds a new handler.
func NewStudyRecordHandler(service studyRecordService) *StudyRecordHandler {
	return &StudyRecordHandler{service: service}
}

// List godoc
// @Summary List study records matching a filter
// @Tags StudyRecords
// @Produce json
// @Param planId query string false "Plan ID"
// @Param subject query string false "Subject"
// @Param category query string false "Category"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Param minDuration query int false "Minimum duration in minutes"
// @Param maxDuration query int false "Maximum duration in minutes"
// @Param minPerformance query int false "Minimum performance percentage"
// @Param maxPerformance query int false "Maximum performance percentage"
// @Success 200 {object} response.Envelope
// @Router /study-records [get]
func (h *StudyRecordHandler) List(c *gin.Context) {
	q, ok := bindRecordQuery(c)
	if !ok {
		return
	}
	items, err := h.service.Filter(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// History godoc
// @Summary Filtered study history grouped by day
// @Tags StudyRecords
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /study-records/history [get]
func (h *StudyRecordHandler) History(c *gin.Context) {
	q, ok := bindRecordQuery(c)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Get godoc
// @Summary Get a study record
// @Tags StudyRecords
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /study-records/{id} [get]
func (h *StudyRecordHandler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Create godoc
// @Summary Record a study session
// @Tags StudyRecords
// @Accept json
// @Produce json
// @Param payload body dto.StudyRecordRequest true "Study record"
// @Success 201 {object} response.Envelope
// @Router /study-records [post]
func (h *StudyRecordHandler) Create(c *gin.Context) {
	var req dto.StudyRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study record payload"))
		return
	}
	rec, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// Update godoc
// @Summary Replace a study record
// @Tags StudyRecords
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.StudyRecordRequest true "Study record"
// @Success 200 {object} response.Envelope
// @Router /study-records/{id} [put]
func (h *StudyRecordHandler) Update(c *gin.Context) {
	var req dto.StudyRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study record payload"))
		return
	}
	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Delete godoc
// @Summary Delete a study record
// @Tags StudyRecords
// @Param id path string true "Record ID"
// @Success 204
// @Router /study-records/{id} [delete]
func (h *StudyRecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleCompletion godoc
// @Summary Flip the finished flag of a syllabus topic
// @Tags StudyRecords
// @Accept json
// @Produce json
// @Param payload body dto.ToggleCompletionRequest true "Topic reference"
// @Success 200 {object} response.Envelope
// @Router /study-records/toggle-completion [post]
func (h *StudyRecordHandler) ToggleCompletion(c *gin.Context) {
	var req dto.ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	result, err := h.service.ToggleCompletion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

func bindRecordQuery(c *gin.Context) (dto.StudyRecordQuery, bool) {
	var q dto.StudyRecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter"))
		return q, false
	}
	return q, true
}
