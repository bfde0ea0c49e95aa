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

type planService interface {
	List(ctx context.Context) ([]dto.PlanSummary, error)
	Get(ctx context.Context, id string) (*models.Plan, error)
	Create(ctx context.Context, req dto.PlanRequest) (*models.Plan, error)
	Update(ctx context.Context, id string, req dto.PlanRequest) (*models.Plan, error)
	Delete(ctx context.Context, id string) error
	Select(ctx context.Context, id string) (*models.Plan, error)
	Selected(ctx context.Context) (*models.Plan, error)
	ListSources(ctx context.Context) ([]dto.SyllabusSource, error)
	ImportSource(ctx context.Context, name string) (*models.Plan, error)
}

// PlanHandler exposes study plans and the syllabus sources they are built from.
type PlanHandler struct {
	service planService
}

// NewPlanHandler builds a new handler.
func NewPlanHandler(service planService) *PlanHandler {
	return &PlanHandler{service: service}
}

// List godoc
// @Summary List study plans
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Get godoc
// @Summary Get a study plan with its syllabus tree
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Selected godoc
// @Summary Get the selected study plan
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans/selected [get]
func (h *PlanHandler) Selected(c *gin.Context) {
	plan, err := h.service.Selected(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create a study plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.PlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Replace a study plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.PlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [put]
func (h *PlanHandler) Update(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a study plan
// @Tags Plans
// @Param id path string true "Plan ID"
// @Success 204
// @Router /plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Select godoc
// @Summary Mark a study plan as selected
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/select [post]
func (h *PlanHandler) Select(c *gin.Context) {
	plan, err := h.service.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Sources godoc
// @Summary List syllabus files available for import
// @Tags Syllabus
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /syllabus/sources [get]
func (h *PlanHandler) Sources(c *gin.Context) {
	items, err := h.service.ListSources(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ImportSource godoc
// @Summary Create a plan from a syllabus file
// @Tags Syllabus
// @Produce json
// @Param name path string true "Source file name"
// @Success 201 {object} response.Envelope
// @Router /syllabus/sources/{name}/import [post]
func (h *PlanHandler) ImportSource(c *gin.Context) {
	plan, err := h.service.ImportSource(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}
