package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/recouvrement-api/internal/models"
	"github.com/scolaris/recouvrement-api/internal/service"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
	"github.com/scolaris/recouvrement-api/pkg/response"
)

type feeManager interface {
	List(ctx context.Context, filter models.FeeDefinitionFilter) ([]models.FeeDefinition, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.FeeDefinition, error)
	Create(ctx context.Context, req service.CreateFeeRequest) (*models.FeeDefinition, error)
	Update(ctx context.Context, id string, req service.UpdateFeeRequest) (*models.FeeDefinition, error)
	Deactivate(ctx context.Context, id string) error
}

// FeeHandler handles fee definition endpoints.
type FeeHandler struct {
	fees feeManager
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees feeManager) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// List godoc
// @Summary List fee definitions
// @Tags Fees
// @Produce json
// @Param yearId query string false "Academic year ID"
// @Param type query string false "Fee type"
// @Param scope query string false "Scope type"
// @Param classId query string false "Class ID"
// @Param active query bool false "Active filter"
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	filter := models.FeeDefinitionFilter{
		AcademicYearID: c.Query("yearId"),
		FeeType:        models.FeeType(c.Query("type")),
		ScopeType:      models.FeeScopeType(c.Query("scope")),
		ClassID:        c.Query("classId"),
		Page:           queryInt(c, "page", 1),
		PageSize:       queryInt(c, "pageSize", 20),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}

	fees, pagination, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Get godoc
// @Summary Get a fee definition by ID
// @Tags Fees
// @Produce json
// @Param id path string true "Fee definition ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Create a fee definition
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeRequest true "Fee definition"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req service.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload"))
		return
	}

	fee, err := h.fees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update a fee definition
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee definition ID"
// @Param payload body service.UpdateFeeRequest true "Fee definition"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req service.UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload"))
		return
	}

	fee, err := h.fees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Deactivate godoc
// @Summary Deactivate a fee definition
// @Tags Fees
// @Produce json
// @Param id path string true "Fee definition ID"
// @Success 204
// @Security BearerAuth
// @Router /fees/{id} [delete]
func (h *FeeHandler) Deactivate(c *gin.Context) {
	if err := h.fees.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
