package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/recouvrement-api/internal/models"
	"github.com/scolaris/recouvrement-api/internal/service"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
	"github.com/scolaris/recouvrement-api/pkg/response"
)

type parameterManager interface {
	List(ctx context.Context) ([]models.Parameter, error)
	Update(ctx context.Context, key string, req service.UpdateParameterRequest) (*models.Parameter, error)
}

// ParameterHandler handles recovery parameter endpoints.
type ParameterHandler struct {
	parameters parameterManager
}

// NewParameterHandler constructs ParameterHandler.
func NewParameterHandler(parameters parameterManager) *ParameterHandler {
	return &ParameterHandler{parameters: parameters}
}

// List godoc
// @Summary List recovery parameters with effective values
// @Tags Parameters
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /parameters [get]
func (h *ParameterHandler) List(c *gin.Context) {
	parameters, err := h.parameters.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parameters, nil)
}

// Update godoc
// @Summary Update a recovery parameter
// @Tags Parameters
// @Accept json
// @Produce json
// @Param key path string true "Parameter key"
// @Param payload body service.UpdateParameterRequest true "New value"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /parameters/{key} [put]
func (h *ParameterHandler) Update(c *gin.Context) {
	var req service.UpdateParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.UpdatedBy = claims.UserID
	}

	parameter, err := h.parameters.Update(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parameter, nil)
}
