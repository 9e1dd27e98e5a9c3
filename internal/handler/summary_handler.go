package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/recouvrement-api/internal/dto"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
	"github.com/scolaris/recouvrement-api/pkg/response"
)

type summaryBuilder interface {
	ClassSummary(ctx context.Context, classID, academicYearID string) (*dto.RecoverySummary, error)
}

// SummaryHandler handles recovery summary endpoints.
type SummaryHandler struct {
	summaries summaryBuilder
}

// NewSummaryHandler constructs SummaryHandler.
func NewSummaryHandler(summaries summaryBuilder) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// ClassSummary godoc
// @Summary Aggregate recovery summary for a class
// @Tags Summaries
// @Produce json
// @Param id path string true "Class ID"
// @Param yearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/summary [get]
func (h *SummaryHandler) ClassSummary(c *gin.Context) {
	yearID := c.Query("yearId")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearId is required"))
		return
	}

	summary, err := h.summaries.ClassSummary(c.Request.Context(), c.Param("id"), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
