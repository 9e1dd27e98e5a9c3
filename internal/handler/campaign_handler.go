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

type campaignManager interface {
	CreateCampaign(ctx context.Context, req service.CreateCampaignRequest) (*service.CampaignDetail, error)
	Get(ctx context.Context, id string) (*service.CampaignDetail, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, *models.Pagination, error)
	Recipients(ctx context.Context, campaignID string) ([]models.CampaignRecipient, error)
	MarkSent(ctx context.Context, campaignID, studentID string) error
	MarkFailed(ctx context.Context, campaignID, studentID string) error
	Progress(ctx context.Context, campaignID string) (*models.CampaignProgress, error)
}

// CampaignHandler handles notification campaign endpoints.
type CampaignHandler struct {
	campaigns campaignManager
	metrics   *service.MetricsService
}

// NewCampaignHandler constructs CampaignHandler.
func NewCampaignHandler(campaigns campaignManager, metrics *service.MetricsService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, metrics: metrics}
}

// Create godoc
// @Summary Create a notification campaign with its recipient list
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body service.CreateCampaignRequest true "Campaign"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.CreatedBy = claims.UserID
	}

	detail, err := h.campaigns.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveCampaignSize(detail.RecipientCount)
	}
	response.Created(c, detail)
}

// Get godoc
// @Summary Get a campaign by ID
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	detail, err := h.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param channel query string false "Channel"
// @Param group query string false "Group name"
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	filter := models.CampaignFilter{
		Channel:   models.CampaignChannel(c.Query("channel")),
		GroupName: c.Query("group"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
	}

	campaigns, pagination, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, pagination)
}

// Recipients godoc
// @Summary List the recipients of a campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns/{id}/recipients [get]
func (h *CampaignHandler) Recipients(c *gin.Context) {
	recipients, err := h.campaigns.Recipients(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recipients, nil)
}

// MarkSent godoc
// @Summary Mark a recipient's delivery as sent
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Security BearerAuth
// @Router /campaigns/{id}/recipients/{studentId}/sent [post]
func (h *CampaignHandler) MarkSent(c *gin.Context) {
	if err := h.campaigns.MarkSent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkFailed godoc
// @Summary Mark a recipient's delivery as failed
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Security BearerAuth
// @Router /campaigns/{id}/recipients/{studentId}/failed [post]
func (h *CampaignHandler) MarkFailed(c *gin.Context) {
	if err := h.campaigns.MarkFailed(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Progress godoc
// @Summary Report delivery progress of a campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns/{id}/progress [get]
func (h *CampaignHandler) Progress(c *gin.Context) {
	progress, err := h.campaigns.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
