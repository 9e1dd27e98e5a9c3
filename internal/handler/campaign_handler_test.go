package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/middleware"
	"github.com/scolaris/recouvrement-api/internal/models"
	"github.com/scolaris/recouvrement-api/internal/service"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type campaignServiceMock struct {
	detail     *service.CampaignDetail
	createErr  error
	markErr    error
	progress   *models.CampaignProgress
	lastCreate service.CreateCampaignRequest
	marked     []string
}

func (m *campaignServiceMock) CreateCampaign(ctx context.Context, req service.CreateCampaignRequest) (*service.CampaignDetail, error) {
	m.lastCreate = req
	return m.detail, m.createErr
}

func (m *campaignServiceMock) Get(ctx context.Context, id string) (*service.CampaignDetail, error) {
	return m.detail, m.createErr
}

func (m *campaignServiceMock) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, *models.Pagination, error) {
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *campaignServiceMock) Recipients(ctx context.Context, campaignID string) ([]models.CampaignRecipient, error) {
	return nil, nil
}

func (m *campaignServiceMock) MarkSent(ctx context.Context, campaignID, studentID string) error {
	m.marked = append(m.marked, studentID)
	return m.markErr
}

func (m *campaignServiceMock) MarkFailed(ctx context.Context, campaignID, studentID string) error {
	m.marked = append(m.marked, studentID)
	return m.markErr
}

func (m *campaignServiceMock) Progress(ctx context.Context, campaignID string) (*models.CampaignProgress, error) {
	return m.progress, m.createErr
}

func TestCampaignHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{detail: &service.CampaignDetail{
		Campaign:       models.Campaign{ID: "camp-1", Channel: models.ChannelSMS},
		RecipientCount: 2,
	}}
	handler := NewCampaignHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.CreateCampaignRequest{
		Channel:             "SMS",
		Subject:             "Rappel",
		Template:            "Bonjour {parent-name}",
		RecipientStudentIDs: []string{"stu-1", "stu-2"},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleBursar})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", mockSvc.lastCreate.CreatedBy)
}

func TestCampaignHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCampaignHandler(&campaignServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/campaigns", bytes.NewBufferString(`{"channel":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCampaignHandlerCreateEmptyRecipients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{createErr: appErrors.ErrEmptyRecipientList}
	handler := NewCampaignHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.CreateCampaignRequest{
		Channel:  "SMS",
		Subject:  "Rappel",
		Template: "Bonjour",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_RECIPIENT_LIST")
}

func TestCampaignHandlerMarkSent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{}
	handler := NewCampaignHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/campaigns/camp-1/recipients/stu-1/sent", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}, {Key: "studentId", Value: "stu-1"}}

	handler.MarkSent(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"stu-1"}, mockSvc.marked)
}

func TestCampaignHandlerMarkFailedConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{markErr: appErrors.ErrInvalidStateTransition}
	handler := NewCampaignHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/campaigns/camp-1/recipients/stu-1/failed", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}, {Key: "studentId", Value: "stu-1"}}

	handler.MarkFailed(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCampaignHandlerProgress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{progress: &models.CampaignProgress{
		CampaignID: "camp-1", Total: 2, Sent: 1, Pending: 1, SentRatio: 0.5,
	}}
	handler := NewCampaignHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/campaigns/camp-1/progress", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Progress(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sent_ratio")
}
