package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/middleware"
	"github.com/scolaris/recouvrement-api/internal/models"
	"github.com/scolaris/recouvrement-api/internal/service"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type paymentServiceMock struct {
	payment    *models.Payment
	err        error
	lastRecord service.RecordPaymentRequest
	lastFilter models.PaymentFilter
}

func (m *paymentServiceMock) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, &models.Pagination{Page: 1, PageSize: 50}, m.err
}

func (m *paymentServiceMock) Record(ctx context.Context, req service.RecordPaymentRequest) (*models.Payment, error) {
	m.lastRecord = req
	return m.payment, m.err
}

func (m *paymentServiceMock) Complete(ctx context.Context, id string) (*models.Payment, error) {
	return m.payment, m.err
}

func (m *paymentServiceMock) Cancel(ctx context.Context, id string) (*models.Payment, error) {
	return m.payment, m.err
}

func TestPaymentHandlerRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paymentServiceMock{payment: &models.Payment{
		ID:     "pay-1",
		Amount: decimal.NewFromInt(30000),
		Status: models.PaymentStatusComplete,
	}}
	handler := NewPaymentHandler(mockSvc)

	payload, _ := json.Marshal(service.RecordPaymentRequest{
		StudentID: "stu-1",
		FeeID:     "fee-1",
		Amount:    "30000",
		Mode:      "CASH",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/payments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleBursar})

	handler.Record(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", mockSvc.lastRecord.RecordedBy)
}

func TestPaymentHandlerRecordInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(&paymentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Record(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paymentServiceMock{}
	handler := NewPaymentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/payments?studentId=stu-1&status=PARTIAL&status=COMPLETE&page=2", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastFilter.StudentID)
	assert.Len(t, mockSvc.lastFilter.Statuses, 2)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
}

func TestPaymentHandlerListBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(&paymentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/payments?from=yesterday", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlerCompleteConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paymentServiceMock{err: appErrors.ErrInvalidStateTransition}
	handler := NewPaymentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/payments/pay-1/complete", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}

	handler.Complete(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
