package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/dto"
	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type summaryServiceMock struct {
	summary *dto.RecoverySummary
	err     error
	called  bool
}

func (m *summaryServiceMock) ClassSummary(ctx context.Context, classID, academicYearID string) (*dto.RecoverySummary, error) {
	m.called = true
	return m.summary, m.err
}

func TestSummaryHandlerClassSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &summaryServiceMock{summary: &dto.RecoverySummary{
		ClassID:          "class-1",
		AcademicYearID:   "year-1",
		StudentCount:     24,
		TotalOutstanding: decimal.NewFromInt(380000),
		TierCounts:       map[models.SolvencyTier]int{models.SolvencyCritical: 3},
	}}
	handler := NewSummaryHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/class-1/summary?yearId=year-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.ClassSummary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "380000")
	assert.Contains(t, w.Body.String(), "CRITICAL")
}

func TestSummaryHandlerClassSummaryMissingYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &summaryServiceMock{}
	handler := NewSummaryHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/class-1/summary", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.ClassSummary(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.called)
}

func TestSummaryHandlerClassSummaryUnknownClass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSummaryHandler(&summaryServiceMock{err: appErrors.ErrNotFound})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/ghost/summary?yearId=year-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.ClassSummary(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
