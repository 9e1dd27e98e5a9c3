package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type mockPaymentRepo struct {
	items    map[string]*models.Payment
	statuses []models.PaymentStatus
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if payment, ok := m.items[id]; ok {
		cp := *payment
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.items == nil {
		m.items = make(map[string]*models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "pay-generated"
	}
	cp := *payment
	m.items[payment.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	m.statuses = append(m.statuses, status)
	if payment, ok := m.items[id]; ok {
		payment.Status = status
	}
	return nil
}

type mockFeeFinder struct {
	fees map[string]*models.FeeDefinition
}

func (m *mockFeeFinder) FindByID(ctx context.Context, id string) (*models.FeeDefinition, error) {
	if fee, ok := m.fees[id]; ok {
		return fee, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentFinder struct {
	students map[string]*models.Student
}

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func paymentServiceFixture() (*PaymentService, *mockPaymentRepo, *mockCacheInvalidator) {
	repo := &mockPaymentRepo{}
	fees := &mockFeeFinder{fees: map[string]*models.FeeDefinition{"fee-1": {ID: "fee-1"}}}
	students := &mockStudentFinder{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	cache := &mockCacheInvalidator{}
	return NewPaymentService(repo, fees, students, cache, nil, nil), repo, cache
}

func validPaymentRequest() RecordPaymentRequest {
	return RecordPaymentRequest{
		StudentID:  "stu-1",
		FeeID:      "fee-1",
		Amount:     "30000",
		Mode:       "CASH",
		RecordedBy: "user-1",
	}
}

func TestPaymentServiceRecord(t *testing.T) {
	service, repo, cache := paymentServiceFixture()

	payment, err := service.Record(context.Background(), validPaymentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(30000)))
	assert.Len(t, repo.items, 1)
	assert.Equal(t, []string{"summary:*"}, cache.patterns)
}

func TestPaymentServiceRecordPartial(t *testing.T) {
	service, _, _ := paymentServiceFixture()

	req := validPaymentRequest()
	req.Partial = true
	payment, err := service.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, payment.Status)
}

func TestPaymentServiceRecordZeroAmount(t *testing.T) {
	service, _, _ := paymentServiceFixture()

	req := validPaymentRequest()
	req.Amount = "0"
	_, err := service.Record(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPaymentServiceRecordUnknownFee(t *testing.T) {
	service, _, _ := paymentServiceFixture()

	req := validPaymentRequest()
	req.FeeID = "fee-ghost"
	_, err := service.Record(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPaymentServiceRecordUnknownStudent(t *testing.T) {
	service, _, _ := paymentServiceFixture()

	req := validPaymentRequest()
	req.StudentID = "stu-ghost"
	_, err := service.Record(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPaymentServiceRecordInvalidMode(t *testing.T) {
	service, _, _ := paymentServiceFixture()

	req := validPaymentRequest()
	req.Mode = "BARTER"
	_, err := service.Record(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPaymentServiceComplete(t *testing.T) {
	service, repo, _ := paymentServiceFixture()
	repo.items = map[string]*models.Payment{
		"pay-1": {ID: "pay-1", Status: models.PaymentStatusPartial},
	}

	payment, err := service.Complete(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, payment.Status)
	assert.Equal(t, []models.PaymentStatus{models.PaymentStatusComplete}, repo.statuses)
}

func TestPaymentServiceCompleteIdempotent(t *testing.T) {
	service, repo, _ := paymentServiceFixture()
	repo.items = map[string]*models.Payment{
		"pay-1": {ID: "pay-1", Status: models.PaymentStatusComplete},
	}

	payment, err := service.Complete(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, payment.Status)
	assert.Empty(t, repo.statuses)
}

func TestPaymentServiceCompleteCancelledRejected(t *testing.T) {
	service, repo, _ := paymentServiceFixture()
	repo.items = map[string]*models.Payment{
		"pay-1": {ID: "pay-1", Status: models.PaymentStatusCancelled},
	}

	_, err := service.Complete(context.Background(), "pay-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestPaymentServiceCancel(t *testing.T) {
	service, repo, _ := paymentServiceFixture()
	repo.items = map[string]*models.Payment{
		"pay-1": {ID: "pay-1", Status: models.PaymentStatusComplete},
	}

	payment, err := service.Cancel(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, payment.Status)
}

func TestPaymentServiceCancelIdempotent(t *testing.T) {
	service, repo, _ := paymentServiceFixture()
	repo.items = map[string]*models.Payment{
		"pay-1": {ID: "pay-1", Status: models.PaymentStatusCancelled},
	}

	payment, err := service.Cancel(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, payment.Status)
	assert.Empty(t, repo.statuses)
}
