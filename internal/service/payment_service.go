package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

type paymentFeeReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeDefinition, error)
}

type paymentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type paymentCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PaymentService records settlements against fee definitions. Status moves
// COMPLETE and PARTIAL freely via the explicit complete action; CANCELLED is
// terminal and excludes the payment from every aggregate.
type PaymentService struct {
	repo      paymentRepository
	fees      paymentFeeReader
	students  paymentStudentReader
	cache     paymentCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(repo paymentRepository, fees paymentFeeReader, students paymentStudentReader, cache paymentCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PaymentService{repo: repo, fees: fees, students: students, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("payment_mode", func(fl validator.FieldLevel) bool {
		return models.ValidPaymentMode(models.PaymentMode(fl.Field().String()))
	})
	return svc
}

// RecordPaymentRequest describes the creation payload.
type RecordPaymentRequest struct {
	StudentID  string     `json:"student_id" validate:"required"`
	FeeID      string     `json:"fee_id" validate:"required"`
	Amount     string     `json:"amount" validate:"required"`
	Mode       string     `json:"mode" validate:"required,payment_mode"`
	Partial    bool       `json:"partial"`
	Reference  string     `json:"reference"`
	PaidAt     *time.Time `json:"paid_at"`
	RecordedBy string     `json:"recorded_by" validate:"required"`
}

// List returns payments with pagination.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return payments, pagination, nil
}

// Record persists a new payment against a fee definition.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if _, err := s.fees.FindByID(ctx, req.FeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee definition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch fee definition")
	}

	status := models.PaymentStatusComplete
	if req.Partial {
		status = models.PaymentStatusPartial
	}
	var reference *string
	if req.Reference != "" {
		reference = &req.Reference
	}
	payment := &models.Payment{
		StudentID:  req.StudentID,
		FeeID:      req.FeeID,
		Amount:     amount,
		Mode:       models.PaymentMode(req.Mode),
		Status:     status,
		Reference:  reference,
		RecordedBy: req.RecordedBy,
	}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.invalidateSummaries(ctx)
	return payment, nil
}

// Complete switches a PARTIAL payment to COMPLETE via the explicit action.
func (s *PaymentService) Complete(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "cancelled payments cannot be completed")
	}
	if payment.Status == models.PaymentStatusComplete {
		return payment, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, models.PaymentStatusComplete); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}
	payment.Status = models.PaymentStatusComplete
	s.invalidateSummaries(ctx)
	return payment, nil
}

// Cancel moves a payment to its terminal CANCELLED state. Never reversed.
func (s *PaymentService) Cancel(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusCancelled {
		return payment, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, models.PaymentStatusCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel payment")
	}
	payment.Status = models.PaymentStatusCancelled
	s.invalidateSummaries(ctx)
	return payment, nil
}

func (s *PaymentService) find(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	return payment, nil
}

func (s *PaymentService) invalidateSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "summary:*"); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}
