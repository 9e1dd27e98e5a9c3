package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type feeRepository interface {
	List(ctx context.Context, filter models.FeeDefinitionFilter) ([]models.FeeDefinition, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeDefinition, error)
	Create(ctx context.Context, fee *models.FeeDefinition) error
	Update(ctx context.Context, fee *models.FeeDefinition) error
	Deactivate(ctx context.Context, id string) error
	HasPayments(ctx context.Context, id string) (bool, error)
}

type feeStudentReader interface {
	FindClassByID(ctx context.Context, id string) (*models.Class, error)
	FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error)
}

// FeeService manages fee definitions.
type FeeService struct {
	repo      feeRepository
	students  feeStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs the service.
func NewFeeService(repo feeRepository, students feeStudentReader, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &FeeService{repo: repo, students: students, validator: validate, logger: logger}
	svc.validator.RegisterValidation("fee_type", func(fl validator.FieldLevel) bool {
		return models.ValidFeeType(models.FeeType(fl.Field().String()))
	})
	svc.validator.RegisterValidation("fee_scope", func(fl validator.FieldLevel) bool {
		return models.ValidFeeScopeType(models.FeeScopeType(fl.Field().String()))
	})
	return svc
}

// CreateFeeRequest describes the creation payload.
type CreateFeeRequest struct {
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	Label          string     `json:"label" validate:"required"`
	FeeType        string     `json:"fee_type" validate:"required,fee_type"`
	Amount         string     `json:"amount" validate:"required"`
	ScopeType      string     `json:"scope_type" validate:"required,fee_scope"`
	ClassID        string     `json:"class_id"`
	Level          string     `json:"level"`
	Mandatory      bool       `json:"mandatory"`
	DueDate        *time.Time `json:"due_date"`
}

// UpdateFeeRequest describes the update payload.
type UpdateFeeRequest struct {
	Label     string     `json:"label" validate:"required"`
	FeeType   string     `json:"fee_type" validate:"required,fee_type"`
	Amount    string     `json:"amount" validate:"required"`
	ScopeType string     `json:"scope_type" validate:"required,fee_scope"`
	ClassID   string     `json:"class_id"`
	Level     string     `json:"level"`
	Mandatory bool       `json:"mandatory"`
	DueDate   *time.Time `json:"due_date"`
	Active    bool       `json:"active"`
}

// List returns fee definitions with pagination.
func (s *FeeService) List(ctx context.Context, filter models.FeeDefinitionFilter) ([]models.FeeDefinition, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee definitions")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return fees, pagination, nil
}

// Get returns a single fee definition.
func (s *FeeService) Get(ctx context.Context, id string) (*models.FeeDefinition, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee definition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch fee definition")
	}
	return fee, nil
}

// Create adds a fee definition after resolving its scope references.
func (s *FeeService) Create(ctx context.Context, req CreateFeeRequest) (*models.FeeDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindAcademicYearByID(ctx, req.AcademicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch academic year")
	}

	classID, level, err := s.resolveScope(ctx, models.FeeScopeType(req.ScopeType), req.ClassID, req.Level)
	if err != nil {
		return nil, err
	}

	fee := &models.FeeDefinition{
		AcademicYearID: req.AcademicYearID,
		Label:          req.Label,
		FeeType:        models.FeeType(req.FeeType),
		Amount:         amount,
		ScopeType:      models.FeeScopeType(req.ScopeType),
		ClassID:        classID,
		Level:          level,
		Mandatory:      req.Mandatory,
		DueDate:        req.DueDate,
		Active:         true,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee definition")
	}
	return fee, nil
}

// Update modifies an existing fee definition.
func (s *FeeService) Update(ctx context.Context, id string, req UpdateFeeRequest) (*models.FeeDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	classID, level, err := s.resolveScope(ctx, models.FeeScopeType(req.ScopeType), req.ClassID, req.Level)
	if err != nil {
		return nil, err
	}

	fee.Label = req.Label
	fee.FeeType = models.FeeType(req.FeeType)
	fee.Amount = amount
	fee.ScopeType = models.FeeScopeType(req.ScopeType)
	fee.ClassID = classID
	fee.Level = level
	fee.Mandatory = req.Mandatory
	fee.DueDate = req.DueDate
	fee.Active = req.Active

	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee definition")
	}
	return fee, nil
}

// Deactivate soft-disables a fee definition. Definitions with payments are
// never removed, only deactivated, so this is the deepest delete offered.
func (s *FeeService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate fee definition")
	}
	return nil
}

func (s *FeeService) resolveScope(ctx context.Context, scope models.FeeScopeType, classID, level string) (*string, *string, error) {
	switch scope {
	case models.FeeScopeClass:
		if classID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "class-scoped fees require class_id")
		}
		if _, err := s.students.FindClassByID(ctx, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrInvalidScope, "")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
		}
		return &classID, nil, nil
	case models.FeeScopeLevel:
		if level == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "level-scoped fees require level")
		}
		return nil, &level, nil
	default:
		return nil, nil, nil
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, "amount is not a valid decimal")
	}
	if amount.IsNegative() {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, "amount must be non-negative")
	}
	return amount, nil
}
