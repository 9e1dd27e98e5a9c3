package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type parameterRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Parameter, error)
	Get(ctx context.Context, key string) (*models.Parameter, error)
	Upsert(ctx context.Context, param *models.Parameter) error
}

type allowedParameter struct {
	Key         string
	Type        models.ParameterType
	Description string
	Default     string
}

var allowedParameterKeys = []string{
	models.ParamElevatedThreshold,
	models.ParamCriticalThreshold,
	"reminder_signature",
}

var allowedParameters = map[string]allowedParameter{
	models.ParamElevatedThreshold: {
		Key:         models.ParamElevatedThreshold,
		Type:        models.ParameterTypeAmount,
		Description: "Outstanding balance from which a student is classified ELEVATED",
		Default:     "50000",
	},
	models.ParamCriticalThreshold: {
		Key:         models.ParamCriticalThreshold,
		Type:        models.ParameterTypeAmount,
		Description: "Outstanding balance from which a student is classified CRITICAL",
		Default:     "100000",
	},
	"reminder_signature": {
		Key:         "reminder_signature",
		Type:        models.ParameterTypeString,
		Description: "Signature line appended to reminder messages by the delivery gateway",
		Default:     "",
	},
}

// ParameterService manages the recouvrement parameter store. Keys are
// allow-listed; threshold writes are validated against each other so the
// classifier can never observe a misordered pair.
type ParameterService struct {
	repo   parameterRepository
	logger *zap.Logger
}

// NewParameterService constructs the service.
func NewParameterService(repo parameterRepository, logger *zap.Logger) *ParameterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParameterService{repo: repo, logger: logger}
}

// List returns all known parameters, merging stored values over defaults.
func (s *ParameterService) List(ctx context.Context) ([]models.Parameter, error) {
	stored, err := s.repo.ListByKeys(ctx, allowedParameterKeys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parameters")
	}
	byKey := make(map[string]models.Parameter, len(stored))
	for _, p := range stored {
		byKey[p.Key] = p
	}

	result := make([]models.Parameter, 0, len(allowedParameterKeys))
	for _, key := range allowedParameterKeys {
		if p, ok := byKey[key]; ok {
			result = append(result, p)
			continue
		}
		spec := allowedParameters[key]
		desc := spec.Description
		result = append(result, models.Parameter{
			Key:         key,
			Value:       spec.Default,
			Type:        spec.Type,
			Description: &desc,
		})
	}
	return result, nil
}

// UpdateParameterRequest describes an upsert payload.
type UpdateParameterRequest struct {
	Value     string `json:"value"`
	UpdatedBy string `json:"updated_by"`
}

// Update validates and upserts a parameter value.
func (s *ParameterService) Update(ctx context.Context, key string, req UpdateParameterRequest) (*models.Parameter, error) {
	spec, ok := allowedParameters[key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown parameter "+key)
	}
	if req.Value == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "value is required")
	}

	if spec.Type == models.ParameterTypeAmount {
		value, err := decimal.NewFromString(req.Value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "value must be a decimal amount")
		}
		if value.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "value must be non-negative")
		}
		if err := s.checkThresholdOrdering(ctx, key, value); err != nil {
			return nil, err
		}
	}

	desc := spec.Description
	param := &models.Parameter{
		Key:         key,
		Value:       req.Value,
		Type:        spec.Type,
		Description: &desc,
	}
	if req.UpdatedBy != "" {
		param.UpdatedBy = &req.UpdatedBy
	}
	if err := s.repo.Upsert(ctx, param); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parameter")
	}
	s.logger.Info("parameter updated", zap.String("key", key))
	return param, nil
}

// checkThresholdOrdering rejects writes that would leave elevated >= critical.
func (s *ParameterService) checkThresholdOrdering(ctx context.Context, key string, value decimal.Decimal) error {
	var otherKey string
	switch key {
	case models.ParamElevatedThreshold:
		otherKey = models.ParamCriticalThreshold
	case models.ParamCriticalThreshold:
		otherKey = models.ParamElevatedThreshold
	default:
		return nil
	}

	other, err := s.currentAmount(ctx, otherKey)
	if err != nil {
		return err
	}

	elevated, critical := value, other
	if key == models.ParamCriticalThreshold {
		elevated, critical = other, value
	}
	if !critical.GreaterThan(elevated) {
		return appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("critical threshold (%s) must exceed elevated threshold (%s)", critical, elevated))
	}
	return nil
}

func (s *ParameterService) currentAmount(ctx context.Context, key string) (decimal.Decimal, error) {
	param, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.NewFromString(allowedParameters[key].Default)
		}
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read parameter "+key)
	}
	value, err := decimal.NewFromString(param.Value)
	if err != nil {
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "parameter "+key+" is not a valid amount")
	}
	return value, nil
}
