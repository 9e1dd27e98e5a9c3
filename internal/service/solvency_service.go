package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type solvencyParameterReader interface {
	Get(ctx context.Context, key string) (*models.Parameter, error)
}

type solvencyLedger interface {
	ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error)
}

// SolvencyService classifies debt figures into tiers and builds debtor
// lists. Classification itself is a pure function over two ordered
// thresholds.
type SolvencyService struct {
	params          solvencyParameterReader
	ledger          solvencyLedger
	logger          *zap.Logger
	defaultElevated decimal.Decimal
	defaultCritical decimal.Decimal
}

// NewSolvencyService constructs the service. The defaults apply when the
// parameter store has no threshold overrides.
func NewSolvencyService(params solvencyParameterReader, ledger solvencyLedger, defaultElevated, defaultCritical decimal.Decimal, logger *zap.Logger) *SolvencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolvencyService{
		params:          params,
		ledger:          ledger,
		logger:          logger,
		defaultElevated: defaultElevated,
		defaultCritical: defaultCritical,
	}
}

// Classify maps an outstanding balance to a tier. Intervals are half-open,
// inclusive on the lower bound: debt < elevated is CURRENT, elevated <=
// debt < critical is ELEVATED, debt >= critical is CRITICAL.
func Classify(debt decimal.Decimal, thresholds models.Thresholds) (models.SolvencyTier, error) {
	if err := validateThresholds(thresholds); err != nil {
		return "", err
	}
	switch {
	case debt.LessThan(thresholds.Elevated):
		return models.SolvencyCurrent, nil
	case debt.LessThan(thresholds.Critical):
		return models.SolvencyElevated, nil
	default:
		return models.SolvencyCritical, nil
	}
}

func validateThresholds(t models.Thresholds) error {
	if t.Elevated.IsNegative() || t.Critical.IsNegative() {
		return appErrors.Clone(appErrors.ErrConfiguration, "solvency thresholds must be non-negative")
	}
	if !t.Critical.GreaterThan(t.Elevated) {
		return appErrors.Clone(appErrors.ErrConfiguration, "critical threshold must exceed elevated threshold")
	}
	return nil
}

// Thresholds resolves the configured thresholds from the parameter store,
// falling back to defaults, and validates their ordering before use.
func (s *SolvencyService) Thresholds(ctx context.Context) (models.Thresholds, error) {
	thresholds := models.Thresholds{Elevated: s.defaultElevated, Critical: s.defaultCritical}

	elevated, err := s.lookupAmount(ctx, models.ParamElevatedThreshold)
	if err != nil {
		return models.Thresholds{}, err
	}
	if elevated != nil {
		thresholds.Elevated = *elevated
	}

	critical, err := s.lookupAmount(ctx, models.ParamCriticalThreshold)
	if err != nil {
		return models.Thresholds{}, err
	}
	if critical != nil {
		thresholds.Critical = *critical
	}

	if err := validateThresholds(thresholds); err != nil {
		return models.Thresholds{}, err
	}
	return thresholds, nil
}

func (s *SolvencyService) lookupAmount(ctx context.Context, key string) (*decimal.Decimal, error) {
	param, err := s.params.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read parameter "+key)
	}
	value, err := decimal.NewFromString(param.Value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "parameter "+key+" is not a valid amount")
	}
	return &value, nil
}

// ClassifyStudent classifies a precomputed debt figure using the stored
// thresholds.
func (s *SolvencyService) ClassifyStudent(ctx context.Context, figure *models.DebtFigure) (models.SolvencyTier, error) {
	thresholds, err := s.Thresholds(ctx)
	if err != nil {
		return "", err
	}
	return Classify(figure.Outstanding, thresholds)
}

// DebtorList classifies every student of a class and keeps those in the
// ELEVATED or CRITICAL tiers, ordered by outstanding balance descending.
// This is the recipient source for notification campaigns.
func (s *SolvencyService) DebtorList(ctx context.Context, classID, academicYearID string) ([]models.DebtorEntry, error) {
	thresholds, err := s.Thresholds(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.ledger.ClassBalances(ctx, classID, academicYearID)
	if err != nil {
		return nil, err
	}

	debtors := make([]models.DebtorEntry, 0, len(rows))
	for _, row := range rows {
		outstanding := outstandingOf(row.Owed, row.Paid)
		tier, err := Classify(outstanding, thresholds)
		if err != nil {
			return nil, err
		}
		if tier == models.SolvencyCurrent {
			continue
		}
		debtors = append(debtors, models.DebtorEntry{
			StudentBalanceRow: row,
			Outstanding:       outstanding,
			Credit:            creditOf(row.Owed, row.Paid),
			Tier:              tier,
		})
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Outstanding.GreaterThan(debtors[j].Outstanding)
	})
	return debtors, nil
}
