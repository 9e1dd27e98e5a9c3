package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/dto"
	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type summaryLedger interface {
	ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error)
}

type summaryClassifier interface {
	Thresholds(ctx context.Context) (models.Thresholds, error)
}

// SummaryService builds the per-class recovery report and caches it in
// Redis. Payment and campaign writes invalidate the cached entries.
type SummaryService struct {
	ledger     summaryLedger
	classifier summaryClassifier
	cache      summaryCache
	logger     *zap.Logger
	ttl        time.Duration
}

// NewSummaryService constructs the service.
func NewSummaryService(ledger summaryLedger, classifier summaryClassifier, cache summaryCache, ttl time.Duration, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryService{ledger: ledger, classifier: classifier, cache: cache, logger: logger, ttl: ttl}
}

// ClassSummary aggregates balances and tier counts for a class, serving
// from cache when a fresh entry exists.
func (s *SummaryService) ClassSummary(ctx context.Context, classID, academicYearID string) (*dto.RecoverySummary, error) {
	key := summaryCacheKey(classID, academicYearID)
	if s.cache != nil {
		var cached dto.RecoverySummary
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	thresholds, err := s.classifier.Thresholds(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.ClassBalances(ctx, classID, academicYearID)
	if err != nil {
		return nil, err
	}

	summary := &dto.RecoverySummary{
		ClassID:          classID,
		AcademicYearID:   academicYearID,
		StudentCount:     len(rows),
		TotalOwed:        decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TierCounts: map[models.SolvencyTier]int{
			models.SolvencyCurrent:  0,
			models.SolvencyElevated: 0,
			models.SolvencyCritical: 0,
		},
		Thresholds: thresholds,
	}

	for _, row := range rows {
		outstanding := outstandingOf(row.Owed, row.Paid)
		tier, err := Classify(outstanding, thresholds)
		if err != nil {
			return nil, err
		}
		summary.TotalOwed = summary.TotalOwed.Add(row.Owed)
		summary.TotalPaid = summary.TotalPaid.Add(row.Paid)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(outstanding)
		summary.TierCounts[tier]++
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func summaryCacheKey(classID, academicYearID string) string {
	return fmt.Sprintf("summary:%s:%s", classID, academicYearID)
}
