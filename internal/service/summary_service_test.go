package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/dto"
	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type mockSummaryCache struct {
	entries map[string]*dto.RecoverySummary
	sets    int
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if summary, ok := m.entries[key]; ok {
		*dest.(*dto.RecoverySummary) = *summary
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]*dto.RecoverySummary)
	}
	summary := value.(*dto.RecoverySummary)
	cp := *summary
	m.entries[key] = &cp
	m.sets++
	return nil
}

type staticClassifier struct {
	thresholds models.Thresholds
}

func (s *staticClassifier) Thresholds(ctx context.Context) (models.Thresholds, error) {
	return s.thresholds, nil
}

func TestSummaryServiceClassSummary(t *testing.T) {
	ledger := &mockSolvencyLedger{rows: []models.StudentBalanceRow{
		{StudentID: "stu-1", Owed: decimal.NewFromInt(100), Paid: decimal.NewFromInt(100)},
		{StudentID: "stu-2", Owed: decimal.NewFromInt(100), Paid: decimal.NewFromInt(30)},
		{StudentID: "stu-3", Owed: decimal.NewFromInt(200), Paid: decimal.Zero},
	}}
	classifier := &staticClassifier{thresholds: defaultThresholds()}
	cache := &mockSummaryCache{}
	service := NewSummaryService(ledger, classifier, cache, time.Minute, nil)

	summary, err := service.ClassSummary(context.Background(), "class-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.StudentCount)
	assert.True(t, summary.TotalOwed.Equal(decimal.NewFromInt(400)))
	assert.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(270)))
	assert.Equal(t, 1, summary.TierCounts[models.SolvencyCurrent])
	assert.Equal(t, 1, summary.TierCounts[models.SolvencyElevated])
	assert.Equal(t, 1, summary.TierCounts[models.SolvencyCritical])
	assert.Equal(t, 1, cache.sets)
}

func TestSummaryServiceClassSummaryServesFromCache(t *testing.T) {
	ledger := &mockSolvencyLedger{}
	classifier := &staticClassifier{thresholds: defaultThresholds()}
	cache := &mockSummaryCache{entries: map[string]*dto.RecoverySummary{
		"summary:class-1:year-1": {ClassID: "class-1", AcademicYearID: "year-1", StudentCount: 12},
	}}
	service := NewSummaryService(ledger, classifier, cache, time.Minute, nil)

	summary, err := service.ClassSummary(context.Background(), "class-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, 12, summary.StudentCount)
	assert.Zero(t, cache.sets)
}

func TestSummaryServiceClassSummaryWithoutCache(t *testing.T) {
	ledger := &mockSolvencyLedger{rows: []models.StudentBalanceRow{
		{StudentID: "stu-1", Owed: decimal.NewFromInt(60), Paid: decimal.Zero},
	}}
	classifier := &staticClassifier{thresholds: defaultThresholds()}
	service := NewSummaryService(ledger, classifier, nil, time.Minute, nil)

	summary, err := service.ClassSummary(context.Background(), "class-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TierCounts[models.SolvencyElevated])
}
