package dto

import (
	"github.com/shopspring/decimal"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// RecoverySummary is the cached per-class report backing the recouvrement
// dashboard: aggregate balances, tier counts and the thresholds applied.
type RecoverySummary struct {
	ClassID          string                      `json:"class_id"`
	AcademicYearID   string                      `json:"academic_year_id"`
	StudentCount     int                         `json:"student_count"`
	TotalOwed        decimal.Decimal             `json:"total_owed"`
	TotalPaid        decimal.Decimal             `json:"total_paid"`
	TotalOutstanding decimal.Decimal             `json:"total_outstanding"`
	TierCounts       map[models.SolvencyTier]int `json:"tier_counts"`
	Thresholds       models.Thresholds           `json:"thresholds"`
}
