package models

import "github.com/shopspring/decimal"

// SolvencyTier classifies a student's outstanding balance against the two
// configured thresholds. Intervals are half-open, inclusive on the lower
// bound of each tier.
type SolvencyTier string

const (
	SolvencyCurrent  SolvencyTier = "CURRENT"
	SolvencyElevated SolvencyTier = "ELEVATED"
	SolvencyCritical SolvencyTier = "CRITICAL"
)

// DebtFigure is the computed balance of a student for an academic year.
// Outstanding is floored at zero; overpayment shows up as Credit instead of
// a negative debt.
type DebtFigure struct {
	StudentID      string          `json:"student_id"`
	AcademicYearID string          `json:"academic_year_id"`
	Owed           decimal.Decimal `json:"owed"`
	Paid           decimal.Decimal `json:"paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Credit         decimal.Decimal `json:"credit"`
}

// StudentBalanceRow is one row of the grouped class aggregation query.
type StudentBalanceRow struct {
	StudentID   string          `db:"student_id" json:"student_id"`
	StudentName string          `db:"student_name" json:"student_name"`
	ParentName  string          `db:"parent_name" json:"parent_name"`
	Phone       string          `db:"phone" json:"phone"`
	ClassName   string          `db:"class_name" json:"class_name"`
	Owed        decimal.Decimal `db:"owed" json:"owed"`
	Paid        decimal.Decimal `db:"paid" json:"paid"`
}

// DebtorEntry is a classified balance row, the unit of the debtor list fed
// into notification campaigns.
type DebtorEntry struct {
	StudentBalanceRow
	Outstanding decimal.Decimal `json:"outstanding"`
	Credit      decimal.Decimal `json:"credit"`
	Tier        SolvencyTier    `json:"tier"`
}

// Thresholds carries the two ordered solvency boundaries. Invariant:
// Critical must be strictly greater than Elevated.
type Thresholds struct {
	Elevated decimal.Decimal `json:"elevated"`
	Critical decimal.Decimal `json:"critical"`
}
