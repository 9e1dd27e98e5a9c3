package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// LedgerRepository runs the read-only aggregation queries behind debt
// computation. All methods are pure reads.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// scopeMatch filters fee definitions down to those applying to the joined
// class. Payments are matched through the fee_id foreign key instead of the
// legacy type+year heuristic, so two fees of the same type within a year can
// no longer cross-contaminate each other's balances.
const scopeMatch = `(f.scope_type = 'ALL'
        OR (f.scope_type = 'CLASS' AND f.class_id = c.id)
        OR (f.scope_type = 'LEVEL' AND f.level = c.level))`

// OwedForStudent sums the active fee definitions applying to the student's
// enrollment for the year.
func (r *LedgerRepository) OwedForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(f.amount), 0)
        FROM fee_definitions f
        JOIN enrollments e ON e.academic_year_id = f.academic_year_id
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1 AND e.academic_year_id = $2 AND e.status = $3 AND f.active = TRUE
        AND ` + scopeMatch
	var owed decimal.Decimal
	if err := r.db.GetContext(ctx, &owed, query, studentID, academicYearID, models.EnrollmentStatusActive); err != nil {
		return decimal.Zero, fmt.Errorf("sum owed: %w", err)
	}
	return owed, nil
}

// PaidForStudent sums the student's non-cancelled payments against fees of
// the year.
func (r *LedgerRepository) PaidForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(p.amount), 0)
        FROM payments p
        JOIN fee_definitions f ON f.id = p.fee_id
        WHERE p.student_id = $1 AND f.academic_year_id = $2 AND p.status <> $3`
	var paid decimal.Decimal
	if err := r.db.GetContext(ctx, &paid, query, studentID, academicYearID, models.PaymentStatusCancelled); err != nil {
		return decimal.Zero, fmt.Errorf("sum paid: %w", err)
	}
	return paid, nil
}

// ClassBalances returns owed and paid totals for every actively enrolled
// student of a class in one grouped pass, never per-student round trips.
func (r *LedgerRepository) ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error) {
	query := `SELECT e.student_id, s.full_name AS student_name, s.parent_name, s.phone, c.name AS class_name,
        COALESCE(ow.total, 0) AS owed, COALESCE(pd.total, 0) AS paid
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN classes c ON c.id = e.class_id
        LEFT JOIN (
            SELECT e2.student_id, SUM(f.amount) AS total
            FROM enrollments e2
            JOIN classes c2 ON c2.id = e2.class_id
            JOIN fee_definitions f ON f.academic_year_id = e2.academic_year_id AND f.active = TRUE
                AND (f.scope_type = 'ALL'
                    OR (f.scope_type = 'CLASS' AND f.class_id = c2.id)
                    OR (f.scope_type = 'LEVEL' AND f.level = c2.level))
            WHERE e2.class_id = $1 AND e2.academic_year_id = $2 AND e2.status = $3
            GROUP BY e2.student_id
        ) ow ON ow.student_id = e.student_id
        LEFT JOIN (
            SELECT p.student_id, SUM(p.amount) AS total
            FROM payments p
            JOIN fee_definitions f ON f.id = p.fee_id
            WHERE f.academic_year_id = $2 AND p.status <> $4
            GROUP BY p.student_id
        ) pd ON pd.student_id = e.student_id
        WHERE e.class_id = $1 AND e.academic_year_id = $2 AND e.status = $3
        ORDER BY s.full_name ASC`
	var rows []models.StudentBalanceRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, academicYearID, models.EnrollmentStatusActive, models.PaymentStatusCancelled); err != nil {
		return nil, fmt.Errorf("class balances: %w", err)
	}
	return rows, nil
}
