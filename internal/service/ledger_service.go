package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type ledgerRepository interface {
	OwedForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error)
	PaidForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error)
	ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error)
}

type ledgerStudentReader interface {
	FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindClassByID(ctx context.Context, id string) (*models.Class, error)
	FindEnrollment(ctx context.Context, studentID, academicYearID string) (*models.EnrollmentDetail, error)
}

type ledgerFeeReader interface {
	CountOrphanClassScopes(ctx context.Context, academicYearID string) (int, error)
}

// LedgerService computes per-student debt figures. Pure reads; results are
// recomputed on demand rather than cached.
type LedgerService struct {
	repo     ledgerRepository
	students ledgerStudentReader
	fees     ledgerFeeReader
	logger   *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(repo ledgerRepository, students ledgerStudentReader, fees ledgerFeeReader, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, students: students, fees: fees, logger: logger}
}

// ComputeDebt returns the student's balance for an academic year.
// A student with no active enrollment in the year owes nothing; a missing
// academic year is an error. Outstanding is floored at zero, with any
// overpayment surfaced as Credit.
func (s *LedgerService) ComputeDebt(ctx context.Context, studentID, academicYearID string) (*models.DebtFigure, error) {
	if _, err := s.students.FindAcademicYearByID(ctx, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch academic year")
	}

	orphans, err := s.fees.CountOrphanClassScopes(ctx, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee scopes")
	}
	if orphans > 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidScope, "")
	}

	figure := &models.DebtFigure{
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		Owed:           decimal.Zero,
		Paid:           decimal.Zero,
		Outstanding:    decimal.Zero,
		Credit:         decimal.Zero,
	}

	if _, err := s.students.FindEnrollment(ctx, studentID, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No enrollment means no fee scope can match: zero debt, not an error.
			return figure, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch enrollment")
	}

	owed, err := s.repo.OwedForStudent(ctx, studentID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate owed amount")
	}
	paid, err := s.repo.PaidForStudent(ctx, studentID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate paid amount")
	}

	figure.Owed = owed
	figure.Paid = paid
	figure.Outstanding = outstandingOf(owed, paid)
	figure.Credit = creditOf(owed, paid)
	return figure, nil
}

// ClassBalances returns every actively enrolled student's balance for a
// class in a single grouped query.
func (s *LedgerService) ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error) {
	if _, err := s.students.FindAcademicYearByID(ctx, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch academic year")
	}
	if _, err := s.students.FindClassByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}

	orphans, err := s.fees.CountOrphanClassScopes(ctx, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee scopes")
	}
	if orphans > 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidScope, "")
	}

	rows, err := s.repo.ClassBalances(ctx, classID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate class balances")
	}
	return rows, nil
}

func outstandingOf(owed, paid decimal.Decimal) decimal.Decimal {
	outstanding := owed.Sub(paid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

func creditOf(owed, paid decimal.Decimal) decimal.Decimal {
	credit := paid.Sub(owed)
	if credit.IsNegative() {
		return decimal.Zero
	}
	return credit
}
