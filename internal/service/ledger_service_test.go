package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type mockLedgerRepo struct {
	owed     decimal.Decimal
	paid     decimal.Decimal
	balances []models.StudentBalanceRow
	err      error
}

func (m *mockLedgerRepo) OwedForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.owed, nil
}

func (m *mockLedgerRepo) PaidForStudent(ctx context.Context, studentID, academicYearID string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.paid, nil
}

func (m *mockLedgerRepo) ClassBalances(ctx context.Context, classID, academicYearID string) ([]models.StudentBalanceRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.balances, nil
}

type mockStudentReader struct {
	years       map[string]*models.AcademicYear
	classes     map[string]*models.Class
	enrollments map[string]*models.EnrollmentDetail
}

func (m *mockStudentReader) FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if year, ok := m.years[id]; ok {
		return year, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindClassByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindEnrollment(ctx context.Context, studentID, academicYearID string) (*models.EnrollmentDetail, error) {
	if enrollment, ok := m.enrollments[studentID+"/"+academicYearID]; ok {
		return enrollment, nil
	}
	return nil, sql.ErrNoRows
}

type mockFeeReader struct {
	orphans int
	err     error
}

func (m *mockFeeReader) CountOrphanClassScopes(ctx context.Context, academicYearID string) (int, error) {
	return m.orphans, m.err
}

func ledgerFixture(owed, paid int64) (*LedgerService, *mockLedgerRepo) {
	repo := &mockLedgerRepo{owed: decimal.NewFromInt(owed), paid: decimal.NewFromInt(paid)}
	students := &mockStudentReader{
		years: map[string]*models.AcademicYear{"year-1": {ID: "year-1"}},
		enrollments: map[string]*models.EnrollmentDetail{
			"stu-1/year-1": {Enrollment: models.Enrollment{StudentID: "stu-1", AcademicYearID: "year-1"}},
		},
	}
	return NewLedgerService(repo, students, &mockFeeReader{}, nil), repo
}

func TestLedgerServiceComputeDebt(t *testing.T) {
	service, _ := ledgerFixture(100, 30)

	figure, err := service.ComputeDebt(context.Background(), "stu-1", "year-1")
	require.NoError(t, err)
	assert.True(t, figure.Outstanding.Equal(decimal.NewFromInt(70)))
	assert.True(t, figure.Credit.IsZero())
}

func TestLedgerServiceComputeDebtOverpayment(t *testing.T) {
	service, _ := ledgerFixture(100, 130)

	figure, err := service.ComputeDebt(context.Background(), "stu-1", "year-1")
	require.NoError(t, err)
	assert.True(t, figure.Outstanding.IsZero())
	assert.True(t, figure.Credit.Equal(decimal.NewFromInt(30)))
}

func TestLedgerServiceComputeDebtNoEnrollment(t *testing.T) {
	service, _ := ledgerFixture(100, 0)

	figure, err := service.ComputeDebt(context.Background(), "stu-unknown", "year-1")
	require.NoError(t, err)
	assert.True(t, figure.Owed.IsZero())
	assert.True(t, figure.Outstanding.IsZero())
}

func TestLedgerServiceComputeDebtUnknownYear(t *testing.T) {
	service, _ := ledgerFixture(100, 0)

	_, err := service.ComputeDebt(context.Background(), "stu-1", "year-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLedgerServiceComputeDebtOrphanScope(t *testing.T) {
	repo := &mockLedgerRepo{owed: decimal.NewFromInt(100)}
	students := &mockStudentReader{years: map[string]*models.AcademicYear{"year-1": {ID: "year-1"}}}
	service := NewLedgerService(repo, students, &mockFeeReader{orphans: 1}, nil)

	_, err := service.ComputeDebt(context.Background(), "stu-1", "year-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidScope)
}

func TestLedgerServiceClassBalancesUnknownClass(t *testing.T) {
	repo := &mockLedgerRepo{}
	students := &mockStudentReader{years: map[string]*models.AcademicYear{"year-1": {ID: "year-1"}}}
	service := NewLedgerService(repo, students, &mockFeeReader{}, nil)

	_, err := service.ClassBalances(context.Background(), "class-missing", "year-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLedgerServiceClassBalances(t *testing.T) {
	repo := &mockLedgerRepo{balances: []models.StudentBalanceRow{
		{StudentID: "stu-1", Owed: decimal.NewFromInt(100), Paid: decimal.NewFromInt(40)},
	}}
	students := &mockStudentReader{
		years:   map[string]*models.AcademicYear{"year-1": {ID: "year-1"}},
		classes: map[string]*models.Class{"class-1": {ID: "class-1"}},
	}
	service := NewLedgerService(repo, students, &mockFeeReader{}, nil)

	rows, err := service.ClassBalances(context.Background(), "class-1", "year-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
