package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/models"
)

func newFeeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func feeRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "academic_year_id", "label", "fee_type", "amount", "scope_type", "class_id", "level",
		"mandatory", "due_date", "active", "created_at", "updated_at"}).
		AddRow("fee-1", "year-1", "Scolarite T1", models.FeeTypeTuition, "100000", models.FeeScopeAll, nil, nil, true, nil, true, now, now)
}

func TestFeeRepositoryListFiltersByYear(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery(`SELECT f\.id, f\.academic_year_id`).
		WithArgs("year-1").
		WillReturnRows(feeRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_definitions f WHERE f\.academic_year_id = \$1`).
		WithArgs("year-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	fees, total, err := repo.List(context.Background(), models.FeeDefinitionFilter{AcademicYearID: "year-1"})
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, 1, total)
	require.True(t, fees[0].Amount.Equal(decimal.NewFromInt(100000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec(`INSERT INTO fee_definitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	fee := &models.FeeDefinition{
		AcademicYearID: "year-1",
		Label:          "Inscription",
		FeeType:        models.FeeTypeRegistration,
		Amount:         decimal.NewFromInt(25000),
		ScopeType:      models.FeeScopeAll,
		Mandatory:      true,
		Active:         true,
	}
	err := repo.Create(context.Background(), fee)
	require.NoError(t, err)
	require.NotEmpty(t, fee.ID)
	require.False(t, fee.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec(`UPDATE fee_definitions SET active = FALSE, updated_at = \$2 WHERE id = \$1`).
		WithArgs("fee-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "fee-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryCountOrphanClassScopes(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_definitions f\s+LEFT JOIN classes c ON c\.id = f\.class_id`).
		WithArgs("year-1", models.FeeScopeClass).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOrphanClassScopes(context.Background(), "year-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
