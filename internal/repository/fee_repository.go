package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// FeeRepository handles persistence of fee definitions.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// List returns fee definitions filtered by the provided criteria.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeDefinitionFilter) ([]models.FeeDefinition, int, error) {
	base := "FROM fee_definitions f"
	var conditions []string
	var args []interface{}

	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("f.academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.FeeType != "" {
		conditions = append(conditions, fmt.Sprintf("f.fee_type = $%d", len(args)+1))
		args = append(args, filter.FeeType)
	}
	if filter.ScopeType != "" {
		conditions = append(conditions, fmt.Sprintf("f.scope_type = $%d", len(args)+1))
		args = append(args, filter.ScopeType)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("f.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("f.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT f.id, f.academic_year_id, f.label, f.fee_type, f.amount, f.scope_type, f.class_id, f.level,
        f.mandatory, f.due_date, f.active, f.created_at, f.updated_at
        %s ORDER BY f.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var fees []models.FeeDefinition
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee definitions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee definitions: %w", err)
	}
	return fees, total, nil
}

// FindByID returns a fee definition by its ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeeDefinition, error) {
	const query = `SELECT id, academic_year_id, label, fee_type, amount, scope_type, class_id, level,
        mandatory, due_date, active, created_at, updated_at FROM fee_definitions WHERE id = $1`
	var fee models.FeeDefinition
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create persists a new fee definition.
func (r *FeeRepository) Create(ctx context.Context, fee *models.FeeDefinition) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now
	const query = `INSERT INTO fee_definitions (id, academic_year_id, label, fee_type, amount, scope_type, class_id, level, mandatory, due_date, active, created_at, updated_at)
        VALUES (:id, :academic_year_id, :label, :fee_type, :amount, :scope_type, :class_id, :level, :mandatory, :due_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee definition: %w", err)
	}
	return nil
}

// Update modifies an existing fee definition.
func (r *FeeRepository) Update(ctx context.Context, fee *models.FeeDefinition) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_definitions SET label = :label, fee_type = :fee_type, amount = :amount, scope_type = :scope_type,
        class_id = :class_id, level = :level, mandatory = :mandatory, due_date = :due_date, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee definition: %w", err)
	}
	return nil
}

// Deactivate soft-disables a fee definition. Definitions referenced by
// payments stay in place so historical aggregates keep their meaning.
func (r *FeeRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE fee_definitions SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate fee definition: %w", err)
	}
	return nil
}

// HasPayments reports whether any payment references the fee definition.
func (r *FeeRepository) HasPayments(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM payments WHERE fee_id = $1 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check fee payments: %w", err)
	}
	return true, nil
}

// CountOrphanClassScopes counts active class-scoped definitions of a year
// whose class no longer exists. A non-zero result means the ledger cannot
// aggregate that year reliably.
func (r *FeeRepository) CountOrphanClassScopes(ctx context.Context, academicYearID string) (int, error) {
	const query = `SELECT COUNT(*) FROM fee_definitions f
        LEFT JOIN classes c ON c.id = f.class_id
        WHERE f.academic_year_id = $1 AND f.active = TRUE AND f.scope_type = $2 AND c.id IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, academicYearID, models.FeeScopeClass); err != nil {
		return 0, fmt.Errorf("count orphan fee scopes: %w", err)
	}
	return count, nil
}
