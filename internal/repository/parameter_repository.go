package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// ParameterRepository persists entries of the recouvrement_parametres store.
type ParameterRepository struct {
	db *sqlx.DB
}

// NewParameterRepository constructs the repository.
func NewParameterRepository(db *sqlx.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// ListByKeys returns parameters whose key is in the provided slice.
func (r *ParameterRepository) ListByKeys(ctx context.Context, keys []string) ([]models.Parameter, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT key, value, type, description, updated_by, updated_at
FROM recouvrement_parametres WHERE key IN (%s) ORDER BY key ASC`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var params []models.Parameter
	if err := r.db.SelectContext(ctx, &params, query, args...); err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	return params, nil
}

// Get fetches a single parameter by key.
func (r *ParameterRepository) Get(ctx context.Context, key string) (*models.Parameter, error) {
	const query = `SELECT key, value, type, description, updated_by, updated_at FROM recouvrement_parametres WHERE key = $1`
	var param models.Parameter
	if err := r.db.GetContext(ctx, &param, query, key); err != nil {
		return nil, err
	}
	return &param, nil
}

// Upsert inserts or updates a parameter entry.
func (r *ParameterRepository) Upsert(ctx context.Context, param *models.Parameter) error {
	const query = `INSERT INTO recouvrement_parametres (key, value, type, description, updated_by, updated_at)
VALUES (:key, :value, :type, :description, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, description = EXCLUDED.description,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	param.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, param); err != nil {
		return fmt.Errorf("upsert parameter: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
