package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type mockParameterRepo struct {
	stored   map[string]*models.Parameter
	upserted []models.Parameter
}

func (m *mockParameterRepo) ListByKeys(ctx context.Context, keys []string) ([]models.Parameter, error) {
	var params []models.Parameter
	for _, key := range keys {
		if p, ok := m.stored[key]; ok {
			params = append(params, *p)
		}
	}
	return params, nil
}

func (m *mockParameterRepo) Get(ctx context.Context, key string) (*models.Parameter, error) {
	if p, ok := m.stored[key]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParameterRepo) Upsert(ctx context.Context, param *models.Parameter) error {
	if m.stored == nil {
		m.stored = make(map[string]*models.Parameter)
	}
	cp := *param
	m.stored[param.Key] = &cp
	m.upserted = append(m.upserted, cp)
	return nil
}

func TestParameterServiceListMergesDefaults(t *testing.T) {
	repo := &mockParameterRepo{stored: map[string]*models.Parameter{
		models.ParamElevatedThreshold: {Key: models.ParamElevatedThreshold, Value: "60000", Type: models.ParameterTypeAmount},
	}}
	service := NewParameterService(repo, nil)

	params, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, params, 3)

	byKey := map[string]models.Parameter{}
	for _, p := range params {
		byKey[p.Key] = p
	}
	assert.Equal(t, "60000", byKey[models.ParamElevatedThreshold].Value)
	assert.Equal(t, "100000", byKey[models.ParamCriticalThreshold].Value)
}

func TestParameterServiceUpdateThreshold(t *testing.T) {
	repo := &mockParameterRepo{}
	service := NewParameterService(repo, nil)

	param, err := service.Update(context.Background(), models.ParamElevatedThreshold, UpdateParameterRequest{
		Value:     "60000",
		UpdatedBy: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "60000", param.Value)
	require.NotNil(t, param.UpdatedBy)
	assert.Equal(t, "user-1", *param.UpdatedBy)
	require.Len(t, repo.upserted, 1)
}

func TestParameterServiceUpdateRejectsMisorderedThreshold(t *testing.T) {
	repo := &mockParameterRepo{}
	service := NewParameterService(repo, nil)

	// Default critical is 100000; an equal or greater elevated must fail.
	_, err := service.Update(context.Background(), models.ParamElevatedThreshold, UpdateParameterRequest{Value: "100000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)

	_, err = service.Update(context.Background(), models.ParamCriticalThreshold, UpdateParameterRequest{Value: "40000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)
	assert.Empty(t, repo.upserted)
}

func TestParameterServiceUpdateUnknownKey(t *testing.T) {
	service := NewParameterService(&mockParameterRepo{}, nil)

	_, err := service.Update(context.Background(), "grace_period", UpdateParameterRequest{Value: "10"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestParameterServiceUpdateInvalidAmount(t *testing.T) {
	service := NewParameterService(&mockParameterRepo{}, nil)

	_, err := service.Update(context.Background(), models.ParamElevatedThreshold, UpdateParameterRequest{Value: "beaucoup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestParameterServiceUpdateSignature(t *testing.T) {
	repo := &mockParameterRepo{}
	service := NewParameterService(repo, nil)

	param, err := service.Update(context.Background(), "reminder_signature", UpdateParameterRequest{Value: "Le Service Comptable"})
	require.NoError(t, err)
	assert.Equal(t, models.ParameterTypeString, param.Type)
}
