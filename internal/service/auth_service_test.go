package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	lastLogins []string
	audits     []models.AuditLog
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func authFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "bursar@scolaris.test",
			FullName:     "Aissatou Diop",
			PasswordHash: string(hash),
			Role:         models.RoleBursar,
			Active:       true,
		},
	}}
	service := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "recouvrement-api",
	})
	return service, repo
}

func TestAuthServiceLogin(t *testing.T) {
	service, repo := authFixture(t)

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "bursar@scolaris.test",
		Password: "s3cret!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleBursar, resp.User.Role)
	assert.Equal(t, []string{"user-1"}, repo.lastLogins)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	service, _ := authFixture(t)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "bursar@scolaris.test",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	service, _ := authFixture(t)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@scolaris.test",
		Password: "s3cret!",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	service, repo := authFixture(t)
	repo.users["user-1"].Active = false

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "bursar@scolaris.test",
		Password: "s3cret!",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceValidateToken(t *testing.T) {
	service, _ := authFixture(t)

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "bursar@scolaris.test",
		Password: "s3cret!",
	})
	require.NoError(t, err)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleBursar, claims.Role)
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	service, _ := authFixture(t)

	_, err := service.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
