package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bug-tracker/internal/config"
	"github.com/spec-kit/bug-tracker/internal/domain"
	apperrors "github.com/spec-kit/bug-tracker/pkg/util"
)

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}}
	return NewAuthService(cfg, users), users
}

func TestAuthRegisterDefaultsToReporter(t *testing.T) {
	svc, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Rita", "rita@example.com", "hunter22", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleReporter, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "Rita", "rita@example.com", "hunter22", nil)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "rita@example.com", "password1", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestAuthLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture()
	role := domain.UserRoleDeveloper
	registered, err := svc.Register(context.Background(), "Dan", "dan@example.com", "hunter22", &role)
	require.NoError(t, err)

	user, token, exp, err := svc.Login(context.Background(), "dan@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, domain.UserRoleDeveloper, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), "Dan", "dan@example.com", "hunter22", nil)
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "dan@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}
