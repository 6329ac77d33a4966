package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc, err := NewAuthService(NewValidator(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "pa-broadcaster",
		Username:          "admin",
		Password:          "admin123",
	})
	require.NoError(t, err)
	return svc
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newTestAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.Equal(t, "pa-broadcaster", claims.Issuer)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "root", Password: "admin123"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "", Password: ""})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceUsesConfiguredHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret", Username: "ops", PasswordHash: string(hash)})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "ops", Password: "s3cret"})
	require.NoError(t, err)

	_, err = NewAuthService(nil, nil, AuthConfig{Username: "ops", PasswordHash: "not-a-hash"})
	require.Error(t, err)
	_, err = NewAuthService(nil, nil, AuthConfig{Username: "ops"})
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateToken("garbage")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{Username: "admin", Role: models.RoleOperator})
	signed, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	wrongRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{Username: "admin", Role: "viewer"})
	signed, err = wrongRole.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
