//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"spotwise/internal/infra/docstore"
	"spotwise/internal/infra/notify"
	"spotwise/internal/pkg/jwt"
	"spotwise/internal/pkg/password"
	"spotwise/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (usecase.AuthUseCase, *notify.MemoryRegistry) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	memory := docstore.NewMemory(log)

	hashed, err := password.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, memory.Set(context.Background(), docstore.CollUsers, "u1", map[string]any{
		"email":          testEmail,
		"password":       hashed,
		"name":           "Dre Driver",
		"carPlateNumber": "ABC-1234",
	}, false))

	registry := notify.NewMemoryRegistry()
	jwtService := jwt.NewService("test-secret", time.Hour)
	return usecase.NewAuthUseCase(memory, jwtService, registry, log), registry
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	uc, registry := newAuthFixture(t)

	token, u, err := uc.Login(ctx, testEmail, "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, testEmail, u.Email)
	assert.Equal(t, "ABC-1234", u.CarPlateNumber)
	assert.True(t, registry.Registered(testEmail))

	email, err := uc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, email)
}

func TestLoginWrongPassword(t *testing.T) {
	uc, _ := newAuthFixture(t)

	_, _, err := uc.Login(context.Background(), testEmail, "not-it")
	require.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	uc, _ := newAuthFixture(t)

	_, _, err := uc.Login(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, usecase.ErrUserNotFound)
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	uc, _ := newAuthFixture(t)

	_, _, err := uc.Login(context.Background(), "not-an-email", "whatever")
	require.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestLoginSurvivesPushFailure(t *testing.T) {
	uc, registry := newAuthFixture(t)
	registry.FailWith(assert.AnError)

	token, _, err := uc.Login(context.Background(), testEmail, "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLogoutUnregistersDevice(t *testing.T) {
	ctx := context.Background()
	uc, registry := newAuthFixture(t)

	_, _, err := uc.Login(ctx, testEmail, "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, uc.Logout(ctx, testEmail))
	assert.False(t, registry.Registered(testEmail))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	uc, _ := newAuthFixture(t)

	_, err := uc.ValidateToken("garbage")
	require.ErrorIs(t, err, usecase.ErrTokenValidation)
}
