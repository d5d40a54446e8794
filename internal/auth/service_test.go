package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkowalczyk/terrastock-backend/internal/users"
	pkgauth "github.com/mkowalczyk/terrastock-backend/pkg/auth"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/security"
)

type fakeSessions struct {
	created []string
	revoked []string
}

func (f *fakeSessions) Create(_ context.Context, accessID string) error {
	f.created = append(f.created, accessID)
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "terrastock-test",
		ExpirationMinutes: 60,
	}
}

func setupAuthService(t *testing.T) (*Service, *users.Repository, *fakeSessions) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}))

	repo := users.NewRepository(gdb)
	sessions := &fakeSessions{}
	svc := NewService(ServiceParams{
		Users:    repo,
		Sessions: sessions,
		JWTCfg:   testJWTConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *users.Repository, email, password string, active bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)

	user, err := repo.Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Keeper",
		IsActive:     active,
	})
	require.NoError(t, err)
	return user
}

func TestLoginSuccess(t *testing.T) {
	svc, repo, sessions := setupAuthService(t)
	seedUser(t, repo, "keeper@example.com", "correct horse battery", true)

	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Keeper@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.Equal(t, "Bearer", result.TokenType)
	require.Equal(t, int64(3600), result.ExpiresIn)
	require.Equal(t, "keeper@example.com", result.User.Email)
	require.Len(t, sessions.created, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID.String())
	require.Equal(t, sessions.created[0], claims.ID)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	svc, repo, _ := setupAuthService(t)
	user := seedUser(t, repo, "keeper@example.com", "correct horse battery", true)
	require.Nil(t, user.LastLoginAt)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "keeper@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, sessions := setupAuthService(t)
	seedUser(t, repo, "keeper@example.com", "correct horse battery", true)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "keeper@example.com",
		Password: "wrong",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	require.Equal(t, "invalid credentials", typed.Message())
	require.Empty(t, sessions.created)
}

func TestLoginUnknownEmailMatchesWrongPasswordShape(t *testing.T) {
	svc, _, _ := setupAuthService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	require.Equal(t, "invalid credentials", typed.Message())
}

func TestLoginInactiveUser(t *testing.T) {
	svc, repo, _ := setupAuthService(t)
	seedUser(t, repo, "keeper@example.com", "correct horse battery", false)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "keeper@example.com",
		Password: "correct horse battery",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := setupAuthService(t)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	require.Equal(t, []string{"access-123"}, sessions.revoked)
}

func TestLogoutWithoutAccessIDIsNoOp(t *testing.T) {
	svc, _, sessions := setupAuthService(t)

	require.NoError(t, svc.Logout(context.Background(), ""))
	require.Empty(t, sessions.revoked)
}
