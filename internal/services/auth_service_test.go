package services_test

import (
	"testing"
	"time"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RequiresIssuerKey(t *testing.T) {
	f := newFixture(t)
	f.register(t, "worker@test.com", models.UserRoleWorker)
	f.admin(t, "admin@test.com")
	tokens := f.svc.AuthService

	_, err := tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "worker@test.com"})
	assertCode(t, err, apperrors.CodeUnauthorized)

	_, err = tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "admin@test.com", IssuerKey: "wrong"})
	assertCode(t, err, apperrors.CodeUnauthorized)

	resp, err := tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "admin@test.com", IssuerKey: f.cfg.JWT.IssuerKey})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, resp.Role)

	claims, err := f.svc.Tokens.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.Can(auth.CapWithdrawalSettle))
}

func TestIssueToken_WithoutConfiguredKeyNeverIssuesAdmin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "worker@test.com", models.UserRoleWorker)
	f.admin(t, "admin@test.com")
	tokens := services.NewAuthService(repositories.NewUserRepository(), auth.NewTokenManager("secret", time.Hour), "")

	resp, err := tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "worker@test.com"})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleWorker, resp.Role)

	_, err = tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "admin@test.com"})
	assertCode(t, err, apperrors.CodeForbidden)

	// пустой ключ не совпадает с пустым настроенным
	_, err = tokens.IssueToken(f.ctx, f.db, &dto.TokenRequest{Email: "admin@test.com", IssuerKey: ""})
	assertCode(t, err, apperrors.CodeForbidden)
}
