package auth

import (
	"testing"
	"time"

	"picoworker_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, expiresAt, err := m.GenerateToken("worker@test.com", models.UserRoleWorker)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "worker@test.com", claims.Email)
	assert.Equal(t, models.UserRoleWorker, claims.Role)
	assert.True(t, claims.Can(CapSubmissionCreate))
	assert.False(t, claims.Can(CapTaskWrite))
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, _, err := m.GenerateToken("worker@test.com", models.UserRoleWorker)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Hour).ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		_, err := m.ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestCapabilities(t *testing.T) {
	worker := NewClaims("w@test.com", models.UserRoleWorker)
	creator := NewClaims("c@test.com", models.UserRoleTaskCreator)
	admin := NewClaims("a@test.com", models.UserRoleAdmin)

	assert.True(t, worker.Can(CapWithdrawalRequest))
	assert.False(t, worker.Can(CapPaymentPurchase))
	assert.True(t, creator.Can(CapSubmissionReview))
	assert.False(t, creator.Can(CapWithdrawalSettle))
	assert.True(t, admin.Can(CapWithdrawalSettle))
	assert.True(t, admin.Can(CapLedgerAudit))

	assert.True(t, worker.Owns("w@test.com"))
	assert.False(t, worker.Owns("c@test.com"))
	assert.True(t, admin.Owns("c@test.com"))

	var nobody *Claims
	assert.False(t, nobody.Can(CapTaskWrite))
	assert.False(t, nobody.Owns("w@test.com"))

	// изменение копии не портит таблицу прав
	caps := CapabilitiesFor(models.UserRoleWorker)
	caps[0] = CapActOnAnyResource
	assert.False(t, NewClaims("w@test.com", models.UserRoleWorker).IsAdmin())
}
