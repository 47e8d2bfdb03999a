package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"picoworker_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure is retried", func(t *testing.T) {
		calls := 0
		err := retryOnce(ctx, func() error {
			calls++
			if calls == 1 {
				return driver.ErrBadConn
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("second transient failure is service unavailable", func(t *testing.T) {
		calls := 0
		err := retryOnce(ctx, func() error {
			calls++
			return driver.ErrBadConn
		})
		assert.Equal(t, 2, calls)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceUnavailable))
	})

	t.Run("domain errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := retryOnce(ctx, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}
