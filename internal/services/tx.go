package services

import (
	"context"

	"picoworker_backend/database"
	"picoworker_backend/internal/logger"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// retryOnce выполняет op и при обрыве связи с БД повторяет ровно один раз.
// Повторный обрыв превращается в ServiceUnavailable.
func retryOnce(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !database.IsTransient(err) {
		return err
	}

	logger.CtxWarn(ctx, "Transient storage error, retrying once", "error", err.Error())
	err = op()
	if err != nil && database.IsTransient(err) {
		logger.CtxWithError(ctx, "Storage unavailable after retry", err)
		return apperrors.ServiceUnavailable(err)
	}
	return err
}

// runTx выполняет fn в одной транзакции с контекстом запроса.
// fn может быть вызвана дважды, поэтому не должна накапливать состояние снаружи.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return retryOnce(ctx, func() error {
		return db.WithContext(ctx).Transaction(fn)
	})
}

// runRead - то же для чтений без транзакции
func runRead(ctx context.Context, db *gorm.DB, fn func(db *gorm.DB) error) error {
	return retryOnce(ctx, func() error {
		return fn(db.WithContext(ctx))
	})
}
