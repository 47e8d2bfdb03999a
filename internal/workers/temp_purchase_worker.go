package workers

import (
	"context"
	"time"

	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/services"

	"gorm.io/gorm"
)

// TempPurchaseWorker удаляет брошенные черновики покупок старше ttl
type TempPurchaseWorker struct {
	db       *gorm.DB
	payments services.PaymentService
	ttl      time.Duration
	interval time.Duration
}

func NewTempPurchaseWorker(db *gorm.DB, payments services.PaymentService, ttl, interval time.Duration) *TempPurchaseWorker {
	return &TempPurchaseWorker{
		db:       db,
		payments: payments,
		ttl:      ttl,
		interval: interval,
	}
}

// Start запускает фоновую очистку; остановка - отменой ctx
func (w *TempPurchaseWorker) Start(ctx context.Context) {
	go w.purgeLoop(ctx)
}

func (w *TempPurchaseWorker) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Temp purchase worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход очистки, возвращает число удаленных записей
func (w *TempPurchaseWorker) RunOnce(ctx context.Context) int64 {
	deleted, err := w.payments.PurgeStaleTempPurchases(ctx, w.db, w.ttl)
	if err != nil {
		logger.WorkerLog("temp_purchase", "purge", err)
		return 0
	}
	if deleted > 0 {
		logger.WorkerLog("temp_purchase", "purge", nil, "deleted", deleted)
	}
	return deleted
}
