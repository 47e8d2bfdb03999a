package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/internal/services/payment"
	"picoworker_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, caller *auth.Claims, req *dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error)
	RecordPayment(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.RecordPaymentRequest) (*models.Payment, error)
	ListPayments(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) ([]models.Payment, error)

	StageTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.TempPurchaseRequest) (*models.TempPurchase, error)
	FetchTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims) (*models.TempPurchase, error)
	ClearTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims) (int64, error)
	PurgeStaleTempPurchases(ctx context.Context, db *gorm.DB, ttl time.Duration) (int64, error)
}

type paymentService struct {
	paymentRepo    repositories.PaymentRepository
	ledger         *Ledger
	gateway        payment.Gateway
	currency       string
	coinsPerDollar int64
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	ledger *Ledger,
	gateway payment.Gateway,
	currency string,
	coinsPerDollar int64,
) PaymentService {
	return &paymentService{
		paymentRepo:    paymentRepo,
		ledger:         ledger,
		gateway:        gateway,
		currency:       strings.ToLower(currency),
		coinsPerDollar: coinsPerDollar,
	}
}

// MinorUnits = round(price * 100)
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CoinsFor - сколько монет положено за цену по курсу покупки
func CoinsFor(price decimal.Decimal, coinsPerDollar int64) decimal.Decimal {
	return price.Round(2).Mul(decimal.NewFromInt(coinsPerDollar))
}

// checkPurchase: монеты должны соответствовать оплаченной сумме
func (s *paymentService) checkPurchase(price decimal.Decimal, coins int64) error {
	if !price.IsPositive() || MinorUnits(price) <= 0 {
		return apperrors.ErrInvalidPaymentAmount
	}
	if !CoinsFor(price, s.coinsPerDollar).Equal(decimal.NewFromInt(coins)) {
		return validationFailed("coins", fmt.Sprintf("must equal price * %d", s.coinsPerDollar))
	}
	return nil
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, caller *auth.Claims, req *dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	if err := authorize(caller, auth.CapPaymentPurchase); err != nil {
		return nil, err
	}
	amount := MinorUnits(req.Price)
	if amount <= 0 {
		return nil, apperrors.ErrInvalidPaymentAmount
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		logger.CtxWithError(ctx, "Payment gateway failed", err, "amount", amount)
		return nil, apperrors.GatewayError(err)
	}

	return &dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

// RecordPayment: вставка платежа, начисление монет и очистка черновика покупки - одна транзакция.
// Повтор с тем же transactionId возвращает уже записанный платеж без второго начисления;
// гонку двух повторов разрешает уникальный индекс transaction_id.
func (s *paymentService) RecordPayment(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.RecordPaymentRequest) (*models.Payment, error) {
	if err := authorize(caller, auth.CapPaymentPurchase); err != nil {
		return nil, err
	}
	if err := s.checkPurchase(req.Price, req.Coins); err != nil {
		return nil, err
	}

	var transactionID *string
	if req.TransactionID != "" {
		transactionID = &req.TransactionID
	}

	var record *models.Payment
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		record = nil

		if transactionID != nil {
			existing, err := s.recorded(tx, caller, *transactionID)
			if err == nil {
				record = existing
				return nil
			}
			if !errors.Is(err, repositories.ErrPaymentNotFound) {
				return err
			}
		}

		p := &models.Payment{
			Email:         caller.Email,
			Price:         req.Price.Round(2),
			Coins:         req.Coins,
			Status:        models.PaymentStatusPaid,
			TransactionID: transactionID,
		}
		if err := s.paymentRepo.Create(tx, p); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(tx, caller.Email, req.Coins, models.LedgerPurchase, p.ID); err != nil {
			return apperrors.ErrPartialWrite(err, "payment", map[string]any{"paymentId": p.ID})
		}
		if _, err := s.paymentRepo.DeleteTemp(tx, caller.Email); err != nil {
			return err
		}
		record = p
		return nil
	})
	if errors.Is(err, repositories.ErrDuplicateTransaction) {
		// параллельный запрос записал тот же transactionId раньше
		err = runRead(ctx, db, func(db *gorm.DB) error {
			var err error
			record, err = s.recorded(db, caller, *transactionID)
			return err
		})
	}
	if err != nil {
		return nil, handlePaymentError(err)
	}

	logger.CtxInfo(ctx, "Payment recorded", "payment_id", record.ID, "coins", record.Coins)
	return record, nil
}

// recorded ищет платеж по transactionId; чужой платеж - Conflict
func (s *paymentService) recorded(db *gorm.DB, caller *auth.Claims, transactionID string) (*models.Payment, error) {
	existing, err := s.paymentRepo.FindByTransactionID(db, transactionID)
	if err != nil {
		return nil, err
	}
	if existing.Email != caller.Email {
		return nil, apperrors.ErrConflict(nil, "payment", "Transaction already recorded for another account")
	}
	return existing, nil
}

func (s *paymentService) ListPayments(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) ([]models.Payment, error) {
	if err := requireOwner(caller, email); err != nil {
		return nil, err
	}

	var payments []models.Payment
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		payments, err = s.paymentRepo.ListByEmail(db, email)
		return err
	})
	if err != nil {
		return nil, handlePaymentError(err)
	}
	return payments, nil
}

func (s *paymentService) StageTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.TempPurchaseRequest) (*models.TempPurchase, error) {
	if err := authorize(caller, auth.CapPaymentPurchase); err != nil {
		return nil, err
	}
	if err := s.checkPurchase(req.Price, req.Coins); err != nil {
		return nil, err
	}

	purchase := &models.TempPurchase{
		Email: caller.Email,
		Price: req.Price.Round(2),
		Coins: req.Coins,
	}
	err := runRead(ctx, db, func(db *gorm.DB) error {
		return s.paymentRepo.UpsertTemp(db, purchase)
	})
	if err != nil {
		return nil, handlePaymentError(err)
	}
	return purchase, nil
}

func (s *paymentService) FetchTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims) (*models.TempPurchase, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var purchase *models.TempPurchase
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		purchase, err = s.paymentRepo.FindTemp(db, caller.Email)
		return err
	})
	if err != nil {
		return nil, handlePaymentError(err)
	}
	return purchase, nil
}

func (s *paymentService) ClearTempPurchase(ctx context.Context, db *gorm.DB, caller *auth.Claims) (int64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}

	var deleted int64
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		deleted, err = s.paymentRepo.DeleteTemp(db, caller.Email)
		return err
	})
	if err != nil {
		return 0, handlePaymentError(err)
	}
	return deleted, nil
}

// PurgeStaleTempPurchases вызывается фоновым воркером
func (s *paymentService) PurgeStaleTempPurchases(ctx context.Context, db *gorm.DB, ttl time.Duration) (int64, error) {
	var deleted int64
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		deleted, err = s.paymentRepo.DeleteTempOlderThan(db, time.Now().Add(-ttl))
		return err
	})
	if err != nil {
		return 0, handlePaymentError(err)
	}
	return deleted, nil
}
