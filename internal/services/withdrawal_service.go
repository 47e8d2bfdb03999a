package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.WithdrawRequest) (*models.WithdrawalRequest, error)
	SettleWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, requestID string) (*dto.SettlementResponse, error)
	CancelWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, requestID string) error
	ListAllRequests(ctx context.Context, db *gorm.DB, caller *auth.Claims, pagination dto.Pagination) (*dto.WithdrawalListResponse, error)
	ListMyRequests(ctx context.Context, db *gorm.DB, caller *auth.Claims) ([]models.WithdrawalRequest, error)
}

type withdrawalService struct {
	withdrawalRepo   repositories.WithdrawalRepository
	notificationRepo repositories.NotificationRepository
	ledger           *Ledger
	notifier         NotificationService
	cfg              config.LedgerConfig
}

func NewWithdrawalService(
	withdrawalRepo repositories.WithdrawalRepository,
	notificationRepo repositories.NotificationRepository,
	ledger *Ledger,
	notifier NotificationService,
	cfg config.LedgerConfig,
) WithdrawalService {
	return &withdrawalService{
		withdrawalRepo:   withdrawalRepo,
		notificationRepo: notificationRepo,
		ledger:           ledger,
		notifier:         notifier,
		cfg:              cfg,
	}
}

// PayoutFor переводит монеты в деньги по курсу coins_per_dollar, с округлением до центов
func PayoutFor(coins, coinsPerDollar int64) decimal.Decimal {
	return decimal.NewFromInt(coins).Div(decimal.NewFromInt(coinsPerDollar)).Round(2)
}

// RequestWithdrawal резервирует монеты условным UPDATE, поэтому
// параллельные заявки одного исполнителя не могут превысить баланс.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.WithdrawRequest) (*models.WithdrawalRequest, error) {
	if err := authorize(caller, auth.CapWithdrawalRequest); err != nil {
		return nil, err
	}
	if req.Coins < s.cfg.MinWithdrawCoins {
		return nil, validationFailed("withdrawalCoin", fmt.Sprintf("must be at least %d", s.cfg.MinWithdrawCoins))
	}

	payout := PayoutFor(req.Coins, s.cfg.CoinsPerDollar)
	if !req.PayoutAmount.IsZero() && !req.PayoutAmount.Equal(payout) {
		return nil, validationFailed("withdrawalAmount", fmt.Sprintf("must equal %s for %d coins", payout.StringFixed(2), req.Coins))
	}

	var request *models.WithdrawalRequest
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		if err := s.ledger.Reserve(tx, caller.Email, req.Coins); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrInsufficientFunds(err)
			}
			return err
		}

		request = &models.WithdrawalRequest{
			WorkerEmail:   caller.Email,
			WorkerName:    req.WorkerName,
			Coins:         req.Coins,
			PayoutAmount:  payout,
			PaymentSystem: req.PaymentSystem,
			AccountNumber: req.AccountNumber,
			RequestedAt:   time.Now(),
		}
		return s.withdrawalRepo.Create(tx, request)
	})
	if err != nil {
		return nil, handleWithdrawalError(err)
	}

	logger.CtxInfo(ctx, "Withdrawal requested", "request_id", request.ID, "coins", request.Coins)
	return request, nil
}

// SettleWithdrawal: удаление заявки, списание резерва, доход и журнал - одна транзакция
func (s *withdrawalService) SettleWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, requestID string) (*dto.SettlementResponse, error) {
	if err := authorize(caller, auth.CapWithdrawalSettle); err != nil {
		return nil, err
	}

	var (
		resp *dto.SettlementResponse
		note *models.Notification
	)
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		request, err := s.withdrawalRepo.FindByID(tx, requestID)
		if err != nil {
			return err
		}
		// удаление - это захват заявки: параллельное исполнение получит NotFound
		if err := s.withdrawalRepo.Delete(tx, request.ID); err != nil {
			return err
		}

		balance, err := s.ledger.Settle(tx, request.WorkerEmail, request.Coins, request.PayoutAmount, request.ID)
		if err != nil {
			return err
		}

		note, err = s.appendSettledNotification(tx, request)
		if err != nil {
			return err
		}

		resp = &dto.SettlementResponse{
			RequestID:    request.ID,
			WorkerEmail:  request.WorkerEmail,
			Coins:        request.Coins,
			PayoutAmount: request.PayoutAmount,
			BalanceAfter: balance,
		}
		return nil
	})
	if err != nil {
		return nil, handleWithdrawalError(err)
	}

	logger.CtxInfo(ctx, "Withdrawal settled", "request_id", resp.RequestID, "coins", resp.Coins, "payout", resp.PayoutAmount.String())
	s.notifier.Dispatch(ctx, note)
	return resp, nil
}

func (s *withdrawalService) appendSettledNotification(tx *gorm.DB, request *models.WithdrawalRequest) (*models.Notification, error) {
	payload, err := json.Marshal(map[string]any{
		"requestId": request.ID,
		"coins":     request.Coins,
		"payout":    request.PayoutAmount,
	})
	if err != nil {
		return nil, err
	}

	note := &models.Notification{
		Recipient: request.WorkerEmail,
		Type:      repositories.NotificationTypeWithdrawalSettled,
		Message: fmt.Sprintf("Your withdrawal of %d coins ($%s via %s) has been paid",
			request.Coins, request.PayoutAmount.StringFixed(2), request.PaymentSystem),
		ActionRoute: "/dashboard/withdrawals",
		Data:        datatypes.JSON(payload),
	}
	if err := s.notificationRepo.Create(tx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// CancelWithdrawal удаляет заявку и снимает резерв
func (s *withdrawalService) CancelWithdrawal(ctx context.Context, db *gorm.DB, caller *auth.Claims, requestID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	err := runTx(ctx, db, func(tx *gorm.DB) error {
		request, err := s.withdrawalRepo.FindByID(tx, requestID)
		if err != nil {
			return err
		}
		if err := requireOwner(caller, request.WorkerEmail); err != nil {
			return err
		}
		if err := s.withdrawalRepo.Delete(tx, request.ID); err != nil {
			return err
		}
		return s.ledger.Release(tx, request.WorkerEmail, request.Coins)
	})
	if err != nil {
		return handleWithdrawalError(err)
	}

	logger.CtxInfo(ctx, "Withdrawal cancelled", "request_id", requestID)
	return nil
}

func (s *withdrawalService) ListAllRequests(ctx context.Context, db *gorm.DB, caller *auth.Claims, pagination dto.Pagination) (*dto.WithdrawalListResponse, error) {
	if err := authorize(caller, auth.CapWithdrawalSettle); err != nil {
		return nil, err
	}

	var (
		requests []models.WithdrawalRequest
		total    int64
	)
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		requests, total, err = s.withdrawalRepo.List(db, pagination.Offset(), pagination.Limit)
		return err
	})
	if err != nil {
		return nil, handleWithdrawalError(err)
	}

	return &dto.WithdrawalListResponse{
		Requests:    requests,
		TotalCount:  total,
		TotalPages:  pagination.TotalPages(total),
		CurrentPage: pagination.Page,
	}, nil
}

func (s *withdrawalService) ListMyRequests(ctx context.Context, db *gorm.DB, caller *auth.Claims) ([]models.WithdrawalRequest, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var requests []models.WithdrawalRequest
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		requests, err = s.withdrawalRepo.ListByWorker(db, caller.Email)
		return err
	})
	if err != nil {
		return nil, handleWithdrawalError(err)
	}
	return requests, nil
}
