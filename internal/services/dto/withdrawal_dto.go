package dto

import (
	"picoworker_backend/internal/models"

	"github.com/shopspring/decimal"
)

type WithdrawRequest struct {
	Coins         int64           `json:"withdrawalCoin" validate:"required,gt=0"`
	PayoutAmount  decimal.Decimal `json:"withdrawalAmount" validate:"gte=0"`
	PaymentSystem string          `json:"paymentSystem" validate:"required,max=50"`
	AccountNumber string          `json:"accountNumber" validate:"required,max=100"`
	WorkerName    string          `json:"workerName" validate:"max=255"`
}

type WithdrawalListResponse struct {
	Requests    []models.WithdrawalRequest `json:"requests"`
	TotalCount  int64                      `json:"totalCount"`
	TotalPages  int                        `json:"totalPages"`
	CurrentPage int                        `json:"currentPage"`
}

type SettlementResponse struct {
	RequestID    string          `json:"requestId"`
	WorkerEmail  string          `json:"workerEmail"`
	Coins        int64           `json:"coins"`
	PayoutAmount decimal.Decimal `json:"payoutAmount"`
	BalanceAfter int64           `json:"balanceAfter"`
}
