package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalRequest существует, пока заявка не исполнена или не отменена.
// Пока строка есть, Coins зарезервированы в users.reserved_coins.
type WithdrawalRequest struct {
	BaseModel
	WorkerEmail   string          `gorm:"type:varchar(255);not null;index" json:"workerEmail"`
	WorkerName    string          `gorm:"type:varchar(255)" json:"workerName"`
	Coins         int64           `gorm:"not null" json:"withdrawalCoin"`
	PayoutAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"withdrawalAmount"`
	PaymentSystem string          `gorm:"type:varchar(50);not null" json:"paymentSystem"`
	AccountNumber string          `gorm:"type:varchar(100);not null" json:"accountNumber"`
	RequestedAt   time.Time       `gorm:"not null" json:"withdrawDate"`
}
