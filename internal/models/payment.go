package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	BaseModel
	Email         string          `gorm:"type:varchar(255);not null;index" json:"email"`
	Price         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Coins         int64           `gorm:"not null" json:"coins"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	TransactionID *string         `gorm:"type:varchar(255);uniqueIndex" json:"transactionId,omitempty"` // NULL, если клиент не передал
}

// TempPurchase - незавершенная покупка, одна на email (последняя запись побеждает)
type TempPurchase struct {
	Email     string          `gorm:"type:varchar(255);primaryKey" json:"email"`
	Price     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Coins     int64           `gorm:"not null" json:"coins"`
	UpdatedAt time.Time       `gorm:"index" json:"updatedAt"`
}
