package dto

import "github.com/shopspring/decimal"

type PaymentIntentRequest struct {
	Price decimal.Decimal `json:"price" validate:"gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"intentId,omitempty"`
}

type RecordPaymentRequest struct {
	Price         decimal.Decimal `json:"price" validate:"gt=0"`
	Coins         int64           `json:"coins" validate:"required,gt=0"`
	TransactionID string          `json:"transactionId" validate:"max=255"`
}

type TempPurchaseRequest struct {
	Price decimal.Decimal `json:"price" validate:"gt=0"`
	Coins int64           `json:"coins" validate:"required,gt=0"`
}
