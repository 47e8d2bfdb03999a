package payment

import (
	"context"
	"errors"
)

// ErrGatewayDisabled - ключ провайдера не настроен
var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// Intent - созданное намерение оплаты
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway - внешний платежный провайдер
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
}

// DisabledGateway используется, когда ключ не задан
type DisabledGateway struct{}

func (DisabledGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	return nil, ErrGatewayDisabled
}
