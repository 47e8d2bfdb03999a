package auth

import "picoworker_backend/internal/models"

// Capability - право, которое несет токен. Все проверки доступа идут через Can.
type Capability string

const (
	CapTaskWrite         Capability = "task:write"
	CapSubmissionCreate  Capability = "submission:create"
	CapSubmissionReview  Capability = "submission:review"
	CapWithdrawalRequest Capability = "withdrawal:request"
	CapWithdrawalSettle  Capability = "withdrawal:settle"
	CapPaymentPurchase   Capability = "payment:purchase"
	CapUsersManage       Capability = "users:manage"
	CapLedgerAudit       Capability = "ledger:audit"
	CapActOnAnyResource  Capability = "resource:any"
)

// Permissions - права каждой роли
var Permissions = map[models.UserRole][]Capability{
	models.UserRoleWorker: {
		CapSubmissionCreate,
		CapWithdrawalRequest,
	},
	models.UserRoleTaskCreator: {
		CapTaskWrite,
		CapSubmissionReview,
		CapPaymentPurchase,
	},
	models.UserRoleAdmin: {
		CapTaskWrite,
		CapSubmissionReview,
		CapWithdrawalSettle,
		CapPaymentPurchase,
		CapUsersManage,
		CapLedgerAudit,
		CapActOnAnyResource,
	},
}

// CapabilitiesFor возвращает копию списка прав роли
func CapabilitiesFor(role models.UserRole) []Capability {
	caps := Permissions[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Can проверяет право, записанное в токене
func (c *Claims) Can(capability Capability) bool {
	if c == nil {
		return false
	}
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// IsAdmin - может ли вызывающий действовать над чужими ресурсами
func (c *Claims) IsAdmin() bool {
	return c.Can(CapActOnAnyResource)
}

// Owns - вызывающий владеет ресурсом или является администратором
func (c *Claims) Owns(ownerEmail string) bool {
	if c == nil {
		return false
	}
	return c.Email == ownerEmail || c.IsAdmin()
}
