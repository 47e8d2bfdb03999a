package dto

import (
	"time"

	"picoworker_backend/internal/models"

	"github.com/shopspring/decimal"
)

type RegisterUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required,max=255"`
	PhotoURL string          `json:"photoUrl" validate:"omitempty,url"`
	Role     models.UserRole `json:"role" validate:"required,is-user-role"`
}

// RegisterResponse повторяет ответ вставки: insertedId == nil, если пользователь уже был
type RegisterResponse struct {
	Message    string       `json:"message,omitempty"`
	InsertedID *string      `json:"insertedId"`
	User       *models.User `json:"user,omitempty"`
}

type TokenRequest struct {
	Email     string `json:"email" validate:"required,email"`
	IssuerKey string `json:"-"` // из заголовка X-Issuer-Key
}

type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Role      models.UserRole `json:"role"`
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,is-any-role"`
}

type UserListResponse struct {
	Users       []models.User `json:"users"`
	TotalCount  int64         `json:"totalCount"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

type AdminStatsResponse struct {
	TotalWorkers       int64           `json:"totalWorkers"`
	TotalTaskCreators  int64           `json:"totalTaskCreators"`
	TotalCoins         int64           `json:"totalCoins"`
	TotalPayments      decimal.Decimal `json:"totalPayments"`
	TotalTasks         int64           `json:"totalTasks"`
	PendingSubmissions int64           `json:"pendingSubmissions"`
}

type LedgerReconcileResponse struct {
	Email      string `json:"email"`
	Balance    int64  `json:"balance"`
	JournalSum int64  `json:"journalSum"`
	Drift      int64  `json:"drift"`
}

type LedgerHistoryResponse struct {
	Entries     []models.LedgerEntry `json:"entries"`
	TotalCount  int64                `json:"totalCount"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}
