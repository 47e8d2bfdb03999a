package apperrors

import (
	"net/http"
)

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus - переход состояния невозможен (409)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// ErrInsufficientFunds - на балансе недостаточно свободных монет
func ErrInsufficientFunds(err error) *AppError {
	return Wrap(err, CodeInsufficientFunds, "ledger", "Insufficient coins", http.StatusConflict)
}

// ErrPartialWrite - многошаговая операция откатилась, details указывают затронутые записи
func ErrPartialWrite(err error, domain string, details map[string]any) *AppError {
	return Wrap(err, CodeInternalError, domain, "Operation rolled back, nothing was applied", http.StatusInternalServerError).WithDetails(details)
}

// --- Auth ---

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrNotResourceOwner = New(
	CodeForbidden,
	"auth",
	"Caller does not own this resource",
	http.StatusForbidden,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// --- Tasks ---

var ErrTaskClosed = New(
	CodeInvalidStatus,
	"task",
	"Task is not open for submissions",
	http.StatusConflict,
)

var ErrTaskBudgetExhausted = New(
	CodeInsufficientFunds,
	"task",
	"Task budget is exhausted",
	http.StatusConflict,
)

// --- Payments ---

var ErrInvalidPaymentAmount = New(
	CodeValidationFailed,
	"payment",
	"Invalid payment amount",
	http.StatusBadRequest,
)
