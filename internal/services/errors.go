package services

import (
	"errors"
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// authorize - единая проверка прав, та же, что в middleware.RequireCapability
func authorize(caller *auth.Claims, capability auth.Capability) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.Can(capability) {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}

func requireCaller(caller *auth.Claims) error {
	if caller == nil || caller.Email == "" {
		return apperrors.NewUnauthorizedError("Authentication required")
	}
	return nil
}

func requireOwner(caller *auth.Claims, ownerEmail string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.Owns(ownerEmail) {
		return apperrors.ErrNotResourceOwner
	}
	return nil
}

func validationFailed(field, message string) error {
	return apperrors.ValidationError(map[string]string{field: message})
}

// handleRepoError переводит ошибки репозиториев в AppError.
// Уже готовые AppError проходят как есть.
func handleRepoError(err error) error {
	if alreadyMapped(err) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrTaskNotFound),
		errors.Is(err, repositories.ErrSubmissionNotFound),
		errors.Is(err, repositories.ErrWithdrawalNotFound),
		errors.Is(err, repositories.ErrTempPurchaseNotFound),
		errors.Is(err, repositories.ErrPaymentNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, repositories.ErrInsufficientCoins):
		return apperrors.ErrInsufficientFunds(err)
	case errors.Is(err, repositories.ErrReservationBroken):
		return apperrors.ErrConflict(err, "ledger", "Reserved coins no longer cover this request")
	case errors.Is(err, repositories.ErrTaskBudgetExhausted):
		return apperrors.ErrTaskBudgetExhausted.WithError(err)
	}
	return apperrors.InternalError(err)
}

// alreadyMapped: nil или уже AppError (его details важнее sentinel-ошибки внутри)
func alreadyMapped(err error) bool {
	if err == nil {
		return true
	}
	_, ok := apperrors.AsAppError(err)
	return ok
}

func notFound(err error, domain, message string) error {
	return apperrors.Wrap(err, apperrors.CodeNotFound, domain, message, http.StatusNotFound)
}

func handleUserError(err error) error {
	if alreadyMapped(err) {
		return err
	}
	if errors.Is(err, repositories.ErrUserNotFound) {
		return notFound(err, "user", "User not found")
	}
	return handleRepoError(err)
}

func handleTaskError(err error) error {
	if alreadyMapped(err) {
		return err
	}
	if errors.Is(err, repositories.ErrTaskNotFound) {
		return notFound(err, "task", "Task not found")
	}
	return handleUserError(err)
}

func handleSubmissionError(err error) error {
	if alreadyMapped(err) {
		return err
	}
	if errors.Is(err, repositories.ErrSubmissionNotFound) {
		return notFound(err, "submission", "Submission not found")
	}
	return handleTaskError(err)
}

func handleWithdrawalError(err error) error {
	if alreadyMapped(err) {
		return err
	}
	if errors.Is(err, repositories.ErrWithdrawalNotFound) {
		return notFound(err, "withdrawal", "Withdrawal request not found")
	}
	return handleUserError(err)
}

func handlePaymentError(err error) error {
	if alreadyMapped(err) {
		return err
	}
	if errors.Is(err, repositories.ErrTempPurchaseNotFound) {
		return notFound(err, "payment", "No staged purchase")
	}
	return handleUserError(err)
}
