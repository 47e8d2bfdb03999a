package services

import (
	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/email"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/payment"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	UserService         UserService
	AuthService         AuthService
	TaskService         TaskService
	SubmissionService   SubmissionService
	WithdrawalService   WithdrawalService
	PaymentService      PaymentService
	NotificationService NotificationService
	Tokens              *auth.TokenManager
}

// Dependencies - внешние коллабораторы, которые подменяются в тестах
type Dependencies struct {
	Gateway payment.Gateway
	Mailer  email.Provider
	Pusher  NotificationPusher
}

// NewServiceContainer собирает репозитории и сервисы
func NewServiceContainer(cfg *config.Config, deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	taskRepo := repositories.NewTaskRepository()
	submissionRepo := repositories.NewSubmissionRepository()
	withdrawalRepo := repositories.NewWithdrawalRepository()
	paymentRepo := repositories.NewPaymentRepository()
	notificationRepo := repositories.NewNotificationRepository()
	ledgerRepo := repositories.NewLedgerRepository()

	gateway := deps.Gateway
	if gateway == nil {
		gateway = payment.NewGateway(cfg.Payment.StripeSecretKey)
	}

	ledger := NewLedger(userRepo, ledgerRepo)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	notificationService := NewNotificationService(notificationRepo, deps.Pusher, deps.Mailer)

	return &ServiceContainer{
		UserService:         NewUserService(userRepo, taskRepo, submissionRepo, paymentRepo, ledgerRepo, ledger, cfg.Ledger),
		AuthService:         NewAuthService(userRepo, tokens, cfg.JWT.IssuerKey),
		TaskService:         NewTaskService(taskRepo, ledger),
		SubmissionService:   NewSubmissionService(submissionRepo, taskRepo, notificationRepo, ledger, notificationService),
		WithdrawalService:   NewWithdrawalService(withdrawalRepo, notificationRepo, ledger, notificationService, cfg.Ledger),
		PaymentService:      NewPaymentService(paymentRepo, ledger, gateway, cfg.Payment.Currency, cfg.Ledger.PurchaseCoinsPerDollar),
		NotificationService: notificationService,
		Tokens:              tokens,
	}
}
