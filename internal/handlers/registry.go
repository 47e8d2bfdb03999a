package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	TaskHandler         *TaskHandler
	SubmissionHandler   *SubmissionHandler
	WithdrawalHandler   *WithdrawalHandler
	PaymentHandler      *PaymentHandler
	NotificationHandler *NotificationHandler
}
