package repositories

import (
	"picoworker_backend/internal/models"

	"gorm.io/gorm"
)

// Типы уведомлений
const (
	NotificationTypeSubmissionApproved = "submission_approved"
	NotificationTypeSubmissionRejected = "submission_rejected"
	NotificationTypeWithdrawalSettled  = "withdrawal_settled"
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification) error
	ListForRecipient(db *gorm.DB, email string, limit int) ([]models.Notification, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) error {
	return db.Create(notification).Error
}

// ListForRecipient - новые сверху
func (r *NotificationRepositoryImpl) ListForRecipient(db *gorm.DB, email string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("recipient = ?", email).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
