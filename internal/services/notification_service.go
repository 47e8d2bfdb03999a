package services

import (
	"context"
	"log/slog"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/email"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"

	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

// NotificationPusher доставляет уведомление в открытые websocket-соединения получателя
type NotificationPusher interface {
	SendToUser(email string, payload interface{})
}

type NotificationService interface {
	ListForUser(ctx context.Context, db *gorm.DB, caller *auth.Claims, limit int) ([]models.Notification, error)
	// Dispatch вызывается после коммита; ошибки доставки только логируются
	Dispatch(ctx context.Context, notes ...*models.Notification)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	pusher           NotificationPusher
	mailer           email.Provider
}

// NewNotificationService: pusher и mailer могут быть nil
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	pusher NotificationPusher,
	mailer email.Provider,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		pusher:           pusher,
		mailer:           mailer,
	}
}

func (s *notificationService) ListForUser(ctx context.Context, db *gorm.DB, caller *auth.Claims, limit int) ([]models.Notification, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationLimit
	}

	var notes []models.Notification
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		notes, err = s.notificationRepo.ListForRecipient(db, caller.Email, limit)
		return err
	})
	if err != nil {
		return nil, handleRepoError(err)
	}
	return notes, nil
}

func (s *notificationService) Dispatch(ctx context.Context, notes ...*models.Notification) {
	for _, note := range notes {
		if note == nil {
			continue
		}
		if s.pusher != nil {
			s.pusher.SendToUser(note.Recipient, note)
		}
		if s.mailer != nil {
			go s.sendEmail(logger.FromContext(ctx), *note)
		}
	}
}

func (s *notificationService) sendEmail(log *slog.Logger, note models.Notification) {
	data := email.TemplateData{
		"Title":   "PicoWorker notification",
		"Message": note.Message,
	}
	if err := s.mailer.SendTemplate([]string{note.Recipient}, "PicoWorker notification", email.TemplateNotification, data); err != nil {
		log.Warn("Failed to e-mail notification", "recipient", note.Recipient, "type", note.Type, "error", err.Error())
	}
}
