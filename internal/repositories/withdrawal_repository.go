package repositories

import (
	"errors"

	"picoworker_backend/internal/models"

	"gorm.io/gorm"
)

var ErrWithdrawalNotFound = errors.New("withdrawal request not found")

type WithdrawalRepository interface {
	Create(db *gorm.DB, request *models.WithdrawalRequest) error
	FindByID(db *gorm.DB, id string) (*models.WithdrawalRequest, error)
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, offset, limit int) ([]models.WithdrawalRequest, int64, error)
	ListByWorker(db *gorm.DB, workerEmail string) ([]models.WithdrawalRequest, error)
}

type WithdrawalRepositoryImpl struct{}

func NewWithdrawalRepository() WithdrawalRepository {
	return &WithdrawalRepositoryImpl{}
}

func (r *WithdrawalRepositoryImpl) Create(db *gorm.DB, request *models.WithdrawalRequest) error {
	return db.Create(request).Error
}

func (r *WithdrawalRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := db.First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &request, nil
}

// Delete удаляет заявку; ErrWithdrawalNotFound, если ее уже удалили параллельно
func (r *WithdrawalRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.WithdrawalRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}

func (r *WithdrawalRepositoryImpl) List(db *gorm.DB, offset, limit int) ([]models.WithdrawalRequest, int64, error) {
	var requests []models.WithdrawalRequest
	var total int64

	if err := db.Model(&models.WithdrawalRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("requested_at ASC").Offset(offset).Limit(limit).Find(&requests).Error
	return requests, total, err
}

func (r *WithdrawalRepositoryImpl) ListByWorker(db *gorm.DB, workerEmail string) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := db.Where("worker_email = ?", workerEmail).
		Order("requested_at DESC").
		Find(&requests).Error
	return requests, err
}
