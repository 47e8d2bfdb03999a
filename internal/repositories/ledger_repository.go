package repositories

import (
	"picoworker_backend/internal/models"

	"gorm.io/gorm"
)

type LedgerRepository interface {
	Append(db *gorm.DB, entry *models.LedgerEntry) error
	ListByUser(db *gorm.DB, email string, offset, limit int) ([]models.LedgerEntry, int64, error)
	SumByUser(db *gorm.DB, email string) (int64, error)
}

type LedgerRepositoryImpl struct{}

func NewLedgerRepository() LedgerRepository {
	return &LedgerRepositoryImpl{}
}

func (r *LedgerRepositoryImpl) Append(db *gorm.DB, entry *models.LedgerEntry) error {
	return db.Create(entry).Error
}

func (r *LedgerRepositoryImpl) ListByUser(db *gorm.DB, email string, offset, limit int) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	if err := db.Model(&models.LedgerEntry{}).Where("user_email = ?", email).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Where("user_email = ?", email).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

func (r *LedgerRepositoryImpl) SumByUser(db *gorm.DB, email string) (int64, error) {
	var sum int64
	err := db.Model(&models.LedgerEntry{}).
		Where("user_email = ?", email).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
