package repositories

import (
	"errors"
	"time"

	"picoworker_backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrReservationBroken = errors.New("reserved coins do not cover the amount")
)

type UserRepository interface {
	CreateIfAbsent(db *gorm.DB, user *models.User) (bool, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	GetCoins(db *gorm.DB, email string) (int64, error)

	// Условные изменения баланса: проверка и запись одним UPDATE
	Credit(db *gorm.DB, email string, amount int64) error
	DebitIfAvailable(db *gorm.DB, email string, amount int64) error
	ReserveIfAvailable(db *gorm.DB, email string, amount int64) error
	ReleaseReserved(db *gorm.DB, email string, amount int64) error
	SettleReserved(db *gorm.DB, email string, amount int64, income decimal.Decimal) error

	List(db *gorm.DB, offset, limit int) ([]models.User, int64, error)
	TopWorkers(db *gorm.DB, limit int) ([]models.User, error)
	UpdateRole(db *gorm.DB, email string, role models.UserRole) error
	CountByRole(db *gorm.DB, role models.UserRole) (int64, error)
	TotalCoins(db *gorm.DB) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

// CreateIfAbsent вставляет пользователя, если email еще не занят.
// Возвращает false, если пользователь уже был.
func (r *UserRepositoryImpl) CreateIfAbsent(db *gorm.DB, user *models.User) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetCoins(db *gorm.DB, email string) (int64, error) {
	user, err := r.FindByEmail(db, email)
	if err != nil {
		return 0, err
	}
	return user.Coins, nil
}

func (r *UserRepositoryImpl) Credit(db *gorm.DB, email string, amount int64) error {
	result := db.Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"coins":      gorm.Expr("coins + ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) DebitIfAvailable(db *gorm.DB, email string, amount int64) error {
	result := db.Model(&models.User{}).
		Where("email = ? AND coins - reserved_coins >= ?", email, amount).
		Updates(map[string]interface{}{
			"coins":      gorm.Expr("coins - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(db, email, ErrInsufficientCoins)
	}
	return nil
}

func (r *UserRepositoryImpl) ReserveIfAvailable(db *gorm.DB, email string, amount int64) error {
	result := db.Model(&models.User{}).
		Where("email = ? AND coins - reserved_coins >= ?", email, amount).
		Updates(map[string]interface{}{
			"reserved_coins": gorm.Expr("reserved_coins + ?", amount),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(db, email, ErrInsufficientCoins)
	}
	return nil
}

func (r *UserRepositoryImpl) ReleaseReserved(db *gorm.DB, email string, amount int64) error {
	result := db.Model(&models.User{}).
		Where("email = ? AND reserved_coins >= ?", email, amount).
		Updates(map[string]interface{}{
			"reserved_coins": gorm.Expr("reserved_coins - ?", amount),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(db, email, ErrReservationBroken)
	}
	return nil
}

// SettleReserved списывает зарезервированные монеты и начисляет доход одним UPDATE
func (r *UserRepositoryImpl) SettleReserved(db *gorm.DB, email string, amount int64, income decimal.Decimal) error {
	result := db.Model(&models.User{}).
		Where("email = ? AND reserved_coins >= ? AND coins >= ?", email, amount, amount).
		Updates(map[string]interface{}{
			"coins":          gorm.Expr("coins - ?", amount),
			"reserved_coins": gorm.Expr("reserved_coins - ?", amount),
			"total_income":   gorm.Expr("total_income + ?", income),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(db, email, ErrReservationBroken)
	}
	return nil
}

// explainMiss различает "нет пользователя" и "не выполнено условие"
func (r *UserRepositoryImpl) explainMiss(db *gorm.DB, email string, conditionErr error) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return conditionErr
}

func (r *UserRepositoryImpl) List(db *gorm.DB, offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *UserRepositoryImpl) TopWorkers(db *gorm.DB, limit int) ([]models.User, error) {
	var users []models.User
	err := db.Where("role = ?", models.UserRoleWorker).
		Order("coins DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) UpdateRole(db *gorm.DB, email string, role models.UserRole) error {
	result := db.Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) CountByRole(db *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) TotalCoins(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&models.User{}).Select("COALESCE(SUM(coins), 0)").Scan(&total).Error
	return total, err
}
