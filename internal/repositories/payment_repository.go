package repositories

import (
	"errors"
	"time"

	"picoworker_backend/database"
	"picoworker_backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrTempPurchaseNotFound = errors.New("staged purchase not found")
)

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.Payment) error
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.Payment, error)
	ListByEmail(db *gorm.DB, email string) ([]models.Payment, error)
	SumPaid(db *gorm.DB) (decimal.Decimal, error)

	// Staged purchases
	UpsertTemp(db *gorm.DB, purchase *models.TempPurchase) error
	FindTemp(db *gorm.DB, email string) (*models.TempPurchase, error)
	DeleteTemp(db *gorm.DB, email string) (int64, error)
	DeleteTempOlderThan(db *gorm.DB, cutoff time.Time) (int64, error)
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

// Create вставляет платеж; повтор transaction_id отсекается уникальным индексом
func (r *PaymentRepositoryImpl) Create(db *gorm.DB, payment *models.Payment) error {
	err := db.Create(payment).Error
	if err != nil && payment.TransactionID != nil && database.IsUniqueViolation(err) {
		return ErrDuplicateTransaction
	}
	return err
}

func (r *PaymentRepositoryImpl) FindByTransactionID(db *gorm.DB, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.First(&payment, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) ListByEmail(db *gorm.DB, email string) ([]models.Payment, error) {
	var payments []models.Payment
	err := db.Where("email = ?", email).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepositoryImpl) SumPaid(db *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Select("SUM(price)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// UpsertTemp - одна запись на email, последняя запись побеждает
func (r *PaymentRepositoryImpl) UpsertTemp(db *gorm.DB, purchase *models.TempPurchase) error {
	purchase.UpdatedAt = time.Now()
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "coins", "updated_at"}),
	}).Create(purchase).Error
}

func (r *PaymentRepositoryImpl) FindTemp(db *gorm.DB, email string) (*models.TempPurchase, error) {
	var purchase models.TempPurchase
	err := db.First(&purchase, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTempPurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *PaymentRepositoryImpl) DeleteTemp(db *gorm.DB, email string) (int64, error) {
	result := db.Where("email = ?", email).Delete(&models.TempPurchase{})
	return result.RowsAffected, result.Error
}

func (r *PaymentRepositoryImpl) DeleteTempOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("updated_at < ?", cutoff).Delete(&models.TempPurchase{})
	return result.RowsAffected, result.Error
}
