package services

import (
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger - примитивы изменения баланса. Каждый вызывается внутри транзакции
// и пишет строку журнала, так что coins == SUM(ledger_entries.amount).
type Ledger struct {
	users   repositories.UserRepository
	entries repositories.LedgerRepository
}

func NewLedger(users repositories.UserRepository, entries repositories.LedgerRepository) *Ledger {
	return &Ledger{users: users, entries: entries}
}

// Credit начисляет монеты
func (l *Ledger) Credit(tx *gorm.DB, email string, amount int64, entryType models.LedgerEntryType, reference string) (int64, error) {
	if err := l.users.Credit(tx, email, amount); err != nil {
		return 0, err
	}
	return l.journal(tx, email, entryType, amount, reference)
}

// Debit списывает монеты, только если свободного остатка хватает
func (l *Ledger) Debit(tx *gorm.DB, email string, amount int64, entryType models.LedgerEntryType, reference string) (int64, error) {
	if err := l.users.DebitIfAvailable(tx, email, amount); err != nil {
		return 0, err
	}
	return l.journal(tx, email, entryType, -amount, reference)
}

// Reserve откладывает монеты под заявку на вывод; баланс не меняется
func (l *Ledger) Reserve(tx *gorm.DB, email string, amount int64) error {
	return l.users.ReserveIfAvailable(tx, email, amount)
}

// Release снимает резерв отмененной заявки
func (l *Ledger) Release(tx *gorm.DB, email string, amount int64) error {
	return l.users.ReleaseReserved(tx, email, amount)
}

// Settle списывает зарезервированные монеты и начисляет доход
func (l *Ledger) Settle(tx *gorm.DB, email string, amount int64, income decimal.Decimal, reference string) (int64, error) {
	if err := l.users.SettleReserved(tx, email, amount, income); err != nil {
		return 0, err
	}
	return l.journal(tx, email, models.LedgerWithdrawalSettlement, -amount, reference)
}

func (l *Ledger) journal(tx *gorm.DB, email string, entryType models.LedgerEntryType, amount int64, reference string) (int64, error) {
	balance, err := l.users.GetCoins(tx, email)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return balance, nil
	}
	entry := &models.LedgerEntry{
		UserEmail:    email,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: balance,
		Reference:    reference,
	}
	if err := l.entries.Append(tx, entry); err != nil {
		return 0, err
	}
	return balance, nil
}
