package models

// LedgerEntry - строка журнала; пишется в той же транзакции, что и изменение баланса
type LedgerEntry struct {
	BaseModel
	UserEmail    string          `gorm:"type:varchar(255);not null;index" json:"userEmail"`
	EntryType    LedgerEntryType `gorm:"type:varchar(40);not null" json:"entryType"`
	Amount       int64           `gorm:"not null" json:"amount"`
	BalanceAfter int64           `gorm:"not null" json:"balanceAfter"`
	Reference    string          `gorm:"type:varchar(36);index" json:"reference"`
}

// AllModels - список для AutoMigrate
func AllModels() []any {
	return []any{
		&User{},
		&Task{},
		&Submission{},
		&WithdrawalRequest{},
		&Payment{},
		&TempPurchase{},
		&Notification{},
		&LedgerEntry{},
	}
}
