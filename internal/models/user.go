package models

import "github.com/shopspring/decimal"

// User - владелец баланса.
// Coins включает ReservedCoins; свободно для новых заявок на вывод Coins - ReservedCoins.
type User struct {
	BaseModel
	Email         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name          string          `gorm:"type:varchar(255)" json:"name"`
	PhotoURL      string          `gorm:"type:varchar(512)" json:"photoUrl"`
	Role          UserRole        `gorm:"type:varchar(20);not null;index" json:"role"`
	Coins         int64           `gorm:"not null;default:0" json:"coins"`
	ReservedCoins int64           `gorm:"not null;default:0" json:"reservedCoins"`
	TotalIncome   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalIncome"`
}

// AvailableCoins - монеты, не обещанные заявкам на вывод
func (u *User) AvailableCoins() int64 {
	return u.Coins - u.ReservedCoins
}
