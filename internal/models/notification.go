package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification только добавляется и никогда не изменяется
type Notification struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Recipient   string         `gorm:"type:varchar(255);not null;index" json:"toEmail"`
	Type        string         `gorm:"type:varchar(50);not null" json:"type"`
	Message     string         `gorm:"type:text;not null" json:"message"`
	ActionRoute string         `gorm:"type:varchar(255)" json:"actionRoute,omitempty"`
	Data        datatypes.JSON `json:"data,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"time"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
