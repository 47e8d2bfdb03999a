package models

type Task struct {
	BaseModel
	AuthorEmail   string     `gorm:"type:varchar(255);not null;index" json:"authorEmail"`
	AuthorName    string     `gorm:"type:varchar(255)" json:"authorName"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Info          string     `gorm:"type:text" json:"info"`
	PayableAmount int64      `gorm:"not null" json:"payableAmount"`
	Total         int64      `gorm:"not null" json:"total"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'Open'" json:"status"`
}
