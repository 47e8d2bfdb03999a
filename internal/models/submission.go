package models

type Submission struct {
	BaseModel
	TaskID      string           `gorm:"type:varchar(36);not null;index" json:"taskId"`
	TaskTitle   string           `gorm:"type:varchar(255)" json:"taskTitle"`
	AuthorEmail string           `gorm:"type:varchar(255);not null;index:idx_submission_author_status" json:"authorEmail"`
	WorkerEmail string           `gorm:"type:varchar(255);not null;index" json:"workerEmail"`
	WorkerName  string           `gorm:"type:varchar(255)" json:"workerName"`
	Details     string           `gorm:"type:text" json:"details"`
	CoinValue   int64            `gorm:"not null" json:"coinValue"`
	Status      SubmissionStatus `gorm:"type:varchar(20);not null;index:idx_submission_author_status" json:"status"`
	Feedback    string           `gorm:"type:text" json:"feedback,omitempty"`
}
