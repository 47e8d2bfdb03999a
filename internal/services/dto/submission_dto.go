package dto

import "picoworker_backend/internal/models"

type CreateSubmissionRequest struct {
	TaskID     string `json:"taskId" validate:"required"`
	Details    string `json:"submissionDetails" validate:"required,max=5000"`
	WorkerName string `json:"workerName" validate:"max=255"`
}

// ApproveRequest - поля кроме id необязательны и служат сверкой с сохраненной отправкой
type ApproveRequest struct {
	WorkerEmail string `json:"workerEmail" validate:"omitempty,email"`
	CoinAmount  int64  `json:"coinAmount" validate:"gte=0"`
	TaskTitle   string `json:"taskTitle" validate:"max=255"`
	AuthorName  string `json:"authorName" validate:"max=255"`
}

type RejectRequest struct {
	WorkerEmail string `json:"workerEmail" validate:"omitempty,email"`
	TaskTitle   string `json:"taskTitle" validate:"max=255"`
	AuthorName  string `json:"authorName" validate:"max=255"`
	Feedback    string `json:"feedback" validate:"max=1000"`
}

type ReviewResponse struct {
	Submission       *models.Submission `json:"submission"`
	AlreadyProcessed bool               `json:"alreadyProcessed"`
	CreditedCoins    int64              `json:"creditedCoins"`
}

type SubmissionListResponse struct {
	Submissions []models.Submission `json:"submissions"`
	TotalCount  int64               `json:"totalCount"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
}
