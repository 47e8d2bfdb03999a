package dto

import "picoworker_backend/internal/models"

type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=5000"`
	Info          string `json:"info" validate:"max=5000"`
	Total         int64  `json:"total" validate:"required,gt=0"`
	PayableAmount int64  `json:"payableAmount" validate:"omitempty,gt=0"`
	AuthorName    string `json:"authorName" validate:"max=255"`
}

// UpdateTaskRequest - частичное обновление, nil поле не трогаем
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Info        *string `json:"info" validate:"omitempty,max=5000"`
}

func (r *UpdateTaskRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Info != nil {
		fields["info"] = *r.Info
	}
	return fields
}

type TaskListResponse struct {
	Tasks       []models.Task `json:"tasks"`
	TotalCount  int64         `json:"totalCount"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

type DeleteTaskResponse struct {
	TaskID        string `json:"taskId"`
	DeletedCount  int    `json:"deletedCount"`
	RefundedCoins int64  `json:"refundedCoins"`
}
