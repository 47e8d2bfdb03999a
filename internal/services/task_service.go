package services

import (
	"context"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type TaskService interface {
	CreateTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, db *gorm.DB, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, taskID string, req *dto.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, taskID string) (*dto.DeleteTaskResponse, error)
	ListTasksByAuthor(ctx context.Context, db *gorm.DB, caller *auth.Claims, authorEmail string) ([]models.Task, error)
	ListAllTasks(ctx context.Context, db *gorm.DB, pagination dto.Pagination) (*dto.TaskListResponse, error)
}

type taskService struct {
	taskRepo repositories.TaskRepository
	ledger   *Ledger
}

func NewTaskService(taskRepo repositories.TaskRepository, ledger *Ledger) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		ledger:   ledger,
	}
}

// CreateTask списывает бюджет с автора в той же транзакции, что и вставка задачи
func (s *taskService) CreateTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.CreateTaskRequest) (*models.Task, error) {
	if err := authorize(caller, auth.CapTaskWrite); err != nil {
		return nil, err
	}

	payable := req.PayableAmount
	if payable == 0 {
		payable = req.Total
	}
	if payable > req.Total {
		return nil, validationFailed("payableAmount", "must not exceed total")
	}

	var task *models.Task
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		task = &models.Task{
			AuthorEmail:   caller.Email,
			AuthorName:    req.AuthorName,
			Title:         req.Title,
			Description:   req.Description,
			Info:          req.Info,
			PayableAmount: payable,
			Total:         req.Total,
			Status:        models.TaskStatusOpen,
		}
		if err := s.taskRepo.Create(tx, task); err != nil {
			return err
		}
		_, err := s.ledger.Debit(tx, caller.Email, req.Total, models.LedgerTaskEscrow, task.ID)
		return err
	})
	if err != nil {
		return nil, handleTaskError(err)
	}

	logger.CtxInfo(ctx, "Task created", "task_id", task.ID, "total", task.Total)
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, db *gorm.DB, taskID string) (*models.Task, error) {
	var task *models.Task
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		task, err = s.taskRepo.FindByID(db, taskID)
		return err
	})
	if err != nil {
		return nil, handleTaskError(err)
	}
	return task, nil
}

// UpdateTask не создает запись при промахе по id: возвращается NotFound
func (s *taskService) UpdateTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, taskID string, req *dto.UpdateTaskRequest) (*models.Task, error) {
	if err := authorize(caller, auth.CapTaskWrite); err != nil {
		return nil, err
	}
	fields := req.Fields()
	if len(fields) == 0 {
		return nil, validationFailed("body", "at least one of title, description, info is required")
	}

	var task *models.Task
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		existing, err := s.taskRepo.FindByID(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireOwner(caller, existing.AuthorEmail); err != nil {
			return err
		}
		if err := s.taskRepo.UpdateContent(tx, taskID, fields); err != nil {
			return err
		}
		task, err = s.taskRepo.FindByID(tx, taskID)
		return err
	})
	if err != nil {
		return nil, handleTaskError(err)
	}
	return task, nil
}

// DeleteTask возвращает автору остаток бюджета и удаляет задачу одной транзакцией
func (s *taskService) DeleteTask(ctx context.Context, db *gorm.DB, caller *auth.Claims, taskID string) (*dto.DeleteTaskResponse, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var refunded int64
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		task, err := s.taskRepo.FindByID(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireOwner(caller, task.AuthorEmail); err != nil {
			return err
		}

		if _, err := s.ledger.Credit(tx, task.AuthorEmail, task.Total, models.LedgerTaskRefund, task.ID); err != nil {
			return apperrors.ErrPartialWrite(err, "task", map[string]any{"taskId": task.ID})
		}
		if err := s.taskRepo.Delete(tx, task.ID); err != nil {
			return err
		}
		refunded = task.Total
		return nil
	})
	if err != nil {
		return nil, handleTaskError(err)
	}

	logger.CtxInfo(ctx, "Task deleted", "task_id", taskID, "refunded", refunded)
	return &dto.DeleteTaskResponse{TaskID: taskID, DeletedCount: 1, RefundedCoins: refunded}, nil
}

func (s *taskService) ListTasksByAuthor(ctx context.Context, db *gorm.DB, caller *auth.Claims, authorEmail string) ([]models.Task, error) {
	if err := requireOwner(caller, authorEmail); err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		tasks, err = s.taskRepo.ListByAuthor(db, authorEmail)
		return err
	})
	if err != nil {
		return nil, handleTaskError(err)
	}
	return tasks, nil
}

func (s *taskService) ListAllTasks(ctx context.Context, db *gorm.DB, pagination dto.Pagination) (*dto.TaskListResponse, error) {
	var (
		tasks []models.Task
		total int64
	)
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		tasks, total, err = s.taskRepo.ListPaged(db, pagination.Offset(), pagination.Limit)
		return err
	})
	if err != nil {
		return nil, handleTaskError(err)
	}

	return &dto.TaskListResponse{
		Tasks:       tasks,
		TotalCount:  total,
		TotalPages:  pagination.TotalPages(total),
		CurrentPage: pagination.Page,
	}, nil
}
