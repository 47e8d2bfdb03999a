package services

import (
	"context"
	"encoding/json"
	"fmt"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionService interface {
	CreateSubmission(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.CreateSubmissionRequest) (*models.Submission, error)
	Approve(ctx context.Context, db *gorm.DB, caller *auth.Claims, submissionID string, req *dto.ApproveRequest) (*dto.ReviewResponse, error)
	Reject(ctx context.Context, db *gorm.DB, caller *auth.Claims, submissionID string, req *dto.RejectRequest) (*dto.ReviewResponse, error)
	ListByWorker(ctx context.Context, db *gorm.DB, caller *auth.Claims, workerEmail string, pagination dto.Pagination) (*dto.SubmissionListResponse, error)
	ListByAuthorAndStatus(ctx context.Context, db *gorm.DB, caller *auth.Claims, authorEmail string, status models.SubmissionStatus) ([]models.Submission, error)
}

type submissionService struct {
	submissionRepo   repositories.SubmissionRepository
	taskRepo         repositories.TaskRepository
	notificationRepo repositories.NotificationRepository
	ledger           *Ledger
	notifier         NotificationService
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	taskRepo repositories.TaskRepository,
	notificationRepo repositories.NotificationRepository,
	ledger *Ledger,
	notifier NotificationService,
) SubmissionService {
	return &submissionService{
		submissionRepo:   submissionRepo,
		taskRepo:         taskRepo,
		notificationRepo: notificationRepo,
		ledger:           ledger,
		notifier:         notifier,
	}
}

func (s *submissionService) CreateSubmission(ctx context.Context, db *gorm.DB, caller *auth.Claims, req *dto.CreateSubmissionRequest) (*models.Submission, error) {
	if err := authorize(caller, auth.CapSubmissionCreate); err != nil {
		return nil, err
	}

	var submission *models.Submission
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		task, err := s.taskRepo.FindByID(tx, req.TaskID)
		if err != nil {
			return err
		}
		if task.Status != models.TaskStatusOpen {
			return apperrors.ErrTaskClosed
		}

		submission = &models.Submission{
			TaskID:      task.ID,
			TaskTitle:   task.Title,
			AuthorEmail: task.AuthorEmail,
			WorkerEmail: caller.Email,
			WorkerName:  req.WorkerName,
			Details:     req.Details,
			CoinValue:   task.PayableAmount,
			Status:      models.SubmissionStatusPending,
		}
		return s.submissionRepo.Create(tx, submission)
	})
	if err != nil {
		return nil, handleSubmissionError(err)
	}

	logger.CtxInfo(ctx, "Submission created", "submission_id", submission.ID, "task_id", submission.TaskID)
	return submission, nil
}

// Approve: Pending -> Approved, списание из бюджета задачи и начисление исполнителю.
// Повторное одобрение ничего не начисляет и возвращает alreadyProcessed.
func (s *submissionService) Approve(ctx context.Context, db *gorm.DB, caller *auth.Claims, submissionID string, req *dto.ApproveRequest) (*dto.ReviewResponse, error) {
	if err := authorize(caller, auth.CapSubmissionReview); err != nil {
		return nil, err
	}

	var (
		resp *dto.ReviewResponse
		note *models.Notification
	)
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		resp, note = nil, nil

		submission, err := s.loadForReview(tx, caller, submissionID, req.WorkerEmail)
		if err != nil {
			return err
		}
		if req.CoinAmount != 0 && req.CoinAmount != submission.CoinValue {
			return validationFailed("coinAmount", fmt.Sprintf("does not match submission value %d", submission.CoinValue))
		}

		done, err := s.settleStatus(tx, submission, models.SubmissionStatusApproved, "")
		if err != nil || done {
			resp = &dto.ReviewResponse{Submission: submission, AlreadyProcessed: done}
			return err
		}

		if err := s.taskRepo.DrawBudget(tx, submission.TaskID, submission.CoinValue); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(tx, submission.WorkerEmail, submission.CoinValue, models.LedgerSubmissionReward, submission.ID); err != nil {
			return err
		}

		author := req.AuthorName
		if author == "" {
			author = submission.AuthorEmail
		}
		note, err = s.appendNotification(tx, submission, repositories.NotificationTypeSubmissionApproved,
			fmt.Sprintf("You have earned %d coins from %s for completing %s", submission.CoinValue, author, submission.TaskTitle))
		if err != nil {
			return err
		}

		resp = &dto.ReviewResponse{Submission: submission, CreditedCoins: submission.CoinValue}
		return nil
	})
	if err != nil {
		return nil, handleSubmissionError(err)
	}

	if note != nil {
		logger.CtxInfo(ctx, "Submission approved", "submission_id", submissionID, "coins", resp.CreditedCoins)
		s.notifier.Dispatch(ctx, note)
	}
	return resp, nil
}

// Reject: Pending -> Rejected без изменения балансов
func (s *submissionService) Reject(ctx context.Context, db *gorm.DB, caller *auth.Claims, submissionID string, req *dto.RejectRequest) (*dto.ReviewResponse, error) {
	if err := authorize(caller, auth.CapSubmissionReview); err != nil {
		return nil, err
	}

	var (
		resp *dto.ReviewResponse
		note *models.Notification
	)
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		resp, note = nil, nil

		submission, err := s.loadForReview(tx, caller, submissionID, req.WorkerEmail)
		if err != nil {
			return err
		}

		done, err := s.settleStatus(tx, submission, models.SubmissionStatusRejected, req.Feedback)
		if err != nil || done {
			resp = &dto.ReviewResponse{Submission: submission, AlreadyProcessed: done}
			return err
		}

		author := req.AuthorName
		if author == "" {
			author = submission.AuthorEmail
		}
		message := fmt.Sprintf("Your submission for %s was rejected by %s", submission.TaskTitle, author)
		if req.Feedback != "" {
			message += ": " + req.Feedback
		}
		note, err = s.appendNotification(tx, submission, repositories.NotificationTypeSubmissionRejected, message)
		if err != nil {
			return err
		}

		resp = &dto.ReviewResponse{Submission: submission}
		return nil
	})
	if err != nil {
		return nil, handleSubmissionError(err)
	}

	if note != nil {
		logger.CtxInfo(ctx, "Submission rejected", "submission_id", submissionID)
		s.notifier.Dispatch(ctx, note)
	}
	return resp, nil
}

func (s *submissionService) loadForReview(tx *gorm.DB, caller *auth.Claims, submissionID, workerEmail string) (*models.Submission, error) {
	submission, err := s.submissionRepo.FindByID(tx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, submission.AuthorEmail); err != nil {
		return nil, err
	}
	if workerEmail != "" && workerEmail != submission.WorkerEmail {
		return nil, validationFailed("workerEmail", "does not match the submission")
	}
	return submission, nil
}

// settleStatus переводит Pending в target. done=true, если отправка уже в target.
func (s *submissionService) settleStatus(tx *gorm.DB, submission *models.Submission, target models.SubmissionStatus, feedback string) (bool, error) {
	if submission.Status == models.SubmissionStatusPending {
		swapped, err := s.submissionRepo.TransitionStatus(tx, submission.ID, models.SubmissionStatusPending, target, feedback)
		if err != nil {
			return false, err
		}
		if swapped {
			submission.Status = target
			if feedback != "" {
				submission.Feedback = feedback
			}
			return false, nil
		}

		// параллельный ревью успел раньше
		current, err := s.submissionRepo.FindByID(tx, submission.ID)
		if err != nil {
			return false, err
		}
		*submission = *current
	}

	if submission.Status == target {
		return true, nil
	}
	return false, apperrors.ErrInvalidStatus("submission",
		fmt.Sprintf("Submission is already %s", submission.Status))
}

func (s *submissionService) appendNotification(tx *gorm.DB, submission *models.Submission, kind, message string) (*models.Notification, error) {
	payload, err := json.Marshal(map[string]any{
		"submissionId": submission.ID,
		"taskId":       submission.TaskID,
		"coins":        submission.CoinValue,
	})
	if err != nil {
		return nil, err
	}

	note := &models.Notification{
		Recipient:   submission.WorkerEmail,
		Type:        kind,
		Message:     message,
		ActionRoute: "/dashboard/my-submissions",
		Data:        datatypes.JSON(payload),
	}
	if err := s.notificationRepo.Create(tx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *submissionService) ListByWorker(ctx context.Context, db *gorm.DB, caller *auth.Claims, workerEmail string, pagination dto.Pagination) (*dto.SubmissionListResponse, error) {
	if err := requireOwner(caller, workerEmail); err != nil {
		return nil, err
	}

	var (
		submissions []models.Submission
		total       int64
	)
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		submissions, total, err = s.submissionRepo.ListByWorker(db, workerEmail, pagination.Offset(), pagination.Limit)
		return err
	})
	if err != nil {
		return nil, handleSubmissionError(err)
	}

	return &dto.SubmissionListResponse{
		Submissions: submissions,
		TotalCount:  total,
		TotalPages:  pagination.TotalPages(total),
		CurrentPage: pagination.Page,
	}, nil
}

func (s *submissionService) ListByAuthorAndStatus(ctx context.Context, db *gorm.DB, caller *auth.Claims, authorEmail string, status models.SubmissionStatus) ([]models.Submission, error) {
	if err := requireOwner(caller, authorEmail); err != nil {
		return nil, err
	}
	if status != "" && !status.IsValid() {
		return nil, validationFailed("status", "must be one of Pending, Approved, Rejected")
	}

	var submissions []models.Submission
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		submissions, err = s.submissionRepo.ListByAuthorAndStatus(db, authorEmail, status)
		return err
	})
	if err != nil {
		return nil, handleSubmissionError(err)
	}
	return submissions, nil
}
