package services_test

import (
	"testing"

	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateSubmission_CopiesTaskFields(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 20, 5)

	submission := f.submit(t, worker, task.ID)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)
	assert.Equal(t, int64(5), submission.CoinValue)
	assert.Equal(t, "creator@test.com", submission.AuthorEmail)
	assert.Equal(t, "worker@test.com", submission.WorkerEmail)
	assert.Equal(t, task.Title, submission.TaskTitle)

	_, err := f.svc.SubmissionService.CreateSubmission(f.ctx, f.db, worker, &dto.CreateSubmissionRequest{TaskID: "missing", Details: "x"})
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.SubmissionService.CreateSubmission(f.ctx, f.db, creator, &dto.CreateSubmissionRequest{TaskID: task.ID, Details: "x"})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestApprove_CreditsWorkerExactlyOnce(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)
	submission := f.submit(t, worker, task.ID)

	// 1. Одобрение
	resp, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{
		WorkerEmail: "worker@test.com",
		CoinAmount:  5,
		AuthorName:  "Alice",
	})
	require.NoError(t, err)
	assert.False(t, resp.AlreadyProcessed)
	assert.Equal(t, int64(5), resp.CreditedCoins)
	assert.Equal(t, models.SubmissionStatusApproved, resp.Submission.Status)
	assert.Equal(t, int64(15), f.balance(t, "worker@test.com"))

	// 2. Повтор ничего не начисляет
	resp, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyProcessed)
	assert.Equal(t, int64(0), resp.CreditedCoins)
	assert.Equal(t, int64(15), f.balance(t, "worker@test.com"))
	assert.Equal(t, int64(1), f.count(t, &models.LedgerEntry{}, "entry_type = ?", models.LedgerSubmissionReward))

	// 3. Отклонить одобренное нельзя
	_, err = f.svc.SubmissionService.Reject(f.ctx, f.db, creator, submission.ID, &dto.RejectRequest{})
	assertCode(t, err, apperrors.CodeInvalidStatus)

	// 4. Одно уведомление в базе и одно в realtime
	var notes []models.Notification
	require.NoError(t, f.db.Where("recipient = ?", "worker@test.com").Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, repositories.NotificationTypeSubmissionApproved, notes[0].Type)
	assert.Equal(t, "You have earned 5 coins from Alice for completing Watch a video", notes[0].Message)
	assert.Equal(t, "/dashboard/my-submissions", notes[0].ActionRoute)
	assert.Equal(t, 1, f.pusher.Count("worker@test.com"))
}

func TestApprove_DrawsBudgetAndClosesTask(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)

	first := f.submit(t, worker, task.ID)
	second := f.submit(t, worker, task.ID)

	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, first.ID, &dto.ApproveRequest{})
	require.NoError(t, err)
	stored, err := f.svc.TaskService.GetTask(f.ctx, f.db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Total)
	assert.Equal(t, models.TaskStatusOpen, stored.Status)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, second.ID, &dto.ApproveRequest{})
	require.NoError(t, err)
	stored, err = f.svc.TaskService.GetTask(f.ctx, f.db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Total)
	assert.Equal(t, models.TaskStatusClosed, stored.Status)

	// Закрытая задача не принимает новые отправки
	_, err = f.svc.SubmissionService.CreateSubmission(f.ctx, f.db, worker, &dto.CreateSubmissionRequest{TaskID: task.ID, Details: "late"})
	assertCode(t, err, apperrors.CodeInvalidStatus)

	// Создатель не платит больше, чем заморозил
	assert.Equal(t, int64(40), f.balance(t, "creator@test.com"))
	assert.Equal(t, int64(20), f.balance(t, "worker@test.com"))
}

func TestApprove_ExhaustedBudget(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 10)

	first := f.submit(t, worker, task.ID)
	second := f.submit(t, worker, task.ID)

	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, first.ID, &dto.ApproveRequest{})
	require.NoError(t, err)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, second.ID, &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeInsufficientFunds)

	// откат: отправка осталась Pending, монет не прибавилось
	var stored models.Submission
	require.NoError(t, f.db.First(&stored, "id = ?", second.ID).Error)
	assert.Equal(t, models.SubmissionStatusPending, stored.Status)
	assert.Equal(t, int64(20), f.balance(t, "worker@test.com"))
}

func TestApprove_RejectsMismatchAndStrangers(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	other := f.register(t, "other@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)
	submission := f.submit(t, worker, task.ID)

	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{CoinAmount: 50})
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{WorkerEmail: "someone@test.com"})
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, other, submission.ID, &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, worker, submission.ID, &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, "missing", &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeNotFound)

	assert.Equal(t, int64(10), f.balance(t, "worker@test.com"))
}

func TestApprove_AfterTaskDeleted(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)
	submission := f.submit(t, worker, task.ID)

	_, err := f.svc.TaskService.DeleteTask(f.ctx, f.db, creator, task.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, int64(10), f.balance(t, "worker@test.com"))
}

func TestReject_StoresFeedbackWithoutMovingCoins(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)
	submission := f.submit(t, worker, task.ID)

	resp, err := f.svc.SubmissionService.Reject(f.ctx, f.db, creator, submission.ID, &dto.RejectRequest{
		AuthorName: "Alice",
		Feedback:   "no screenshot",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusRejected, resp.Submission.Status)
	assert.Equal(t, "no screenshot", resp.Submission.Feedback)

	resp, err = f.svc.SubmissionService.Reject(f.ctx, f.db, creator, submission.ID, &dto.RejectRequest{})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyProcessed)

	_, err = f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	assertCode(t, err, apperrors.CodeInvalidStatus)

	assert.Equal(t, int64(10), f.balance(t, "worker@test.com"))
	assert.Equal(t, int64(40), f.balance(t, "creator@test.com"))

	var note models.Notification
	require.NoError(t, f.db.Where("recipient = ?", "worker@test.com").First(&note).Error)
	assert.Equal(t, "Your submission for Watch a video was rejected by Alice: no screenshot", note.Message)
}

func TestSubmissionLists(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 30, 5)
	approved := f.submit(t, worker, task.ID)
	f.submit(t, worker, task.ID)
	f.submit(t, worker, task.ID)

	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, approved.ID, &dto.ApproveRequest{})
	require.NoError(t, err)

	page, err := f.svc.SubmissionService.ListByWorker(f.ctx, f.db, worker, "worker@test.com", dto.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Len(t, page.Submissions, 2)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)

	pending, err := f.svc.SubmissionService.ListByAuthorAndStatus(f.ctx, f.db, creator, "creator@test.com", models.SubmissionStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = f.svc.SubmissionService.ListByAuthorAndStatus(f.ctx, f.db, creator, "creator@test.com", "Weird")
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.svc.SubmissionService.ListByWorker(f.ctx, f.db, creator, "worker@test.com", dto.NewPagination(1, 10))
	assertCode(t, err, apperrors.CodeForbidden)
}

// stalePendingRepo отдает первую загрузку отправки со статусом Pending,
// как ревьюер, прочитавший ее до коммита соседа
type stalePendingRepo struct {
	repositories.SubmissionRepository
	stale *int
}

func (r stalePendingRepo) FindByID(db *gorm.DB, id string) (*models.Submission, error) {
	submission, err := r.SubmissionRepository.FindByID(db, id)
	if err == nil && *r.stale > 0 {
		*r.stale--
		submission.Status = models.SubmissionStatusPending
	}
	return submission, err
}

func TestReview_LostRaceSeesWinnerState(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 10, 5)
	submission := f.submit(t, worker, task.ID)

	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	require.NoError(t, err)

	stale := 0
	racing := services.NewSubmissionService(
		stalePendingRepo{SubmissionRepository: repositories.NewSubmissionRepository(), stale: &stale},
		repositories.NewTaskRepository(),
		repositories.NewNotificationRepository(),
		f.ledger,
		f.svc.NotificationService,
	)

	// второй одобряющий проиграл CAS и видит уже одобренную отправку
	stale = 1
	resp, err := racing.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyProcessed)
	assert.Equal(t, models.SubmissionStatusApproved, resp.Submission.Status)
	assert.Equal(t, f.cfg.Ledger.WorkerSignupBonus+5, f.balance(t, "worker@test.com"))
	assert.Equal(t, int64(1), f.count(t, &models.LedgerEntry{}, "entry_type = ?", models.LedgerSubmissionReward))

	// отклоняющий проиграл CAS: одобренное отклонить нельзя
	stale = 1
	_, err = racing.Reject(f.ctx, f.db, creator, submission.ID, &dto.RejectRequest{Feedback: "late"})
	assertCode(t, err, apperrors.CodeInvalidStatus)
	assert.Equal(t, 0, stale)
}
