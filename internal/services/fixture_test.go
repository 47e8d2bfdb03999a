package services_test

import (
	"context"
	"testing"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/internal/testutil"
	"picoworker_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx     context.Context
	db      *gorm.DB
	cfg     *config.Config
	svc     *services.ServiceContainer
	ledger  *services.Ledger
	pusher  *testutil.FakePusher
	gateway *testutil.FakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testutil.TestConfig()
	pusher := testutil.NewFakePusher()
	gateway := &testutil.FakeGateway{}

	return &fixture{
		ctx:     context.Background(),
		db:      testutil.NewTestDB(t),
		cfg:     cfg,
		svc:     services.NewServiceContainer(cfg, services.Dependencies{Gateway: gateway, Pusher: pusher}),
		ledger:  services.NewLedger(repositories.NewUserRepository(), repositories.NewLedgerRepository()),
		pusher:  pusher,
		gateway: gateway,
	}
}

// register создает пользователя через сервис (с бонусом за регистрацию)
func (f *fixture) register(t *testing.T, email string, role models.UserRole) *auth.Claims {
	t.Helper()
	_, err := f.svc.UserService.Register(f.ctx, f.db, &dto.RegisterUserRequest{
		Email: email,
		Name:  email,
		Role:  role,
	})
	require.NoError(t, err)
	return testutil.Caller(email, role)
}

func (f *fixture) admin(t *testing.T, email string) *auth.Claims {
	t.Helper()
	require.NoError(t, f.svc.UserService.EnsureAdmin(f.ctx, f.db, email))
	return testutil.Caller(email, models.UserRoleAdmin)
}

// grant начисляет монеты через журнал, как это делает покупка
func (f *fixture) grant(t *testing.T, email string, coins int64) {
	t.Helper()
	_, err := f.ledger.Credit(f.db, email, coins, models.LedgerPurchase, "seed")
	require.NoError(t, err)
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, f.db.Where("email = ?", email).First(&user).Error)
	return user
}

func (f *fixture) balance(t *testing.T, email string) int64 {
	return f.user(t, email).Coins
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) createTask(t *testing.T, author *auth.Claims, total, payable int64) *models.Task {
	t.Helper()
	task, err := f.svc.TaskService.CreateTask(f.ctx, f.db, author, &dto.CreateTaskRequest{
		Title:         "Watch a video",
		Description:   "Watch and leave a comment",
		Total:         total,
		PayableAmount: payable,
		AuthorName:    "Author",
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) submit(t *testing.T, worker *auth.Claims, taskID string) *models.Submission {
	t.Helper()
	submission, err := f.svc.SubmissionService.CreateSubmission(f.ctx, f.db, worker, &dto.CreateSubmissionRequest{
		TaskID:     taskID,
		Details:    "done, screenshot attached",
		WorkerName: "Worker",
	})
	require.NoError(t, err)
	return submission
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "ожидалась AppError, получено: %v", err)
	assert.Equal(t, code, appErr.Code, "неожиданный код: %v", err)
}

