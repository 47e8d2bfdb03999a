package services_test

import (
	"testing"

	"picoworker_backend/internal/models"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/internal/testutil"
	"picoworker_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreditsSignupBonusOnce(t *testing.T) {
	f := newFixture(t)
	req := &dto.RegisterUserRequest{Email: "worker@test.com", Name: "Worker", Role: models.UserRoleWorker}

	// 1. Первая регистрация
	resp, err := f.svc.UserService.Register(f.ctx, f.db, req)
	require.NoError(t, err)
	require.NotNil(t, resp.InsertedID)
	assert.Equal(t, f.cfg.Ledger.WorkerSignupBonus, resp.User.Coins)

	// 2. Повтор ничего не меняет
	resp, err = f.svc.UserService.Register(f.ctx, f.db, req)
	require.NoError(t, err)
	assert.Nil(t, resp.InsertedID)
	assert.Equal(t, "user already exists", resp.Message)

	assert.Equal(t, f.cfg.Ledger.WorkerSignupBonus, f.balance(t, "worker@test.com"))
	assert.Equal(t, int64(1), f.count(t, &models.LedgerEntry{}, "user_email = ?", "worker@test.com"))
}

func TestRegister_CreatorBonus(t *testing.T) {
	f := newFixture(t)
	f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	assert.Equal(t, f.cfg.Ledger.CreatorSignupBonus, f.balance(t, "creator@test.com"))
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UserService.Register(f.ctx, f.db, &dto.RegisterUserRequest{
		Email: "sneaky@test.com",
		Name:  "Sneaky",
		Role:  models.UserRoleAdmin,
	})
	assertCode(t, err, apperrors.CodeValidationFailed)
	assert.Equal(t, int64(0), f.count(t, &models.User{}, ""))
}

func TestEnsureAdmin_PromotesExistingUser(t *testing.T) {
	f := newFixture(t)
	f.register(t, "boss@test.com", models.UserRoleTaskCreator)

	require.NoError(t, f.svc.UserService.EnsureAdmin(f.ctx, f.db, "boss@test.com"))
	user := f.user(t, "boss@test.com")
	assert.Equal(t, models.UserRoleAdmin, user.Role)
	assert.Equal(t, f.cfg.Ledger.CreatorSignupBonus, user.Coins)

	// идемпотентно
	require.NoError(t, f.svc.UserService.EnsureAdmin(f.ctx, f.db, "boss@test.com"))
	assert.Equal(t, int64(1), f.count(t, &models.User{}, ""))
}

func TestGetByEmail_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@test.com", models.UserRoleWorker)
	bob := f.register(t, "bob@test.com", models.UserRoleWorker)
	admin := f.admin(t, "admin@test.com")

	user, err := f.svc.UserService.GetByEmail(f.ctx, f.db, alice, "alice@test.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", user.Email)

	_, err = f.svc.UserService.GetByEmail(f.ctx, f.db, bob, "alice@test.com")
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.UserService.GetByEmail(f.ctx, f.db, admin, "alice@test.com")
	require.NoError(t, err)

	_, err = f.svc.UserService.GetByEmail(f.ctx, f.db, admin, "ghost@test.com")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestTopEarners_OrdersWorkersByCoins(t *testing.T) {
	f := newFixture(t)
	f.register(t, "low@test.com", models.UserRoleWorker)
	f.register(t, "high@test.com", models.UserRoleWorker)
	f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	f.grant(t, "high@test.com", 500)

	users, err := f.svc.UserService.TopEarners(f.ctx, f.db, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "high@test.com", users[0].Email)
	assert.Equal(t, "low@test.com", users[1].Email)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)

	user, err := f.svc.UserService.UpdateRole(f.ctx, f.db, admin, "worker@test.com", models.UserRoleTaskCreator)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleTaskCreator, user.Role)

	_, err = f.svc.UserService.UpdateRole(f.ctx, f.db, admin, "admin@test.com", models.UserRoleWorker)
	assertCode(t, err, apperrors.CodeConflict)

	_, err = f.svc.UserService.UpdateRole(f.ctx, f.db, worker, "worker@test.com", models.UserRoleAdmin)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.UserService.UpdateRole(f.ctx, f.db, admin, "ghost@test.com", models.UserRoleWorker)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	task := f.createTask(t, creator, 20, 5)
	f.submit(t, worker, task.ID)

	stats, err := f.svc.UserService.AdminStats(f.ctx, f.db, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalWorkers)
	assert.Equal(t, int64(1), stats.TotalTaskCreators)
	assert.Equal(t, int64(1), stats.TotalTasks)
	assert.Equal(t, int64(1), stats.PendingSubmissions)
	// 50 - 20 эскроу + 10 бонус исполнителя
	assert.Equal(t, int64(40), stats.TotalCoins)
}

func TestReconcileLedger_JournalMatchesBalance(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)

	// 1. Эскроу, одобрение, удаление задачи с возвратом
	task := f.createTask(t, creator, 30, 10)
	submission := f.submit(t, worker, task.ID)
	_, err := f.svc.SubmissionService.Approve(f.ctx, f.db, creator, submission.ID, &dto.ApproveRequest{})
	require.NoError(t, err)
	_, err = f.svc.TaskService.DeleteTask(f.ctx, f.db, creator, task.ID)
	require.NoError(t, err)

	// 2. Вывод средств исполнителем
	f.grant(t, "worker@test.com", 20)
	request, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, &dto.WithdrawRequest{
		Coins:         20,
		PaymentSystem: "bkash",
		AccountNumber: "01700000000",
	})
	require.NoError(t, err)
	_, err = f.svc.WithdrawalService.SettleWithdrawal(f.ctx, f.db, admin, request.ID)
	require.NoError(t, err)

	// 3. Сверка
	for _, email := range []string{"creator@test.com", "worker@test.com"} {
		report, err := f.svc.UserService.ReconcileLedger(f.ctx, f.db, admin, email)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Drift, email)
		assert.Equal(t, f.balance(t, email), report.JournalSum, email)
	}
	// 50 - 30 эскроу + 20 возврат остатка
	assert.Equal(t, int64(40), f.balance(t, "creator@test.com"))
	assert.Equal(t, int64(20), f.balance(t, "worker@test.com"))

	// 4. Запись мимо журнала видна как drift
	require.NoError(t, f.db.Model(&models.User{}).Where("email = ?", "worker@test.com").
		Update("coins", 999).Error)
	report, err := f.svc.UserService.ReconcileLedger(f.ctx, f.db, admin, "worker@test.com")
	require.NoError(t, err)
	assert.Equal(t, int64(979), report.Drift)

	_, err = f.svc.UserService.ReconcileLedger(f.ctx, f.db, worker, "worker@test.com")
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestLedgerHistory_Paged(t *testing.T) {
	f := newFixture(t)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	for i := 0; i < 4; i++ {
		f.grant(t, "worker@test.com", 5)
	}

	history, err := f.svc.UserService.LedgerHistory(f.ctx, f.db, worker, "worker@test.com", dto.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Len(t, history.Entries, 2)
	assert.Equal(t, int64(5), history.TotalCount)
	assert.Equal(t, 3, history.TotalPages)

	_, err = f.svc.UserService.LedgerHistory(f.ctx, f.db, testutil.Caller("other@test.com", models.UserRoleWorker), "worker@test.com", dto.NewPagination(1, 2))
	assertCode(t, err, apperrors.CodeForbidden)
}
