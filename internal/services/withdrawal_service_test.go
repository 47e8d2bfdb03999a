package services_test

import (
	"sync"
	"testing"

	"picoworker_backend/internal/models"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/internal/testutil"
	"picoworker_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withdrawRequest(coins int64) *dto.WithdrawRequest {
	return &dto.WithdrawRequest{
		Coins:         coins,
		PaymentSystem: "bkash",
		AccountNumber: "01700000000",
		WorkerName:    "Worker",
	}
}

func TestPayoutFor(t *testing.T) {
	assert.True(t, services.PayoutFor(200, 20).Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "0.33", services.PayoutFor(1, 3).StringFixed(2))
	assert.Equal(t, "3.00", services.PayoutFor(60, 20).StringFixed(2))
}

func TestRequestWithdrawal_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	require.Equal(t, int64(10), f.balance(t, "worker@test.com"))

	_, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(15))
	assertCode(t, err, apperrors.CodeInsufficientFunds)

	assert.Equal(t, int64(0), f.count(t, &models.WithdrawalRequest{}, ""))
	assert.Equal(t, int64(0), f.user(t, "worker@test.com").ReservedCoins)
}

func TestRequestWithdrawal_UnknownUser(t *testing.T) {
	f := newFixture(t)
	ghost := testutil.Caller("ghost@test.com", models.UserRoleWorker)

	_, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, ghost, withdrawRequest(10))
	assertCode(t, err, apperrors.CodeInsufficientFunds)
}

func TestRequestWithdrawal_Validation(t *testing.T) {
	f := newFixture(t)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	creator := f.register(t, "creator@test.com", models.UserRoleTaskCreator)

	_, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(f.cfg.Ledger.MinWithdrawCoins-1))
	assertCode(t, err, apperrors.CodeValidationFailed)

	req := withdrawRequest(10)
	req.PayoutAmount = decimal.NewFromInt(100)
	_, err = f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, req)
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, creator, withdrawRequest(10))
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestRequestWithdrawal_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	f := newFixture(t)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	f.grant(t, "worker@test.com", 90)
	require.Equal(t, int64(100), f.balance(t, "worker@test.com"))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		errs      []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(60))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	require.Len(t, errs, 1)
	assertCode(t, errs[0], apperrors.CodeInsufficientFunds)

	user := f.user(t, "worker@test.com")
	assert.Equal(t, int64(100), user.Coins, "резерв не списывает монеты до исполнения")
	assert.Equal(t, int64(60), user.ReservedCoins)
	assert.Equal(t, int64(1), f.count(t, &models.WithdrawalRequest{}, ""))
}

func TestSettleWithdrawal(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	f.register(t, "bystander@test.com", models.UserRoleWorker)
	f.grant(t, "worker@test.com", 90)

	request, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(60))
	require.NoError(t, err)
	assert.Equal(t, "3.00", request.PayoutAmount.StringFixed(2))

	// 1. Исполнитель не может исполнить свою заявку
	_, err = f.svc.WithdrawalService.SettleWithdrawal(f.ctx, f.db, worker, request.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	// 2. Исполнение
	resp, err := f.svc.WithdrawalService.SettleWithdrawal(f.ctx, f.db, admin, request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), resp.BalanceAfter)
	assert.Equal(t, int64(60), resp.Coins)

	user := f.user(t, "worker@test.com")
	assert.Equal(t, int64(40), user.Coins)
	assert.Equal(t, int64(0), user.ReservedCoins)
	assert.True(t, user.TotalIncome.Equal(decimal.NewFromInt(3)), "totalIncome = %s", user.TotalIncome)
	assert.Equal(t, int64(0), f.count(t, &models.WithdrawalRequest{}, ""))

	// 3. Повторное исполнение - NotFound, без второго списания
	_, err = f.svc.WithdrawalService.SettleWithdrawal(f.ctx, f.db, admin, request.ID)
	assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, int64(40), f.balance(t, "worker@test.com"))

	// 4. Посторонние балансы не тронуты
	assert.Equal(t, int64(10), f.balance(t, "bystander@test.com"))

	var note models.Notification
	require.NoError(t, f.db.Where("recipient = ?", "worker@test.com").First(&note).Error)
	assert.Equal(t, "Your withdrawal of 60 coins ($3.00 via bkash) has been paid", note.Message)
	assert.Equal(t, 1, f.pusher.Count("worker@test.com"))
}

func TestCancelWithdrawal_ReleasesReservation(t *testing.T) {
	f := newFixture(t)
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	other := f.register(t, "other@test.com", models.UserRoleWorker)

	request, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(10))
	require.NoError(t, err)

	// зарезервированное нельзя потратить второй раз
	_, err = f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(10))
	assertCode(t, err, apperrors.CodeInsufficientFunds)

	err = f.svc.WithdrawalService.CancelWithdrawal(f.ctx, f.db, other, request.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	require.NoError(t, f.svc.WithdrawalService.CancelWithdrawal(f.ctx, f.db, worker, request.ID))
	user := f.user(t, "worker@test.com")
	assert.Equal(t, int64(10), user.Coins)
	assert.Equal(t, int64(0), user.ReservedCoins)

	mine, err := f.svc.WithdrawalService.ListMyRequests(f.ctx, f.db, worker)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListAllRequests_AdminOnly(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	worker := f.register(t, "worker@test.com", models.UserRoleWorker)
	_, err := f.svc.WithdrawalService.RequestWithdrawal(f.ctx, f.db, worker, withdrawRequest(10))
	require.NoError(t, err)

	list, err := f.svc.WithdrawalService.ListAllRequests(f.ctx, f.db, admin, dto.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, "worker@test.com", list.Requests[0].WorkerEmail)

	_, err = f.svc.WithdrawalService.ListAllRequests(f.ctx, f.db, worker, dto.NewPagination(1, 10))
	assertCode(t, err, apperrors.CodeForbidden)
}
