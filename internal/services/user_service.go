package services

import (
	"context"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const defaultTopEarners = 6

type UserService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterUserRequest) (*dto.RegisterResponse, error)
	EnsureAdmin(ctx context.Context, db *gorm.DB, email string) error
	GetByEmail(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) (*models.User, error)
	TopEarners(ctx context.Context, db *gorm.DB, limit int) ([]models.User, error)
	ListUsers(ctx context.Context, db *gorm.DB, caller *auth.Claims, pagination dto.Pagination) (*dto.UserListResponse, error)
	UpdateRole(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string, role models.UserRole) (*models.User, error)
	AdminStats(ctx context.Context, db *gorm.DB, caller *auth.Claims) (*dto.AdminStatsResponse, error)
	ReconcileLedger(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) (*dto.LedgerReconcileResponse, error)
	LedgerHistory(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string, pagination dto.Pagination) (*dto.LedgerHistoryResponse, error)
}

type userService struct {
	userRepo       repositories.UserRepository
	taskRepo       repositories.TaskRepository
	submissionRepo repositories.SubmissionRepository
	paymentRepo    repositories.PaymentRepository
	ledgerRepo     repositories.LedgerRepository
	ledger         *Ledger
	cfg            config.LedgerConfig
}

func NewUserService(
	userRepo repositories.UserRepository,
	taskRepo repositories.TaskRepository,
	submissionRepo repositories.SubmissionRepository,
	paymentRepo repositories.PaymentRepository,
	ledgerRepo repositories.LedgerRepository,
	ledger *Ledger,
	cfg config.LedgerConfig,
) UserService {
	return &userService{
		userRepo:       userRepo,
		taskRepo:       taskRepo,
		submissionRepo: submissionRepo,
		paymentRepo:    paymentRepo,
		ledgerRepo:     ledgerRepo,
		ledger:         ledger,
		cfg:            cfg,
	}
}

func (s *userService) signupBonus(role models.UserRole) int64 {
	switch role {
	case models.UserRoleWorker:
		return s.cfg.WorkerSignupBonus
	case models.UserRoleTaskCreator:
		return s.cfg.CreatorSignupBonus
	}
	return 0
}

// Register идемпотентен: существующий email возвращает insertedId == nil без изменений
func (s *userService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterUserRequest) (*dto.RegisterResponse, error) {
	if req.Role != models.UserRoleWorker && req.Role != models.UserRoleTaskCreator {
		return nil, validationFailed("role", "must be worker or taskCreator")
	}

	var (
		user    *models.User
		created bool
	)
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		user = &models.User{
			Email:    req.Email,
			Name:     req.Name,
			PhotoURL: req.PhotoURL,
			Role:     req.Role,
		}
		var err error
		created, err = s.userRepo.CreateIfAbsent(tx, user)
		if err != nil || !created {
			return err
		}

		bonus := s.signupBonus(req.Role)
		if bonus > 0 {
			if user.Coins, err = s.ledger.Credit(tx, user.Email, bonus, models.LedgerSignupBonus, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, handleUserError(err)
	}

	if !created {
		return &dto.RegisterResponse{Message: "user already exists"}, nil
	}

	logger.CtxInfo(ctx, "User registered", "email", user.Email, "role", user.Role)
	id := user.ID
	return &dto.RegisterResponse{InsertedID: &id, User: user}, nil
}

// EnsureAdmin создает администратора при старте или повышает существующего пользователя
func (s *userService) EnsureAdmin(ctx context.Context, db *gorm.DB, email string) error {
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		admin := &models.User{Email: email, Name: "Administrator", Role: models.UserRoleAdmin}
		created, err := s.userRepo.CreateIfAbsent(tx, admin)
		if err != nil || created {
			return err
		}
		return s.userRepo.UpdateRole(tx, email, models.UserRoleAdmin)
	})
	return handleUserError(err)
}

func (s *userService) GetByEmail(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) (*models.User, error) {
	if err := requireOwner(caller, email); err != nil {
		return nil, err
	}

	var user *models.User
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		user, err = s.userRepo.FindByEmail(db, email)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}
	return user, nil
}

func (s *userService) TopEarners(ctx context.Context, db *gorm.DB, limit int) ([]models.User, error) {
	if limit <= 0 || limit > dto.MaxLimit {
		limit = defaultTopEarners
	}

	var users []models.User
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		users, err = s.userRepo.TopWorkers(db, limit)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}
	return users, nil
}

func (s *userService) ListUsers(ctx context.Context, db *gorm.DB, caller *auth.Claims, pagination dto.Pagination) (*dto.UserListResponse, error) {
	if err := authorize(caller, auth.CapUsersManage); err != nil {
		return nil, err
	}

	var (
		users []models.User
		total int64
	)
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		users, total, err = s.userRepo.List(db, pagination.Offset(), pagination.Limit)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}

	return &dto.UserListResponse{
		Users:       users,
		TotalCount:  total,
		TotalPages:  pagination.TotalPages(total),
		CurrentPage: pagination.Page,
	}, nil
}

func (s *userService) UpdateRole(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string, role models.UserRole) (*models.User, error) {
	if err := authorize(caller, auth.CapUsersManage); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, validationFailed("role", "unknown role")
	}
	if caller.Email == email && role != models.UserRoleAdmin {
		return nil, apperrors.ErrConflict(nil, "user", "Administrators cannot demote themselves")
	}

	var user *models.User
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		if err := s.userRepo.UpdateRole(tx, email, role); err != nil {
			return err
		}
		var err error
		user, err = s.userRepo.FindByEmail(tx, email)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}

	logger.CtxInfo(ctx, "User role changed", "email", email, "role", role)
	return user, nil
}

func (s *userService) AdminStats(ctx context.Context, db *gorm.DB, caller *auth.Claims) (*dto.AdminStatsResponse, error) {
	if err := authorize(caller, auth.CapUsersManage); err != nil {
		return nil, err
	}

	stats := &dto.AdminStatsResponse{}
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		if stats.TotalWorkers, err = s.userRepo.CountByRole(db, models.UserRoleWorker); err != nil {
			return err
		}
		if stats.TotalTaskCreators, err = s.userRepo.CountByRole(db, models.UserRoleTaskCreator); err != nil {
			return err
		}
		if stats.TotalCoins, err = s.userRepo.TotalCoins(db); err != nil {
			return err
		}
		if stats.TotalPayments, err = s.paymentRepo.SumPaid(db); err != nil {
			return err
		}
		if stats.TotalTasks, err = s.taskRepo.Count(db); err != nil {
			return err
		}
		stats.PendingSubmissions, err = s.submissionRepo.CountByStatus(db, models.SubmissionStatusPending)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}
	return stats, nil
}

// ReconcileLedger сравнивает баланс с суммой журнала; drift != 0 означает запись мимо Ledger
func (s *userService) ReconcileLedger(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string) (*dto.LedgerReconcileResponse, error) {
	if err := authorize(caller, auth.CapLedgerAudit); err != nil {
		return nil, err
	}

	resp := &dto.LedgerReconcileResponse{Email: email}
	err := runTx(ctx, db, func(tx *gorm.DB) error {
		var err error
		if resp.Balance, err = s.userRepo.GetCoins(tx, email); err != nil {
			return err
		}
		resp.JournalSum, err = s.ledgerRepo.SumByUser(tx, email)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}

	resp.Drift = resp.Balance - resp.JournalSum
	if resp.Drift != 0 {
		logger.CtxWarn(ctx, "Ledger drift detected", "email", email, "balance", resp.Balance, "journal_sum", resp.JournalSum)
	}
	return resp, nil
}

func (s *userService) LedgerHistory(ctx context.Context, db *gorm.DB, caller *auth.Claims, email string, pagination dto.Pagination) (*dto.LedgerHistoryResponse, error) {
	if err := requireOwner(caller, email); err != nil {
		return nil, err
	}

	var (
		entries []models.LedgerEntry
		total   int64
	)
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		entries, total, err = s.ledgerRepo.ListByUser(db, email, pagination.Offset(), pagination.Limit)
		return err
	})
	if err != nil {
		return nil, handleUserError(err)
	}

	return &dto.LedgerHistoryResponse{
		Entries:     entries,
		TotalCount:  total,
		TotalPages:  pagination.TotalPages(total),
		CurrentPage: pagination.Page,
	}, nil
}
