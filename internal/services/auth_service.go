package services

import (
	"context"
	"crypto/subtle"
	"errors"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/repositories"
	"picoworker_backend/internal/services/dto"
	"picoworker_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	// IssueToken выдает токен зарегистрированному email; роль берется из базы.
	// Нужен ключ издателя; токен админа без ключа не выдается никогда.
	IssueToken(ctx context.Context, db *gorm.DB, req *dto.TokenRequest) (*dto.TokenResponse, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	tokens    *auth.TokenManager
	issuerKey string
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager, issuerKey string) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		issuerKey: issuerKey,
	}
}

// keyMatches: пустой настроенный ключ не совпадает ни с чем
func (s *authService) keyMatches(presented string) bool {
	if s.issuerKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.issuerKey), []byte(presented)) == 1
}

func (s *authService) IssueToken(ctx context.Context, db *gorm.DB, req *dto.TokenRequest) (*dto.TokenResponse, error) {
	trusted := s.keyMatches(req.IssuerKey)
	if s.issuerKey != "" && !trusted {
		logger.CtxWarn(ctx, "Token request with invalid issuer key", "email", req.Email)
		return nil, apperrors.NewUnauthorizedError("Invalid issuer key")
	}

	var user *models.User
	err := runRead(ctx, db, func(db *gorm.DB) error {
		var err error
		user, err = s.userRepo.FindByEmail(db, req.Email)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("Unknown account")
		}
		return nil, handleUserError(err)
	}

	if user.Role == models.UserRoleAdmin && !trusted {
		logger.CtxWarn(ctx, "Refused admin token without issuer key", "email", user.Email)
		return nil, apperrors.ErrInsufficientPermissions
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.Email, user.Role)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to sign token", err)
		return nil, apperrors.InternalError(err)
	}

	return &dto.TokenResponse{Token: token, ExpiresAt: expiresAt, Role: user.Role}, nil
}
