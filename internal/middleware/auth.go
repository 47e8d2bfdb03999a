package middleware

import (
	"strings"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/logger"
	"picoworker_backend/pkg/apperrors"
	"picoworker_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - middleware проверки JWT.
// Токен берется из заголовка Authorization, для websocket также из ?token=.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("unauthorized access"))
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Rejected token", "error", err.Error(), "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		// Сохраняем claims в контекст
		c.Set(string(contextkeys.ClaimsContextKey), claims)
		c.Request = c.Request.WithContext(logger.WithUserEmail(c.Request.Context(), claims.Email))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if c.Request.URL.Path == "/ws" {
		return c.Query("token")
	}
	return ""
}

// RequireCapability - единственная проверка прав на уровне маршрутов
func RequireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("unauthorized access"))
			return
		}
		if !claims.Can(capability) {
			logger.CtxWarn(c.Request.Context(), "Capability denied", "capability", capability, "role", claims.Role)
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// GetClaims извлекает claims, сохраненные AuthMiddleware
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	val, exists := c.Get(string(contextkeys.ClaimsContextKey))
	if !exists {
		return nil, false
	}
	claims, ok := val.(*auth.Claims)
	return claims, ok && claims != nil
}
