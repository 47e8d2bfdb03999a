package handlers

import (
	"net/http"

	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/jwt", h.IssueToken)
}

const IssuerKeyHeader = "X-Issuer-Key"

// IssueToken - POST /jwt {email}, заголовок X-Issuer-Key
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dto.TokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	req.IssuerKey = c.GetHeader(IssuerKeyHeader)

	resp, err := h.authService.IssueToken(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
