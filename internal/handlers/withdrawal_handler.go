package handlers

import (
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	*BaseHandler
	withdrawalService services.WithdrawalService
}

func NewWithdrawalHandler(base *BaseHandler, withdrawalService services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		BaseHandler:       base,
		withdrawalService: withdrawalService,
	}
}

func (h *WithdrawalHandler) RegisterRoutes(r *gin.RouterGroup) {
	protected := r.Group("", h.RequireAuth)
	{
		protected.GET("/my-withdrawals", h.ListMine)
		protected.DELETE("/withdraw/:id", h.Cancel)
	}

	workers := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapWithdrawalRequest))
	{
		workers.POST("/withdraw", h.Request)
	}

	admin := r.Group("/admin", h.RequireAuth, middleware.RequireCapability(auth.CapWithdrawalSettle))
	{
		admin.GET("/withdraw-requests", h.ListAll)
		admin.DELETE("/withdraw-request/:id", h.Settle)
	}
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	request, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), h.GetDB(c), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// Settle - DELETE /admin/withdraw-request/:id: выплата и удаление заявки
func (h *WithdrawalHandler) Settle(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.withdrawalService.SettleWithdrawal(c.Request.Context(), h.GetDB(c), caller, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.withdrawalService.CancelWithdrawal(c.Request.Context(), h.GetDB(c), caller, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Withdrawal request cancelled"})
}

func (h *WithdrawalHandler) ListAll(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.withdrawalService.ListAllRequests(c.Request.Context(), h.GetDB(c), caller, ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	requests, err := h.withdrawalService.ListMyRequests(c.Request.Context(), h.GetDB(c), caller)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}
