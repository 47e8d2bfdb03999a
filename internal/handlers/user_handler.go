package handlers

import (
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes
	r.POST("/users", h.Register)
	r.GET("/top-earners", h.TopEarners)

	protected := r.Group("", h.RequireAuth)
	{
		protected.GET("/user/:email", h.GetUser)
		protected.GET("/ledger", h.MyLedger)
	}

	admin := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapUsersManage))
	{
		admin.GET("/users", h.ListUsers)
		admin.PATCH("/users/:email/role", h.UpdateRole)
		admin.GET("/admin-stats", h.AdminStats)
	}

	audit := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapLedgerAudit))
	{
		audit.GET("/admin/ledger/:email", h.ReconcileLedger)
	}
}

// Register повторяет семантику вставки: повторный email отвечает 200 и insertedId: null
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.userService.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.InsertedID == nil {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *UserHandler) TopEarners(c *gin.Context) {
	users, err := h.userService.TopEarners(c.Request.Context(), h.GetDB(c), ParseQueryInt(c, "limit", 0))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), h.GetDB(c), caller, c.Param("email"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) MyLedger(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	history, err := h.userService.LedgerHistory(c.Request.Context(), h.GetDB(c), caller, caller.Email, ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), h.GetDB(c), caller, ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), h.GetDB(c), caller, c.Param("email"), req.Role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) AdminStats(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	stats, err := h.userService.AdminStats(c.Request.Context(), h.GetDB(c), caller)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) ReconcileLedger(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	report, err := h.userService.ReconcileLedger(c.Request.Context(), h.GetDB(c), caller, c.Param("email"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
