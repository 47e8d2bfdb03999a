package handlers

import (
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	*BaseHandler
	taskService services.TaskService
}

func NewTaskHandler(base *BaseHandler, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		BaseHandler: base,
		taskService: taskService,
	}
}

func (h *TaskHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes
	r.GET("/all-task", h.ListAllTasks)
	r.GET("/task/:id", h.GetTask)

	protected := r.Group("", h.RequireAuth)
	{
		protected.GET("/my-task-list/:email", h.ListByAuthor)
		protected.DELETE("/task/:id", h.DeleteTask)
	}

	creators := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapTaskWrite))
	{
		creators.POST("/task", h.CreateTask)
		creators.PATCH("/task/:id", h.UpdateTask)
	}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), h.GetDB(c), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), h.GetDB(c), caller, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.taskService.DeleteTask(c.Request.Context(), h.GetDB(c), caller, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TaskHandler) ListByAuthor(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasksByAuthor(c.Request.Context(), h.GetDB(c), caller, c.Param("email"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	resp, err := h.taskService.ListAllTasks(c.Request.Context(), h.GetDB(c), ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
