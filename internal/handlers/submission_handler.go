package handlers

import (
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	*BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(base *BaseHandler, submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       base,
		submissionService: submissionService,
	}
}

func (h *SubmissionHandler) RegisterRoutes(r *gin.RouterGroup) {
	protected := r.Group("", h.RequireAuth)
	{
		protected.GET("/my-submissions/:email", h.ListByWorker)
		protected.GET("/review-submissions/:email", h.ListForReview)
	}

	workers := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapSubmissionCreate))
	{
		workers.POST("/submission", h.CreateSubmission)
	}

	reviewers := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapSubmissionReview))
	{
		reviewers.PUT("/approve-task/:id", h.Approve)
		reviewers.PUT("/reject-task/:id", h.Reject)
	}
}

func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateSubmissionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	submission, err := h.submissionService.CreateSubmission(c.Request.Context(), h.GetDB(c), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *SubmissionHandler) Approve(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.ApproveRequest
	if c.Request.ContentLength != 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.submissionService.Approve(c.Request.Context(), h.GetDB(c), caller, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubmissionHandler) Reject(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.RejectRequest
	if c.Request.ContentLength != 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.submissionService.Reject(c.Request.Context(), h.GetDB(c), caller, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubmissionHandler) ListByWorker(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.submissionService.ListByWorker(c.Request.Context(), h.GetDB(c), caller, c.Param("email"), ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListForReview - GET /review-submissions/:email?status=Pending
func (h *SubmissionHandler) ListForReview(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	status := models.SubmissionStatus(c.Query("status"))
	submissions, err := h.submissionService.ListByAuthorAndStatus(c.Request.Context(), h.GetDB(c), caller, c.Param("email"), status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}
