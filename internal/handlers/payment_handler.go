package handlers

import (
	"net/http"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	protected := r.Group("", h.RequireAuth)
	{
		protected.GET("/payments/:email", h.ListPayments)
		protected.GET("/temp-purchase", h.FetchTempPurchase)
		protected.DELETE("/temp-purchase", h.ClearTempPurchase)
	}

	buyers := r.Group("", h.RequireAuth, middleware.RequireCapability(auth.CapPaymentPurchase))
	{
		buyers.POST("/create-payment-intent", h.CreatePaymentIntent)
		buyers.POST("/payments", h.RecordPayment)
		buyers.POST("/temp-purchase", h.StageTempPurchase)
	}
}

func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.PaymentIntentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	record, err := h.paymentService.RecordPayment(c.Request.Context(), h.GetDB(c), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), h.GetDB(c), caller, c.Param("email"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) StageTempPurchase(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.TempPurchaseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	purchase, err := h.paymentService.StageTempPurchase(c.Request.Context(), h.GetDB(c), caller, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PaymentHandler) FetchTempPurchase(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	purchase, err := h.paymentService.FetchTempPurchase(c.Request.Context(), h.GetDB(c), caller)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PaymentHandler) ClearTempPurchase(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	deleted, err := h.paymentService.ClearTempPurchase(c.Request.Context(), h.GetDB(c), caller)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}
