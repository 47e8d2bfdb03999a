package routes

import (
	"net/http"

	"picoworker_backend/internal/handlers"
	"picoworker_backend/internal/logger"
	"picoworker_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	requireAuth gin.HandlerFunc,
) {
	ginRouter.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "PicoWorker server is running")
	})

	api := ginRouter.Group("")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)
		appHandlers.TaskHandler.RegisterRoutes(api)
		appHandlers.SubmissionHandler.RegisterRoutes(api)
		appHandlers.WithdrawalHandler.RegisterRoutes(api)
		appHandlers.PaymentHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
	}

	// Регистрация WebSocket
	ginRouter.GET("/ws", requireAuth, wsHandler.ServeWS)
	logger.Info("WebSocket route /ws registered")
}
