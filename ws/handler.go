package ws

import (
	"net/http"

	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler: allowedOrigins те же, что у CORS ("*" - любой)
func NewWebSocketHandler(manager *WebSocketManager, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &WebSocketHandler{
		Manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWS - GET /ws, личность берется из AuthMiddleware
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("unauthorized access"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade error", "error", err.Error())
		return
	}

	client := &Client{
		Email:   claims.Email,
		Conn:    conn,
		Send:    make(chan any, sendBuffer),
		Manager: h.Manager,
	}

	if !h.Manager.join(client) {
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}
