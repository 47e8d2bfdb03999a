package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/models"
	"picoworker_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T, manager *WebSocketManager) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		if email := c.Query("as"); email != "" {
			c.Set(string(contextkeys.ClaimsContextKey), auth.NewClaims(email, models.UserRoleWorker))
		}
		c.Next()
	}, NewWebSocketHandler(manager, []string{"*"}).ServeWS)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, email string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?as=" + email
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketManager_DeliversToAllConnectionsOfUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewWebSocketManager()
	go manager.Run(ctx)
	server := newWSServer(t, manager)

	first := dial(t, server, "worker@test.com")
	second := dial(t, server, "worker@test.com")
	other := dial(t, server, "other@test.com")
	require.Eventually(t, func() bool { return manager.GetClientCount("worker@test.com") == 2 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return manager.GetClientCount("other@test.com") == 1 }, time.Second, 10*time.Millisecond)

	manager.SendToUser("worker@test.com", map[string]any{"message": "You have earned 5 coins"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var payload map[string]any
		require.NoError(t, conn.ReadJSON(&payload))
		assert.Equal(t, "You have earned 5 coins", payload["message"])
	}

	// чужое соединение ничего не получает
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var payload map[string]any
	assert.Error(t, other.ReadJSON(&payload))
}

func TestWebSocketManager_UnregistersOnClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewWebSocketManager()
	go manager.Run(ctx)
	server := newWSServer(t, manager)

	conn := dial(t, server, "worker@test.com")
	require.Eventually(t, func() bool { return manager.GetClientCount("worker@test.com") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return manager.GetClientCount("worker@test.com") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketManager_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	manager := NewWebSocketManager()
	go manager.Run(ctx)
	server := newWSServer(t, manager)

	conn := dial(t, server, "worker@test.com")
	require.Eventually(t, func() bool { return manager.GetClientCount("worker@test.com") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return manager.GetClientCount("worker@test.com") == 0 }, time.Second, 10*time.Millisecond)

	// после остановки отправка - no-op
	assert.NotPanics(t, func() { manager.SendToUser("worker@test.com", "late") })
}

func TestServeWS_RequiresClaims(t *testing.T) {
	manager := NewWebSocketManager()
	server := newWSServer(t, manager)

	res, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
