package ws

import (
	"context"
	"sync"

	"picoworker_backend/internal/logger"
)

// WebSocketManager держит открытые соединения, сгруппированные по email
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обслуживает регистрацию клиентов, пока ctx не отменен
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(manager.done)
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			set, ok := manager.clients[client.Email]
			if !ok {
				set = make(map[*Client]struct{})
				manager.clients[client.Email] = set
			}
			set[client] = struct{}{}
			manager.mu.Unlock()
			logger.Debug("WebSocket client registered", "email", client.Email)

		case client := <-manager.unregister:
			manager.remove(client)
		}
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	set, ok := manager.clients[client.Email]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	close(client.Send)
	delete(set, client)
	if len(set) == 0 {
		delete(manager.clients, client.Email)
	}
	logger.Debug("WebSocket client unregistered", "email", client.Email)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	for email, set := range manager.clients {
		for client := range set {
			close(client.Send)
		}
		delete(manager.clients, email)
	}
}

// SendToUser отправляет payload во все соединения получателя.
// Не блокирует: клиент с переполненной очередью отключается.
func (manager *WebSocketManager) SendToUser(email string, payload interface{}) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	for client := range manager.clients[email] {
		select {
		case client.Send <- payload:
		default:
			go manager.leave(client)
			logger.Warn("WebSocket client dropped due to full send channel", "email", email)
		}
	}
}

// leave снимает клиента с учета; после остановки Run ничего не делает
func (manager *WebSocketManager) leave(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// join регистрирует клиента; false, если менеджер уже остановлен
func (manager *WebSocketManager) join(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

// GetClientCount возвращает количество соединений пользователя
func (manager *WebSocketManager) GetClientCount(email string) int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[email])
}
