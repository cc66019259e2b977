package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client 已连接的 SSE 客户端
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub 管理 SSE 连接
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Broadcast 缓冲区满的客户端丢弃本次事件
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type entityUpdate struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

// PublishEntityUpdate 发送 <entity>_update 事件，action: created/updated/status_changed/deleted
func (h *Hub) PublishEntityUpdate(entityType, id, action string) {
	data, _ := json.Marshal(entityUpdate{Entity: entityType, ID: id, Action: action})
	h.Broadcast(Event{
		EventType: entityType + "_update",
		Data:      string(data),
	})
}
