package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
)

const sseHeartbeat = 30 * time.Second

// SSEHandler 实时推送
type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream 订阅实体变更事件
// GET /api/events?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		Error(c, http.StatusServiceUnavailable, "Event stream disabled")
		return
	}

	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		userID = middleware.GetUserName(c)
	}
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"clientId\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
