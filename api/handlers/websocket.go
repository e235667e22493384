package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocketHandler attaches chat clients over WebSocket.
type WebSocketHandler struct {
	transport http.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler around the transport
// handler that performs the upgrade and pumps frames.
func NewWebSocketHandler(transport http.Handler) *WebSocketHandler {
	return &WebSocketHandler{transport: transport}
}

// Attach handles GET /ws - upgrades the request and joins the chat.
func (h *WebSocketHandler) Attach(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		sendError(c, http.StatusBadRequest, "UPGRADE_REQUIRED", "WebSocket upgrade required")
		return
	}
	h.transport.ServeHTTP(c.Writer, c.Request)
}

// RegisterRoutes registers the WebSocket route on a Gin router.
func (h *WebSocketHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.Attach)
}
