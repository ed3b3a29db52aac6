package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/websocket"
	jwtutil "github.com/sedefy/sedetok-backend/pkg/jwt"
)

type WebSocketHandler struct {
	hub        *websocket.Hub
	jwtManager *jwtutil.JWTManager
}

func NewWebSocketHandler(hub *websocket.Hub, jwtManager *jwtutil.JWTManager) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		jwtManager: jwtManager,
	}
}

// HandleWebSocket upgrades the connection and subscribes the user to their
// match events. Browsers cannot set headers on WebSocket upgrades, so the
// token comes in a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter required"})
		return
	}

	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	websocket.ServeWs(h.hub, c.Writer, c.Request, claims.UserID)
}
