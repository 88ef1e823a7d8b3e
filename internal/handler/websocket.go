package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coursehub/internal/hub"
	"coursehub/internal/middleware"
	"coursehub/internal/ws"
)

type WebSocketHandler struct {
	Registry   *hub.Registry
	Decoder    middleware.TokenDecoder
	SendBuffer int
	Logger     *zap.Logger
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve authenticates the upgrade request from its token query parameter and
// runs the session until the connection ends. A rejected token never reaches
// the upgrade.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}
	id, err := h.Decoder.Decode(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		return
	}

	ws.NewSession(conn, id.UserID, h.Registry, h.SendBuffer, h.logger()).Run(c.Request.Context())
}

func (h *WebSocketHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.Registry.Count()})
}

func (h *WebSocketHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
