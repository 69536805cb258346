package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wellness/internal/pkg/jwt"
	"wellness/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
	log        *zap.Logger
}

func NewHandler(hub *Hub, jwtService *jwt.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, jwtService: jwtService, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws/bookings", h.Stream)
}

// Stream upgrades to a websocket. Browsers cannot set headers on the
// handshake, so the token comes in the query string.
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "token query parameter is required")
		return
	}

	actor, err := h.jwtService.Actor(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.log.Debug("ws connected", zap.String("user_id", actor.ID), zap.String("role", string(actor.Role)))
	h.hub.Serve(conn, actor)
	h.log.Debug("ws disconnected", zap.String("user_id", actor.ID))
}
