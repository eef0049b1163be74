package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/realtime"
	"github.com/triage-desk/ticket-router/internal/service"
)

const wsUserKey = "ws_user_id"

// WSHandler upgrades viewers to a push channel registered with the hub.
type WSHandler struct {
	directory    *service.Directory
	hub          *realtime.Hub
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(directory *service.Directory, hub *realtime.Hub, pingInterval, writeTimeout time.Duration, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}
	return &WSHandler{
		directory:    directory,
		hub:          hub,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Upgrade GET /ws/:userID. Unknown users are refused before the upgrade.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	user, err := h.directory.GetUser(c.UserContext(), c.Params("userID"))
	if err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(wsUserKey, user.ID)
	return c.Next()
}

// Stream serves an upgraded connection until the peer goes away or the
// channel is replaced. Inbound frames are read and discarded.
func (h *WSHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(wsUserKey).(string)
		ch := realtime.NewWSChannel(conn, h.writeTimeout)
		h.hub.Register(userID, ch)
		defer func() {
			h.hub.Release(userID, ch)
			_ = ch.Close()
		}()

		go ch.KeepAlive(h.pingInterval)

		readTimeout := 3 * h.pingInterval
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
				) {
					h.logger.Debug("websocket closed", zap.String("user_id", userID), zap.Error(err))
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
	})
}
