package handler

import (
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/pkg/serverutils"
	internalWS "paperchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TurnStreamHandler upgrades to a websocket that receives every finished turn
// of the caller's sessions. Turns are pushed whole, never token by token.
type TurnStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewTurnStreamHandler(hub *internalWS.Hub, log logger.ILogger) *TurnStreamHandler {
	return &TurnStreamHandler{hub: hub, logger: log}
}

func (h *TurnStreamHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/stream/v1/turns", auth, h.ServeWs)
}

func (h *TurnStreamHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := serverutils.UserID(c)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("TurnStream", "WebSocket session started", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("TurnStream", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}
