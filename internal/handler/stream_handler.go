package handler

import (
	"os"

	"watchfolio-be/internal/pkg/logger"
	internalWS "watchfolio-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StreamHandler upgrades clients onto the reveal stream. Each connected
// client receives the character-by-character frames for its user's
// in-progress assistant replies.
type StreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewStreamHandler(hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/assistant/v1")
	g.Get("/stream", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on websocket handshakes, so the token may
	// arrive as a query param instead.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("StreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("StreamHandler", "Starting reveal stream", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID)
			h.logger.Info("StreamHandler", "Reveal stream ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
