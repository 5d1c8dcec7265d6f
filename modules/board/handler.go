package board

import (
	"context"
	"log/slog"

	domain "github.com/example/taskboard/domain/user"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userIDLocal = "board_user_id"

// TokenVerifier turns a bearer token into verified claims.
type TokenVerifier func(ctx context.Context, token string) (*domain.Claims, error)

// Handlers returns the middleware chain for the board endpoint. Browsers
// cannot set headers on a WebSocket handshake, so the token comes from
// the "token" query parameter.
func Handlers(hub *Hub, verify TokenVerifier) []fiber.Handler {
	return []fiber.Handler{
		func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			token := c.Query("token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error":   "missing_credential",
					"message": "No token provided",
				})
			}
			claims, err := verify(c.UserContext(), token)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   "invalid_credential",
					"message": "Invalid token",
				})
			}
			c.Locals(userIDLocal, claims.UserID)
			return c.Next()
		},
		websocket.New(func(c *websocket.Conn) {
			serve(hub, c)
		}),
	}
}

// serve registers the connection and blocks until the client goes away.
func serve(hub *Hub, c *websocket.Conn) {
	userID, _ := c.Locals(userIDLocal).(string)
	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   c,
	}
	hub.Register(client)
	defer func() {
		hub.Unregister(client)
		c.Close()
	}()

	slog.Info("board connected", "client", client.ID, "user", userID)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("board connection error", "client", client.ID, "error", err)
			}
			return
		}
	}
}
