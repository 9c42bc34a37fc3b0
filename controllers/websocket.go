package controllers

import (
	fiberws "github.com/gofiber/websocket/v2"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"freshersparty_go/config"
	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services/websocket"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// UpgradeMiddleware rejects non-WebSocket requests on the /ws route.
func (wsc *WebSocketController) UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler authenticates the connection via a token query parameter and
// registers it with the hub. Browsers cannot set headers on WebSocket
// upgrades, so the JWT travels as ?token=.
func (wsc *WebSocketController) Handler() fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		tokenString := conn.Query("token")
		userID, ok := wsc.authenticate(tokenString)
		if !ok {
			conn.Close()
			return
		}
		wsc.hub.ServeFiberWS(conn, userID)
	})
}

func (wsc *WebSocketController) authenticate(tokenString string) (uint, bool) {
	if tokenString == "" {
		return 0, false
	}

	token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		logrus.WithError(err).Debug("WebSocket auth failed")
		return 0, false
	}

	claims, ok := token.Claims.(*middleware.Claims)
	if !ok || !token.Valid {
		return 0, false
	}

	var user models.User
	if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
		return 0, false
	}

	return claims.UserID, true
}

// GetStats reports connected client counts (admin only).
func (wsc *WebSocketController) GetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
	})
}
