package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

// Websocket не входит в /api: токен передаётся query-параметром и
// проверяется самим контроллером.
func runWebSocketRouter(e *echo.Echo, wsCtrl *controllers.WebSocketController) {
	e.GET("/ws", wsCtrl.ServeWs)
}
