package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

func runAuthRouter(api *echo.Group, secureGroup *echo.Group, authCtrl *controllers.AuthController) {
	api.POST("/auth/register", authCtrl.Register)
	api.POST("/auth/login", authCtrl.Login)
	api.POST("/auth/refresh", authCtrl.Refresh)
	api.POST("/auth/logout", authCtrl.Logout)

	secureGroup.GET("/auth/me", authCtrl.GetMe)
}
