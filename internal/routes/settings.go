package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

func runSettingsRouter(secureGroup *echo.Group, settingsCtrl *controllers.SettingsController) {
	secureGroup.GET("/settings", settingsCtrl.GetSettings)
	secureGroup.PATCH("/settings", settingsCtrl.UpdateSettings)
}
